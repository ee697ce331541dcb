package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/sirupsen/logrus"

	"tracemetrics/internal/logging"
	"tracemetrics/internal/models"
)

// pcapng files start with a Section Header Block, whose type reads the same in both byte orders.
const pcapngMagic = 0x0A0D0D0A

// FileReader reads pcap and pcapng files without libpcap.
type FileReader struct {
	path   string
	logger logrus.FieldLogger
}

func NewFileReader(path string, logger logrus.FieldLogger) *FileReader {
	return &FileReader{path: path, logger: logging.OrDiscard(logger)}
}

func (r *FileReader) ReadPackets(ctx context.Context) ([]models.Packet, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace %s: %w", r.path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", r.path, err)
	}

	var (
		data     gopacket.PacketDataSource
		linkType layers.LinkType
		format   string
	)
	if binary.BigEndian.Uint32(magic) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pcapng file %s: %w", r.path, err)
		}
		data, linkType, format = ng, ng.LinkType(), "pcapng"
	} else {
		pr, err := pcapgo.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pcap file %s: %w", r.path, err)
		}
		data, linkType, format = pr, pr.LinkType(), "pcap"
	}

	log := r.logger.WithFields(logrus.Fields{"file": r.path, "format": format, "link": linkType})
	log.Debug("Reading trace")

	packets, err := collect(ctx, gopacket.NewPacketSource(data, linkType), log)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	log.WithField("packets", len(packets)).Info("Read trace")
	return packets, nil
}
