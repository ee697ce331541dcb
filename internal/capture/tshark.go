package capture

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tracemetrics/internal/logging"
	"tracemetrics/internal/models"
)

const maxEKLine = 1 << 20

// TsharkReader decodes a trace by running tshark over it and parsing its EK output.
type TsharkReader struct {
	// Binary is the tshark executable, looked up in PATH when not absolute.
	Binary string

	path   string
	logger logrus.FieldLogger
}

func NewTsharkReader(path string, logger logrus.FieldLogger) *TsharkReader {
	return &TsharkReader{Binary: "tshark", path: path, logger: logging.OrDiscard(logger)}
}

func (r *TsharkReader) ReadPackets(ctx context.Context) ([]models.Packet, error) {
	// -n: disable name resolution
	// -T ek: one JSON document per packet
	// -e ...: fields to extract
	args := []string{"-r", r.path, "-n", "-T", "ek"}
	for _, field := range ekFields {
		args = append(args, "-e", field)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start tshark: %w", err)
	}

	log := r.logger.WithFields(logrus.Fields{"file": r.path, "decoder": DecoderTshark})
	packets, scanErr := scanEK(stdout, log)
	if scanErr != nil {
		cancel()
	}
	waitErr := cmd.Wait()

	if scanErr != nil {
		return nil, fmt.Errorf("failed to read tshark output: %w", scanErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, fmt.Errorf("tshark failed on %s: %w (%s)", r.path, waitErr, strings.TrimSpace(stderr.String()))
	}

	log.WithField("packets", len(packets)).Info("Read trace")
	return packets, nil
}

func scanEK(out io.Reader, logger logrus.FieldLogger) ([]models.Packet, error) {
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEKLine)

	var packets []models.Packet
	malformed := 0
	for scanner.Scan() {
		pkt, ok, err := ParseEK(scanner.Bytes())
		if err != nil {
			malformed++
			continue
		}
		if ok {
			packets = append(packets, pkt)
		}
	}
	if malformed > 0 {
		logger.WithField("lines", malformed).Warn("Skipped malformed tshark lines")
	}
	return packets, scanner.Err()
}

// ParseEK decodes one line of tshark EK output. Index lines and blank lines
// return ok == false.
func ParseEK(line []byte) (models.Packet, bool, error) {
	// tshark emits an index line before each packet; only packet lines carry "layers".
	if len(bytes.TrimSpace(line)) == 0 || !bytes.Contains(line, []byte(`"layers"`)) {
		return models.Packet{}, false, nil
	}

	var ekPkt EkPacket
	if err := json.Unmarshal(line, &ekPkt); err != nil {
		return models.Packet{}, false, fmt.Errorf("invalid EK line: %w", err)
	}

	pkt, err := convertToModel(ekPkt)
	if err != nil {
		return models.Packet{}, false, err
	}
	return pkt, true, nil
}

func convertToModel(ek EkPacket) (models.Packet, error) {
	l := ek.Layers

	epoch, ok := firstValue(l.FrameTimeEpoch)
	if !ok {
		return models.Packet{}, fmt.Errorf("EK packet without frame.time_epoch")
	}
	ts, err := parseEpoch(epoch)
	if err != nil {
		return models.Packet{}, err
	}
	p := models.Packet{Timestamp: ts}

	if v, ok := firstValue(l.FrameLen); ok {
		if p.Length, err = strconv.Atoi(v); err != nil {
			return models.Packet{}, fmt.Errorf("invalid frame.len %q: %w", v, err)
		}
	}

	if proto, ok, err := uintField(l.IPProto, 8); err != nil {
		return models.Packet{}, err
	} else if ok {
		p.IP = &models.IPLayer{Protocol: uint8(proto)}
	} else if next, ok, err := uintField(l.IPv6NextHeader, 8); err != nil {
		return models.Packet{}, err
	} else if ok {
		p.IP = &models.IPLayer{Protocol: uint8(next)}
	}

	if len(l.TCPSrcPort) > 0 || len(l.TCPDstPort) > 0 {
		if p.Ports, err = portPair(l.TCPSrcPort, l.TCPDstPort); err != nil {
			return models.Packet{}, err
		}
		flags, _, err := uintField(l.TCPFlags, 16)
		if err != nil {
			return models.Packet{}, err
		}
		seq, _, err := uintField(l.TCPSeq, 32)
		if err != nil {
			return models.Packet{}, err
		}
		ack, _, err := uintField(l.TCPAck, 32)
		if err != nil {
			return models.Packet{}, err
		}
		p.TCP = &models.TCPLayer{Flags: models.TCPFlags(flags), Seq: uint32(seq), Ack: uint32(ack)}
	} else if len(l.UDPSrcPort) > 0 || len(l.UDPDstPort) > 0 {
		if p.Ports, err = portPair(l.UDPSrcPort, l.UDPDstPort); err != nil {
			return models.Packet{}, err
		}
	}

	if id, ok, err := uintField(l.DNSID, 16); err != nil {
		return models.Packet{}, err
	} else if ok {
		response := false
		if v, ok := firstValue(l.DNSResponse); ok {
			if response, err = strconv.ParseBool(v); err != nil {
				return models.Packet{}, fmt.Errorf("invalid dns.flags.response %q: %w", v, err)
			}
		}
		p.DNS = &models.DNSLayer{ID: uint16(id), Response: response}
	}

	return p, nil
}

func firstValue(values []string) (string, bool) {
	if len(values) == 0 || values[0] == "" {
		return "", false
	}
	return values[0], true
}

// uintField parses decimal or 0x-prefixed hex values.
func uintField(values []string, bits int) (uint64, bool, error) {
	v, ok := firstValue(values)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(v, 0, bits)
	if err != nil {
		return 0, false, fmt.Errorf("invalid field value %q: %w", v, err)
	}
	return n, true, nil
}

func portPair(src, dst []string) (*models.PortPair, error) {
	s, _, err := uintField(src, 16)
	if err != nil {
		return nil, err
	}
	d, _, err := uintField(dst, 16)
	if err != nil {
		return nil, err
	}
	return &models.PortPair{Src: uint16(s), Dst: uint16(d)}, nil
}

// parseEpoch reads "seconds.fraction" without going through float64, and falls
// back to RFC 3339 as printed by newer tshark releases.
func parseEpoch(s string) (time.Time, error) {
	secPart, fracPart, _ := strings.Cut(s, ".")
	secs, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		t, perr := time.Parse(time.RFC3339Nano, s)
		if perr != nil {
			return time.Time{}, fmt.Errorf("invalid frame.time_epoch %q", s)
		}
		return t.UTC(), nil
	}

	var nanos int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		if strings.TrimLeft(fracPart, "0123456789") != "" {
			return time.Time{}, fmt.Errorf("invalid frame.time_epoch %q", s)
		}
		if nanos, err = strconv.ParseInt(fracPart, 10, 64); err != nil {
			return time.Time{}, fmt.Errorf("invalid frame.time_epoch %q", s)
		}
	}
	// The fraction carries the sign of the seconds: -1.5 is 1.5s before the epoch.
	if strings.HasPrefix(secPart, "-") {
		nanos = -nanos
	}
	return time.Unix(secs, nanos).UTC(), nil
}
