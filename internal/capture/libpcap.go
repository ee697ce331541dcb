package capture

import (
	"github.com/sirupsen/logrus"

	"tracemetrics/internal/logging"
)

// LibpcapReader reads a trace through libpcap, optionally applying a BPF filter.
type LibpcapReader struct {
	path   string
	filter string
	logger logrus.FieldLogger
}

func NewLibpcapReader(path, filter string, logger logrus.FieldLogger) *LibpcapReader {
	return &LibpcapReader{path: path, filter: filter, logger: logging.OrDiscard(logger)}
}
