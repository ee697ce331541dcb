package analysis

import "errors"

var (
	// ErrEmptyInput is returned by analyzers that need at least one packet to establish bounds.
	ErrEmptyInput = errors.New("empty packet sequence")
	// ErrMalformedPacket is returned when a packet carries a field outside its valid range.
	ErrMalformedPacket = errors.New("malformed packet")
	// ErrInvalidWindow is returned for a non-positive throughput window, or one too
	// narrow for the trace span.
	ErrInvalidWindow = errors.New("invalid window width")
)
