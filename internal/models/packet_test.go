package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTCPFlagsHas(t *testing.T) {
	synAck := FlagSYN | FlagACK

	assert.True(t, synAck.Has(FlagSYN))
	assert.True(t, synAck.Has(FlagSYN|FlagACK))
	assert.False(t, synAck.Has(FlagFIN))
	assert.False(t, FlagSYN.Has(synAck))
}

func TestTCPFlagsString(t *testing.T) {
	assert.Equal(t, "none", TCPFlags(0).String())
	assert.Equal(t, "SYN|ACK", (FlagACK | FlagSYN).String())
	assert.Equal(t, "SYN|ACK|ECE", (FlagSYN | FlagACK | FlagECE).String())
}
