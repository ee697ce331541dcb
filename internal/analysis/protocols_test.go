package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracemetrics/internal/models"
)

func TestProtocolDistributionByPorts(t *testing.T) {
	packets := []models.Packet{
		withPorts(ipPacket(6), 51000, 443),
		withPorts(ipPacket(6), 443, 51000),
		withPorts(ipPacket(6), 51001, 8080),
		withPorts(ipPacket(17), 53000, 53),
		withPorts(ipPacket(6), 40000, 22),
		ipPacket(1),
		ipPacket(47),
		{Length: 42}, // ARP, no IP layer
	}

	dist := ProtocolDistributionOf(packets, ClassifyPorts)

	assert.Equal(t, ProtocolDistribution{
		LabelHTTPS: 2,
		LabelTCP:   1,
		LabelDNS:   1,
		LabelSSH:   1,
		LabelICMP:  1,
		LabelOther: 1,
	}, dist)
	assert.Equal(t, 7, dist.Total())
}

func TestProtocolDistributionCompat(t *testing.T) {
	packets := []models.Packet{
		withPorts(ipPacket(6), 51000, 80),
		withPorts(ipPacket(17), 53000, 53),
		ipPacket(1),
		ipPacket(22), // protocol number equal to the SSH port
		ipPacket(47),
	}

	dist := ProtocolDistributionOf(packets, ClassifyCompat)

	assert.Equal(t, ProtocolDistribution{
		LabelTCP:   1,
		LabelUDP:   1,
		LabelICMP:  1,
		LabelSSH:   1,
		LabelOther: 1,
	}, dist)
}

func TestProtocolDistributionExcludesNonIP(t *testing.T) {
	packets := []models.Packet{{Length: 60}, {Length: 42}}

	dist := ProtocolDistributionOf(packets, ClassifyPorts)
	assert.Empty(t, dist)
	assert.Zero(t, dist.Total())
}

func TestProtocolDistributionSorted(t *testing.T) {
	dist := ProtocolDistribution{LabelUDP: 3, LabelDNS: 1, LabelHTTPS: 9, LabelOther: 2}

	assert.Equal(t, []ProtocolCount{
		{Protocol: LabelDNS, Count: 1},
		{Protocol: LabelHTTPS, Count: 9},
		{Protocol: LabelOther, Count: 2},
		{Protocol: LabelUDP, Count: 3},
	}, dist.Sorted())
}

func TestParseClassifyMode(t *testing.T) {
	mode, err := ParseClassifyMode("COMPAT")
	require.NoError(t, err)
	assert.Equal(t, ClassifyCompat, mode)

	mode, err = ParseClassifyMode("")
	require.NoError(t, err)
	assert.Equal(t, ClassifyPorts, mode)
	assert.Equal(t, "ports", mode.String())

	_, err = ParseClassifyMode("dpi")
	assert.Error(t, err)
}
