package capture

// EkPacket represents the top-level structure of a tshark -T ek output line.
type EkPacket struct {
	Timestamp string   `json:"timestamp"`
	Layers    EkLayers `json:"layers"`
}

// EkLayers holds the fields requested with -e. tshark flattens them and replaces
// dots with underscores; every value arrives as a list of strings.
type EkLayers struct {
	FrameTimeEpoch []string `json:"frame_time_epoch,omitempty"`
	FrameLen       []string `json:"frame_len,omitempty"`
	IPProto        []string `json:"ip_proto,omitempty"`
	IPv6NextHeader []string `json:"ipv6_nxt,omitempty"`
	TCPSrcPort     []string `json:"tcp_srcport,omitempty"`
	TCPDstPort     []string `json:"tcp_dstport,omitempty"`
	UDPSrcPort     []string `json:"udp_srcport,omitempty"`
	UDPDstPort     []string `json:"udp_dstport,omitempty"`
	TCPFlags       []string `json:"tcp_flags,omitempty"`
	TCPSeq         []string `json:"tcp_seq_raw,omitempty"`
	TCPAck         []string `json:"tcp_ack_raw,omitempty"`
	DNSID          []string `json:"dns_id,omitempty"`
	DNSResponse    []string `json:"dns_flags_response,omitempty"`
}

// ekFields are the -e arguments matching EkLayers.
var ekFields = []string{
	"frame.time_epoch",
	"frame.len",
	"ip.proto",
	"ipv6.nxt",
	"tcp.srcport", "tcp.dstport",
	"udp.srcport", "udp.dstport",
	"tcp.flags",
	"tcp.seq_raw", "tcp.ack_raw",
	"dns.id",
	"dns.flags.response",
}
