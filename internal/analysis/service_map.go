package analysis

// Labels used by the protocol distribution.
const (
	LabelICMP  = "ICMP"
	LabelTCP   = "TCP"
	LabelUDP   = "UDP"
	LabelHTTP  = "HTTP"
	LabelHTTPS = "HTTPS"
	LabelDNS   = "DNS"
	LabelFTP   = "FTP"
	LabelSSH   = "SSH"
	LabelPOP3  = "POP3"
	LabelIMAP  = "IMAP"
	LabelOther = "Other"
)

var transportProtocols = map[int]string{
	1:  LabelICMP,
	6:  LabelTCP,
	17: LabelUDP,
}

var commonPorts = map[int]string{
	21:  LabelFTP,
	22:  LabelSSH,
	53:  LabelDNS,
	80:  LabelHTTP,
	110: LabelPOP3,
	143: LabelIMAP,
	443: LabelHTTPS,
}
