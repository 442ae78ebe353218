package enum

// MailProtocol identifies one of the wire protocols the bridge speaks.
type MailProtocol string

const (
	MailProtocolIMAP MailProtocol = "imap"
	MailProtocolPOP3 MailProtocol = "pop3"
	MailProtocolSMTP MailProtocol = "smtp"
)

func (p MailProtocol) String() string {
	return string(p)
}

func (p MailProtocol) Valid() bool {
	switch p {
	case MailProtocolIMAP, MailProtocolPOP3, MailProtocolSMTP:
		return true
	}
	return false
}

// IsReceive reports whether the protocol retrieves mail.
func (p MailProtocol) IsReceive() bool {
	return p == MailProtocolIMAP || p == MailProtocolPOP3
}

type EmailSecurity string

const (
	EmailSecurityNone     EmailSecurity = "none"
	EmailSecuritySSL      EmailSecurity = "ssl"
	EmailSecurityTLS      EmailSecurity = "tls"
	EmailSecurityStartTLS EmailSecurity = "startTLS"
)

func (t EmailSecurity) String() string {
	return string(t)
}
