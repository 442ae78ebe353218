package dto

import (
	"github.com/inboxlab/mailbridge/internal/enum"
	"github.com/inboxlab/mailbridge/internal/models"
)

// MailAccount is the per-request account bundle shared by every operation.
// The password passes straight through to the protocol adapters and must
// never reach logs, spans, or activity payloads.
type MailAccount struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Protocol enum.MailProtocol `json:"receiveProtocol"`

	IMAPHost string `json:"imapHost,omitempty"`
	IMAPPort int    `json:"imapPort,omitempty"`
	POP3Host string `json:"pop3Host,omitempty"`
	POP3Port int    `json:"pop3Port,omitempty"`
	SMTPHost string `json:"smtpHost,omitempty"`
	SMTPPort int    `json:"smtpPort,omitempty"`
}

// ReceiveOverride returns the user-supplied endpoint for the account's
// receive protocol. Host empty means no override was given.
func (a *MailAccount) ReceiveOverride() models.ServerSettings {
	switch a.Protocol {
	case enum.MailProtocolPOP3:
		return models.ServerSettings{Host: a.POP3Host, Port: a.POP3Port}
	default:
		return models.ServerSettings{Host: a.IMAPHost, Port: a.IMAPPort}
	}
}

// SendOverride returns the user-supplied SMTP endpoint.
func (a *MailAccount) SendOverride() models.ServerSettings {
	return models.ServerSettings{Host: a.SMTPHost, Port: a.SMTPPort}
}
