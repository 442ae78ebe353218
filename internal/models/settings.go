package models

import (
	"fmt"

	"github.com/inboxlab/mailbridge/internal/enum"
)

// ServerSettings is a resolved protocol endpoint.
type ServerSettings struct {
	Host     string             `json:"host"`
	Port     int                `json:"port"`
	Security enum.EmailSecurity `json:"security"`
}

// Secure reports whether the endpoint expects an encrypted session, either
// implicit TLS or a STARTTLS upgrade.
func (s ServerSettings) Secure() bool {
	return s.Security != "" && s.Security != enum.EmailSecurityNone
}

func (s ServerSettings) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProviderProfile is one well-known provider entry. Profiles are compiled in
// and immutable; lookups never mutate them.
type ProviderProfile struct {
	Key                 string         `json:"key"`
	Name                string         `json:"name"`
	IMAP                ServerSettings `json:"imap"`
	POP3                ServerSettings `json:"pop3"`
	SMTP                ServerSettings `json:"smtp"`
	RequiresAppPassword bool           `json:"requiresAppPassword"`
	HelpURL             string         `json:"helpUrl,omitempty"`
}

// Endpoint returns the profile's settings for one protocol. A zero Host means
// the provider does not offer that protocol.
func (p ProviderProfile) Endpoint(protocol enum.MailProtocol) ServerSettings {
	switch protocol {
	case enum.MailProtocolIMAP:
		return p.IMAP
	case enum.MailProtocolPOP3:
		return p.POP3
	case enum.MailProtocolSMTP:
		return p.SMTP
	}
	return ServerSettings{}
}
