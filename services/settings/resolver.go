package settings

import (
	"github.com/inboxlab/mailbridge/interfaces"
	"github.com/inboxlab/mailbridge/internal/enum"
	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/utils"
)

type settingsResolver struct {
	directory interfaces.ProviderDirectory
	log       logger.Logger
}

func NewSettingsResolver(directory interfaces.ProviderDirectory, log logger.Logger) interfaces.SettingsResolver {
	return &settingsResolver{
		directory: directory,
		log:       log,
	}
}

// Resolve picks server settings for one protocol. Precedence is fixed:
// a provider directory match always wins, the user-supplied endpoint is the
// fallback, and with neither the request fails before any network call.
func (r *settingsResolver) Resolve(email string, protocol enum.MailProtocol, override models.ServerSettings) (models.ServerSettings, error) {
	domain := utils.ExtractDomainFromEmail(email)
	if domain == "" {
		return models.ServerSettings{}, er.NewValidation("email", "not a valid email address")
	}

	if profile, ok := r.directory.LookupDomain(domain); ok {
		endpoint := profile.Endpoint(protocol)
		if endpoint.Host != "" {
			r.log.Debugf("resolved %s settings for %s via provider %s", protocol, domain, profile.Key)
			return endpoint, nil
		}
		// Provider is known but does not offer this protocol; fall through to
		// the user override.
	}

	if override.Host != "" {
		return normalizeOverride(protocol, override), nil
	}

	return models.ServerSettings{}, er.NewSettingsUnresolved(protocol.String())
}

// normalizeOverride fills the gaps of a user-supplied endpoint. A missing
// port gets the protocol's implicit-TLS default; security is inferred from
// the port when the caller did not state it.
func normalizeOverride(protocol enum.MailProtocol, override models.ServerSettings) models.ServerSettings {
	settings := override
	if settings.Port == 0 {
		settings.Port = defaultPort(protocol)
	}
	if settings.Security == "" {
		settings.Security = inferSecurity(settings.Port)
	}
	return settings
}

func defaultPort(protocol enum.MailProtocol) int {
	switch protocol {
	case enum.MailProtocolIMAP:
		return 993
	case enum.MailProtocolPOP3:
		return 995
	case enum.MailProtocolSMTP:
		return 465
	}
	return 0
}

func inferSecurity(port int) enum.EmailSecurity {
	switch port {
	case 993, 995, 465:
		return enum.EmailSecuritySSL
	case 587:
		return enum.EmailSecurityStartTLS
	}
	return enum.EmailSecurityNone
}
