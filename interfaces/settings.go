package interfaces

import (
	"github.com/inboxlab/mailbridge/internal/enum"
	"github.com/inboxlab/mailbridge/internal/models"
)

// ProviderDirectory looks up well-known provider profiles by email domain.
// The directory is immutable and safe for concurrent use.
type ProviderDirectory interface {
	LookupDomain(domain string) (models.ProviderProfile, bool)
	LookupEmail(email string) (models.ProviderProfile, bool)
	Profiles() []models.ProviderProfile
}

// SettingsResolver turns an email address plus an optional user-supplied
// endpoint into connectable server settings for one protocol. Directory
// matches always win over the override.
type SettingsResolver interface {
	Resolve(email string, protocol enum.MailProtocol, override models.ServerSettings) (models.ServerSettings, error)
}
