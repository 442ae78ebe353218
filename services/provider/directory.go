package provider

import (
	"strings"

	"github.com/inboxlab/mailbridge/interfaces"
	"github.com/inboxlab/mailbridge/internal/enum"
	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/utils"
)

// wellKnownProviders is scanned in order; the first profile whose IMAP or
// POP3 host contains the requester's domain wins. Matching is substring
// containment, not equality, so table order is significant.
var wellKnownProviders = []models.ProviderProfile{
	{
		Key:  "gmail",
		Name: "Gmail",
		IMAP: models.ServerSettings{Host: "imap.gmail.com", Port: 993, Security: enum.EmailSecuritySSL},
		POP3: models.ServerSettings{Host: "pop.gmail.com", Port: 995, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "smtp.gmail.com", Port: 465, Security: enum.EmailSecuritySSL},

		RequiresAppPassword: true,
		HelpURL:             "https://support.google.com/mail/answer/185833",
	},
	{
		Key:  "outlook",
		Name: "Outlook.com",
		IMAP: models.ServerSettings{Host: "imap-mail.outlook.com", Port: 993, Security: enum.EmailSecuritySSL},
		POP3: models.ServerSettings{Host: "pop-mail.outlook.com", Port: 995, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "smtp-mail.outlook.com", Port: 587, Security: enum.EmailSecurityStartTLS},

		RequiresAppPassword: true,
		HelpURL:             "https://support.microsoft.com/en-us/account-billing/5896983a-f321-43e9-8bc3-3c37b3c93265",
	},
	{
		Key:  "yahoo",
		Name: "Yahoo Mail",
		IMAP: models.ServerSettings{Host: "imap.mail.yahoo.com", Port: 993, Security: enum.EmailSecuritySSL},
		POP3: models.ServerSettings{Host: "pop.mail.yahoo.com", Port: 995, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "smtp.mail.yahoo.com", Port: 465, Security: enum.EmailSecuritySSL},

		RequiresAppPassword: true,
		HelpURL:             "https://help.yahoo.com/kb/SLN15241.html",
	},
	{
		// iCloud offers no POP3 access. Only @me.com addresses land here via
		// the containment rule; @icloud.com does not appear in any host.
		Key:  "icloud",
		Name: "iCloud Mail",
		IMAP: models.ServerSettings{Host: "imap.mail.me.com", Port: 993, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "smtp.mail.me.com", Port: 587, Security: enum.EmailSecurityStartTLS},

		RequiresAppPassword: true,
		HelpURL:             "https://support.apple.com/en-us/102525",
	},
	{
		Key:  "aol",
		Name: "AOL Mail",
		IMAP: models.ServerSettings{Host: "imap.aol.com", Port: 993, Security: enum.EmailSecuritySSL},
		POP3: models.ServerSettings{Host: "pop.aol.com", Port: 995, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "smtp.aol.com", Port: 465, Security: enum.EmailSecuritySSL},
	},
	{
		Key:  "fastmail",
		Name: "Fastmail",
		IMAP: models.ServerSettings{Host: "imap.fastmail.com", Port: 993, Security: enum.EmailSecuritySSL},
		POP3: models.ServerSettings{Host: "pop.fastmail.com", Port: 995, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "smtp.fastmail.com", Port: 465, Security: enum.EmailSecuritySSL},

		RequiresAppPassword: true,
		HelpURL:             "https://www.fastmail.help/hc/en-us/articles/360058752854",
	},
	{
		Key:  "zoho",
		Name: "Zoho Mail",
		IMAP: models.ServerSettings{Host: "imap.zoho.com", Port: 993, Security: enum.EmailSecuritySSL},
		POP3: models.ServerSettings{Host: "pop.zoho.com", Port: 995, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "smtp.zoho.com", Port: 465, Security: enum.EmailSecuritySSL},
	},
	{
		Key:  "gmx",
		Name: "GMX",
		IMAP: models.ServerSettings{Host: "imap.gmx.com", Port: 993, Security: enum.EmailSecuritySSL},
		POP3: models.ServerSettings{Host: "pop.gmx.com", Port: 995, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "mail.gmx.com", Port: 587, Security: enum.EmailSecurityStartTLS},
	},
	{
		Key:  "yandex",
		Name: "Yandex Mail",
		IMAP: models.ServerSettings{Host: "imap.yandex.com", Port: 993, Security: enum.EmailSecuritySSL},
		POP3: models.ServerSettings{Host: "pop.yandex.com", Port: 995, Security: enum.EmailSecuritySSL},
		SMTP: models.ServerSettings{Host: "smtp.yandex.com", Port: 465, Security: enum.EmailSecuritySSL},
	},
}

type providerDirectory struct {
	profiles []models.ProviderProfile
}

func NewProviderDirectory() interfaces.ProviderDirectory {
	return &providerDirectory{profiles: wellKnownProviders}
}

func (d *providerDirectory) LookupDomain(domain string) (models.ProviderProfile, bool) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return models.ProviderProfile{}, false
	}
	for _, profile := range d.profiles {
		if strings.Contains(profile.IMAP.Host, domain) || strings.Contains(profile.POP3.Host, domain) {
			return profile, true
		}
	}
	return models.ProviderProfile{}, false
}

func (d *providerDirectory) LookupEmail(email string) (models.ProviderProfile, bool) {
	return d.LookupDomain(utils.ExtractDomainFromEmail(email))
}

func (d *providerDirectory) Profiles() []models.ProviderProfile {
	profiles := make([]models.ProviderProfile, len(d.profiles))
	copy(profiles, d.profiles)
	return profiles
}
