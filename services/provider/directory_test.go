package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxlab/mailbridge/internal/enum"
)

func TestLookupDomainKnownProviders(t *testing.T) {
	d := NewProviderDirectory()

	profile, ok := d.LookupDomain("gmail.com")
	require.True(t, ok)
	assert.Equal(t, "gmail", profile.Key)
	assert.Equal(t, "imap.gmail.com", profile.IMAP.Host)
	assert.Equal(t, 993, profile.IMAP.Port)
	assert.Equal(t, enum.EmailSecuritySSL, profile.IMAP.Security)

	profile, ok = d.LookupDomain("yahoo.com")
	require.True(t, ok)
	assert.Equal(t, "yahoo", profile.Key)
	assert.Equal(t, "pop.mail.yahoo.com", profile.POP3.Host)
	assert.Equal(t, 995, profile.POP3.Port)

	profile, ok = d.LookupDomain("outlook.com")
	require.True(t, ok)
	assert.Equal(t, "outlook", profile.Key)
	assert.Equal(t, enum.EmailSecurityStartTLS, profile.SMTP.Security)
}

func TestLookupDomainIsCaseInsensitive(t *testing.T) {
	d := NewProviderDirectory()

	profile, ok := d.LookupDomain("GMAIL.com")
	require.True(t, ok)
	assert.Equal(t, "gmail", profile.Key)
}

func TestLookupDomainUnknown(t *testing.T) {
	d := NewProviderDirectory()

	_, ok := d.LookupDomain("example.org")
	assert.False(t, ok)
}

func TestLookupDomainEmptyNeverMatches(t *testing.T) {
	d := NewProviderDirectory()

	_, ok := d.LookupDomain("")
	assert.False(t, ok)
	_, ok = d.LookupDomain("   ")
	assert.False(t, ok)
}

func TestLookupDomainContainmentOrder(t *testing.T) {
	d := NewProviderDirectory()

	// "mail.com" is a substring of "gmail.com", so the ordered scan stops at
	// the gmail profile. Containment matching makes table order significant.
	profile, ok := d.LookupDomain("mail.com")
	require.True(t, ok)
	assert.Equal(t, "gmail", profile.Key)
}

func TestLookupEmail(t *testing.T) {
	d := NewProviderDirectory()

	profile, ok := d.LookupEmail("Someone <USER@GMAIL.COM>")
	require.True(t, ok)
	assert.Equal(t, "gmail", profile.Key)

	_, ok = d.LookupEmail("not-an-address")
	assert.False(t, ok)
}

func TestProfilesReturnsCopy(t *testing.T) {
	d := NewProviderDirectory()

	profiles := d.Profiles()
	require.NotEmpty(t, profiles)

	profiles[0].IMAP.Host = "mutated.example.com"

	again := d.Profiles()
	assert.Equal(t, "imap.gmail.com", again[0].IMAP.Host)
}
