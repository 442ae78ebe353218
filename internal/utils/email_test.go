package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDomainFromEmail(t *testing.T) {
	assert.Equal(t, "gmail.com", ExtractDomainFromEmail("user@gmail.com"))
	assert.Equal(t, "gmail.com", ExtractDomainFromEmail("user@GMAIL.COM"))
	assert.Equal(t, "example.org", ExtractDomainFromEmail("Some One <some.one@example.org>"))
	assert.Equal(t, "example.org", ExtractDomainFromEmail("  user@example.org  "))
}

func TestExtractDomainFromEmailMalformed(t *testing.T) {
	assert.Empty(t, ExtractDomainFromEmail(""))
	assert.Empty(t, ExtractDomainFromEmail("no-at-sign"))
	assert.Empty(t, ExtractDomainFromEmail("two@@signs"))
	assert.Empty(t, ExtractDomainFromEmail("a@b@c"))
}
