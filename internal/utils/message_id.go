package utils

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// GenerateMessageID builds an RFC 5322 Message-ID under the sender's domain.
func GenerateMessageID(domain string) string {
	alphabet := "abcdefghijklmnopqrstuvwxyz0123456789"
	id, err := gonanoid.Generate(alphabet, 12)
	if err != nil {
		panic(err)
	}

	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixMicro(), id, domain)
}
