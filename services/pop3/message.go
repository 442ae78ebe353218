package pop3

import (
	"fmt"
	"io"
	"strings"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/pkg/errors"

	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/utils"
)

const previewLength = 160

// buildSummary shapes one retrieved entity into a client-facing summary.
// POP3 addresses messages by session-local sequence number and has no read
// state, so Seen stays unset.
func buildSummary(entity *gomessage.Entity, seq uint32) (models.MessageSummary, error) {
	summary := models.MessageSummary{ID: seq}
	if entity == nil {
		return summary, errors.New("no message entity")
	}

	header := mail.Header{Header: entity.Header}

	summary.Subject, _ = header.Subject()
	if date, err := header.Date(); err == nil {
		summary.SentAt = date
	}
	summary.Sender = formatAddressList(header, "From")
	summary.Recipient = formatAddressList(header, "To")

	text, html := extractBodies(entity)
	if html != "" {
		summary.Body = html
		plain, err := utils.HTMLToPlainText(html)
		if err != nil || plain == "" {
			plain = text
		}
		summary.Preview = utils.Preview(plain, previewLength)
	} else {
		summary.Body = text
		summary.Preview = utils.Preview(text, previewLength)
	}

	summary.ApplyDefaults()
	return summary, nil
}

// extractBodies walks the MIME structure and pulls the first text/plain and
// text/html parts, descending into nested multiparts.
func extractBodies(entity *gomessage.Entity) (text, html string) {
	mr := entity.MultipartReader()
	if mr == nil {
		contentType, _, _ := entity.Header.ContentType()
		body, err := io.ReadAll(entity.Body)
		if err != nil {
			return "", ""
		}
		if strings.HasPrefix(contentType, "text/html") {
			return "", string(body)
		}
		return string(body), ""
	}

	for {
		part, err := mr.NextPart()
		if err != nil {
			return text, html
		}

		contentType, _, _ := part.Header.ContentType()
		switch {
		case strings.HasPrefix(contentType, "multipart/"):
			nestedText, nestedHTML := extractBodies(part)
			if text == "" {
				text = nestedText
			}
			if html == "" {
				html = nestedHTML
			}
		case strings.HasPrefix(contentType, "text/plain") && text == "":
			if body, err := io.ReadAll(part.Body); err == nil {
				text = string(body)
			}
		case strings.HasPrefix(contentType, "text/html") && html == "":
			if body, err := io.ReadAll(part.Body); err == nil {
				html = string(body)
			}
		}
	}
}

func formatAddressList(header mail.Header, field string) string {
	addrs, err := header.AddressList(field)
	if err != nil || len(addrs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil || a.Address == "" {
			continue
		}
		if a.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.Name, a.Address))
		} else {
			parts = append(parts, a.Address)
		}
	}
	return strings.Join(parts, ", ")
}
