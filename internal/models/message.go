package models

import (
	"sort"
	"strings"
	"time"
)

const (
	// SubjectNone is returned for messages that carry no subject header.
	SubjectNone = "no subject"
	// DateUnknown is returned when a message date is missing or unparsable.
	DateUnknown = "unknown"

	displayDateLayout = "Jan 2, 2006 15:04"
)

// MessageSummary is one fetched message shaped for the browser client.
// ID is the IMAP UID or the POP3 1-based sequence number. Seen is only set
// for IMAP; POP3 has no read/unread concept and the field stays absent.
type MessageSummary struct {
	ID        uint32 `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Body      string `json:"body"`
	Preview   string `json:"preview,omitempty"`
	Seen      *bool  `json:"seen,omitempty"`

	// SentAt orders the result list; the serialized date is the display string.
	SentAt time.Time `json:"-"`
}

// ApplyDefaults fills the display fields that carry sentinel fallbacks.
func (m *MessageSummary) ApplyDefaults() {
	if strings.TrimSpace(m.Subject) == "" {
		m.Subject = SubjectNone
	}
	m.Date = FormatDisplayDate(m.SentAt)
}

func FormatDisplayDate(t time.Time) string {
	if t.IsZero() {
		return DateUnknown
	}
	return t.Format(displayDateLayout)
}

// SortMessagesNewestFirst orders messages by timestamp descending. The sort
// is stable so messages with equal or missing dates keep their fetch order.
func SortMessagesNewestFirst(messages []MessageSummary) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SentAt.After(messages[j].SentAt)
	})
}

// OutgoingMessage is a message to transmit. The sender address comes from the
// connection parameters, not from the message itself.
type OutgoingMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendReceipt confirms a transmitted message.
type SendReceipt struct {
	MessageID string    `json:"messageId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	SentAt    time.Time `json:"sentAt"`
}
