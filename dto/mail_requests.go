package dto

import (
	"github.com/inboxlab/mailbridge/internal/enum"
)

type ConnectionTestRequest struct {
	MailAccount
}

type FetchMessagesRequest struct {
	MailAccount
	Folder string `json:"folder"`
	// Count left out of the request means "the default window", not zero.
	Count *int `json:"count"`
}

type SendMessageRequest struct {
	MailAccount
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type MarkReadRequest struct {
	MailAccount
	Folder     string   `json:"folder"`
	MessageIDs []uint32 `json:"messageIds"`
}

type ListFoldersRequest struct {
	MailAccount
}

type ResolveSettingsRequest struct {
	Email    string            `json:"email"`
	Protocol enum.MailProtocol `json:"protocol"`
	Host     string            `json:"host,omitempty"`
	Port     int               `json:"port,omitempty"`
}
