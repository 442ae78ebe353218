package interfaces

import (
	"context"

	"github.com/inboxlab/mailbridge/internal/models"
)

// MailReceiver is the inbound leg of an email account. IMAP and POP3 both
// satisfy it; operations a protocol cannot express fail with typed errors
// instead of being silently skipped.
type MailReceiver interface {
	TestConnection(ctx context.Context, params models.ConnectionParameters) error
	FetchMessages(ctx context.Context, params models.ConnectionParameters, folder string, count int) ([]models.MessageSummary, error)
	MarkRead(ctx context.Context, params models.ConnectionParameters, folder string, messageIDs []uint32) error
	ListFolders(ctx context.Context, params models.ConnectionParameters) ([]models.FolderNode, error)
}

// MailSender is the outbound leg.
type MailSender interface {
	TestConnection(ctx context.Context, params models.ConnectionParameters) error
	Send(ctx context.Context, params models.ConnectionParameters, message models.OutgoingMessage) (*models.SendReceipt, error)
}
