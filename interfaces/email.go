package interfaces

import (
	"context"

	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/internal/models"
)

// EmailService is the operation contract the HTTP layer consumes. It resolves
// server settings, dispatches to the protocol adapters, and aggregates
// partial failures; it never retries.
type EmailService interface {
	TestConnection(ctx context.Context, req *dto.ConnectionTestRequest) *dto.ConnectionTestResult
	FetchMessages(ctx context.Context, req *dto.FetchMessagesRequest) ([]models.MessageSummary, error)
	SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*models.SendReceipt, error)
	MarkRead(ctx context.Context, req *dto.MarkReadRequest) error
	ListFolders(ctx context.Context, req *dto.ListFoldersRequest) ([]models.FolderNode, error)
}
