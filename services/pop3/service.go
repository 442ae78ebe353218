package pop3

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/interfaces"
	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

type POP3Service struct {
	cfg       *config.MailConfig
	log       logger.Logger
	connector Connector
}

func NewPOP3Service(cfg *config.MailConfig, log logger.Logger) interfaces.MailReceiver {
	return &POP3Service{
		cfg:       cfg,
		log:       log,
		connector: Connect,
	}
}

// withConn runs fn inside one authenticated session. The session is always
// released, whatever fn returns.
func (s *POP3Service) withConn(params models.ConnectionParameters, fn func(Client) error) error {
	connector := s.connector
	if connector == nil {
		connector = Connect
	}

	client, err := connector(s.cfg, params)
	if err != nil {
		return err
	}
	defer release(s.log, client)

	return fn(client)
}

func (s *POP3Service) TestConnection(ctx context.Context, params models.ConnectionParameters) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Service.TestConnection")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", params.Host)
	span.SetTag("port", params.Port)

	// Connecting and logging in is the whole test.
	err := s.withConn(params, func(Client) error {
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// FetchMessages retrieves the newest messages by walking the highest sequence
// numbers. POP3 has a single implicit mailbox, so folder is ignored. Every
// index in the window is attempted; failures only shrink the result.
func (s *POP3Service) FetchMessages(ctx context.Context, params models.ConnectionParameters, folder string, count int) ([]models.MessageSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Service.FetchMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", params.Host)
	span.SetTag("messages.requested", count)

	summaries := []models.MessageSummary{}
	if count <= 0 {
		return summaries, nil
	}

	err := s.withConn(params, func(c Client) error {
		total, _, err := c.Stat()
		if err != nil {
			return er.NewTransport("pop3", err)
		}
		if total == 0 {
			return nil
		}

		start := 1
		if total > count {
			start = total - count + 1
		}

		for id := start; id <= total; id++ {
			entity, err := c.Retr(id)
			if err == nil {
				summary, parseErr := buildSummary(entity, uint32(id))
				if parseErr == nil {
					summaries = append(summaries, summary)
					continue
				}
				err = parseErr
			}
			dropped := er.NewParse(fmt.Sprintf("%d", id), err)
			s.log.Warnf("POP3: dropping unreadable message: %v", dropped)
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	models.SortMessagesNewestFirst(summaries)
	span.SetTag("messages.count", len(summaries))
	return summaries, nil
}

// MarkRead rejects before any connection is made. POP3 has no flag concept,
// so the request structurally cannot be honored.
func (s *POP3Service) MarkRead(ctx context.Context, params models.ConnectionParameters, folder string, messageIDs []uint32) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Service.MarkRead")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	err := er.ErrUnsupportedOperation
	tracing.TraceErr(span, err)
	return err
}

// ListFolders resolves empty without touching the server. POP3 exposes one
// implicit mailbox and no hierarchy to enumerate.
func (s *POP3Service) ListFolders(ctx context.Context, params models.ConnectionParameters) ([]models.FolderNode, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "POP3Service.ListFolders")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	return []models.FolderNode{}, nil
}
