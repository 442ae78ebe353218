package imap

import (
	"context"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/interfaces"
	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

type IMAPService struct {
	cfg       *config.MailConfig
	log       logger.Logger
	connector Connector
}

func NewIMAPService(cfg *config.MailConfig, log logger.Logger) interfaces.MailReceiver {
	return &IMAPService{
		cfg:       cfg,
		log:       log,
		connector: Connect,
	}
}

// withClient runs fn inside one authenticated session. The session is always
// released, whatever fn returns.
func (s *IMAPService) withClient(params models.ConnectionParameters, fn func(Client) error) error {
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

func (s *IMAPService) TestConnection(ctx context.Context, params models.ConnectionParameters) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.TestConnection")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", params.Host)
	span.SetTag("port", params.Port)

	// Connecting and logging in is the whole test.
	err := s.withClient(params, func(Client) error {
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (s *IMAPService) MarkRead(ctx context.Context, params models.ConnectionParameters, folder string, messageIDs []uint32) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.MarkRead")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", folder)
	span.SetTag("messages.count", len(messageIDs))

	if len(messageIDs) == 0 {
		return nil
	}

	err := s.withClient(params, func(c Client) error {
		if _, err := c.Select(folder, false); err != nil {
			return er.NewTransport("imap", err)
		}

		seqSet := new(imap.SeqSet)
		seqSet.AddNum(messageIDs...)

		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			return er.NewTransport("imap", err)
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (s *IMAPService) ListFolders(ctx context.Context, params models.ConnectionParameters) ([]models.FolderNode, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.ListFolders")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", params.Host)

	var folders []models.FolderNode
	err := s.withClient(params, func(c Client) error {
		mailboxes := make(chan *imap.MailboxInfo, 10)
		done := make(chan error, 1)
		go func() {
			done <- c.List("", "*", mailboxes)
		}()

		var infos []*imap.MailboxInfo
		for m := range mailboxes {
			infos = append(infos, m)
		}
		if err := <-done; err != nil {
			return er.NewTransport("imap", err)
		}

		folders = models.FlattenFolderTree(buildFolderTree(infos), "")
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.SetTag("folders.count", len(folders))
	return folders, nil
}
