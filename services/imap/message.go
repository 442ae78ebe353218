package imap

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/tracing"
	"github.com/inboxlab/mailbridge/internal/utils"
)

const previewLength = 160

// FetchMessages returns summaries for the newest messages of a folder. The
// window is the most recent min(count, total) by sequence number; a message
// that cannot be parsed is logged and dropped, never failing the batch.
func (s *IMAPService) FetchMessages(ctx context.Context, params models.ConnectionParameters, folder string, count int) ([]models.MessageSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.FetchMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", folder)
	span.SetTag("count", count)

	summaries := []models.MessageSummary{}
	if count <= 0 {
		return summaries, nil
	}

	err := s.withClient(params, func(c Client) error {
		mbox, err := c.Select(folder, true)
		if err != nil {
			return er.NewTransport("imap", err)
		}

		total := mbox.Messages
		if total == 0 {
			return nil
		}

		window := uint32(count)
		if window > total {
			window = total
		}
		from := total - window + 1

		seqSet := new(imap.SeqSet)
		seqSet.AddRange(from, total)

		section := &imap.BodySectionName{Peek: true}
		items := []imap.FetchItem{
			imap.FetchEnvelope,
			imap.FetchFlags,
			imap.FetchUid,
			imap.FetchInternalDate,
			section.FetchItem(),
		}

		messages := make(chan *imap.Message, window)
		done := make(chan error, 1)
		go func() {
			done <- c.Fetch(seqSet, items, messages)
		}()

		for msg := range messages {
			summary, err := buildSummary(msg, section)
			if err != nil {
				parseErr := er.NewParse(fmt.Sprintf("%d", msg.Uid), err)
				s.log.Warnf("IMAP: dropping unparsable message: %v", parseErr)
				continue
			}
			summaries = append(summaries, *summary)
		}

		// The result only resolves once the fetch stream has completed.
		if err := <-done; err != nil {
			return er.NewTransport("imap", err)
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

func buildSummary(msg *imap.Message, section *imap.BodySectionName) (*models.MessageSummary, error) {
	if msg == nil {
		return nil, errors.New("nil message in fetch stream")
	}

	summary := &models.MessageSummary{
		ID:   msg.Uid,
		Seen: utils.Ptr(false),
	}
	for _, flag := range msg.Flags {
		if flag == imap.SeenFlag {
			summary.Seen = utils.Ptr(true)
		}
	}

	if env := msg.Envelope; env != nil {
		summary.Subject = env.Subject
		summary.Sender = formatAddressList(env.From)
		summary.Recipient = formatAddressList(env.To)
		summary.SentAt = env.Date
	}
	if summary.SentAt.IsZero() {
		summary.SentAt = msg.InternalDate
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, errors.New("server returned no body section")
	}

	envelope, err := enmime.ReadEnvelope(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse message body")
	}

	text := strings.TrimSpace(envelope.Text)
	html := strings.TrimSpace(envelope.HTML)
	if html != "" {
		summary.Body = html
		plain, perr := utils.HTMLToPlainText(html)
		if perr != nil || plain == "" {
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

func formatAddressList(addrs []*imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr == nil || addr.MailboxName == "" {
			continue
		}
		full := addr.Address()
		if addr.PersonalName != "" {
			full = fmt.Sprintf("%s <%s>", addr.PersonalName, full)
		}
		parts = append(parts, full)
	}
	return strings.Join(parts, ", ")
}
