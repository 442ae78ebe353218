package email

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/interfaces"
	"github.com/inboxlab/mailbridge/internal/enum"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/tracing"
	"github.com/inboxlab/mailbridge/internal/utils"
)

const (
	defaultFolder     = "INBOX"
	defaultFetchCount = 10
)

type emailService struct {
	log      logger.Logger
	resolver interfaces.SettingsResolver
	imap     interfaces.MailReceiver
	pop3     interfaces.MailReceiver
	smtp     interfaces.MailSender
	activity interfaces.ActivityReporter
}

func NewEmailService(
	log logger.Logger,
	resolver interfaces.SettingsResolver,
	imapService interfaces.MailReceiver,
	pop3Service interfaces.MailReceiver,
	smtpService interfaces.MailSender,
	activity interfaces.ActivityReporter,
) interfaces.EmailService {
	return &emailService{
		log:      log,
		resolver: resolver,
		imap:     imapService,
		pop3:     pop3Service,
		smtp:     smtpService,
		activity: activity,
	}
}

// TestConnection checks the receive and send legs of an account in one round
// trip. The legs are independent: a failed or unresolvable receive leg never
// skips the SMTP check, and each leg's outcome is reported on its own flag.
// Each adapter call is attempted exactly once.
func (s *emailService) TestConnection(ctx context.Context, req *dto.ConnectionTestRequest) *dto.ConnectionTestResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.TestConnection")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	protocol := receiveProtocol(req.Protocol)
	span.SetTag("protocol", protocol.String())

	result := &dto.ConnectionTestResult{Errors: []string{}}

	// Receive leg. A resolution failure is local and final for this leg; it
	// never triggers a network call.
	receiveSettings, err := s.resolver.Resolve(req.Email, protocol, req.ReceiveOverride())
	if err != nil {
		result.Errors = append(result.Errors, legError(protocol, err))
	} else if err := s.receiver(protocol).TestConnection(ctx, connectionParams(&req.MailAccount, receiveSettings)); err != nil {
		result.Errors = append(result.Errors, legError(protocol, err))
	} else {
		result.ReceiveOk = true
	}

	// Send leg always runs, whatever happened above.
	sendSettings, err := s.resolver.Resolve(req.Email, enum.MailProtocolSMTP, req.SendOverride())
	if err != nil {
		result.Errors = append(result.Errors, legError(enum.MailProtocolSMTP, err))
	} else if err := s.smtp.TestConnection(ctx, connectionParams(&req.MailAccount, sendSettings)); err != nil {
		result.Errors = append(result.Errors, legError(enum.MailProtocolSMTP, err))
	} else {
		result.SendOk = true
	}

	result.Success = result.ReceiveOk && result.SendOk
	if !result.Success {
		joined := strings.Join(result.Errors, ", ")
		span.SetTag("errors", joined)
		s.log.Infof("connection test for %s failed: %s", req.Email, joined)
	}

	s.reportActivity(ctx, "connection_tested", map[string]interface{}{
		"email":     req.Email,
		"protocol":  protocol.String(),
		"receiveOk": result.ReceiveOk,
		"sendOk":    result.SendOk,
	})
	return result
}

// FetchMessages returns the newest messages of a folder via the account's
// receive protocol. Folder and count fall back to INBOX and the default
// window when the request leaves them out.
func (s *emailService) FetchMessages(ctx context.Context, req *dto.FetchMessagesRequest) ([]models.MessageSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.FetchMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	protocol := receiveProtocol(req.Protocol)
	folder := req.Folder
	if folder == "" {
		folder = defaultFolder
	}
	count := utils.GetOrDefault(req.Count, defaultFetchCount)
	span.SetTag("protocol", protocol.String())
	span.SetTag("folder", folder)
	span.SetTag("count", count)

	messages, err := s.fetchMessages(ctx, req, protocol, folder, count)

	payload := map[string]interface{}{
		"email":    req.Email,
		"protocol": protocol.String(),
		"folder":   folder,
		"success":  err == nil,
	}
	if err == nil {
		payload["count"] = len(messages)
	}
	s.reportActivity(ctx, "messages_fetched", payload)

	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("messages.count", len(messages))
	return messages, nil
}

func (s *emailService) fetchMessages(ctx context.Context, req *dto.FetchMessagesRequest, protocol enum.MailProtocol, folder string, count int) ([]models.MessageSummary, error) {
	serverSettings, err := s.resolver.Resolve(req.Email, protocol, req.ReceiveOverride())
	if err != nil {
		return nil, errors.WithMessage(err, legLabel(protocol))
	}

	messages, err := s.receiver(protocol).FetchMessages(ctx, connectionParams(&req.MailAccount, serverSettings), folder, count)
	if err != nil {
		return nil, errors.WithMessage(err, legLabel(protocol))
	}
	return messages, nil
}

func (s *emailService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*models.SendReceipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.SendMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("to", req.To)

	receipt, err := s.sendMessage(ctx, req)

	payload := map[string]interface{}{
		"email":   req.Email,
		"to":      req.To,
		"success": err == nil,
	}
	if receipt != nil {
		payload["messageId"] = receipt.MessageID
	}
	s.reportActivity(ctx, "message_sent", payload)

	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("message.id", receipt.MessageID)
	return receipt, nil
}

func (s *emailService) sendMessage(ctx context.Context, req *dto.SendMessageRequest) (*models.SendReceipt, error) {
	serverSettings, err := s.resolver.Resolve(req.Email, enum.MailProtocolSMTP, req.SendOverride())
	if err != nil {
		return nil, errors.WithMessage(err, legLabel(enum.MailProtocolSMTP))
	}

	message := models.OutgoingMessage{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
	}
	receipt, err := s.smtp.Send(ctx, connectionParams(&req.MailAccount, serverSettings), message)
	if err != nil {
		return nil, errors.WithMessage(err, legLabel(enum.MailProtocolSMTP))
	}
	return receipt, nil
}

// MarkRead applies the seen flag to a set of messages. POP3 structurally
// cannot honor it, so that leg goes straight into the adapter's
// unsupported-operation rejection without resolving settings first.
func (s *emailService) MarkRead(ctx context.Context, req *dto.MarkReadRequest) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.MarkRead")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	protocol := receiveProtocol(req.Protocol)
	folder := req.Folder
	if folder == "" {
		folder = defaultFolder
	}
	span.SetTag("protocol", protocol.String())
	span.SetTag("messages.count", len(req.MessageIDs))

	err := s.markRead(ctx, req, protocol, folder)

	s.reportActivity(ctx, "messages_marked_read", map[string]interface{}{
		"email":   req.Email,
		"folder":  folder,
		"count":   len(req.MessageIDs),
		"success": err == nil,
	})

	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (s *emailService) markRead(ctx context.Context, req *dto.MarkReadRequest, protocol enum.MailProtocol, folder string) error {
	if protocol == enum.MailProtocolPOP3 {
		err := s.pop3.MarkRead(ctx, models.ConnectionParameters{Email: req.Email}, folder, req.MessageIDs)
		return errors.WithMessage(err, legLabel(protocol))
	}

	serverSettings, err := s.resolver.Resolve(req.Email, protocol, req.ReceiveOverride())
	if err != nil {
		return errors.WithMessage(err, legLabel(protocol))
	}

	if err := s.imap.MarkRead(ctx, connectionParams(&req.MailAccount, serverSettings), folder, req.MessageIDs); err != nil {
		return errors.WithMessage(err, legLabel(protocol))
	}
	return nil
}

// ListFolders enumerates the account's mailbox hierarchy as a flat list.
// POP3 has no hierarchy; that leg resolves empty without touching either the
// resolver or the network.
func (s *emailService) ListFolders(ctx context.Context, req *dto.ListFoldersRequest) ([]models.FolderNode, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailService.ListFolders")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	protocol := receiveProtocol(req.Protocol)
	span.SetTag("protocol", protocol.String())

	folders, err := s.listFolders(ctx, req, protocol)

	payload := map[string]interface{}{
		"email":    req.Email,
		"protocol": protocol.String(),
		"success":  err == nil,
	}
	if err == nil {
		payload["count"] = len(folders)
	}
	s.reportActivity(ctx, "folders_listed", payload)

	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("folders.count", len(folders))
	return folders, nil
}

func (s *emailService) listFolders(ctx context.Context, req *dto.ListFoldersRequest, protocol enum.MailProtocol) ([]models.FolderNode, error) {
	if protocol == enum.MailProtocolPOP3 {
		folders, err := s.pop3.ListFolders(ctx, models.ConnectionParameters{Email: req.Email})
		return folders, errors.WithMessage(err, legLabel(protocol))
	}

	serverSettings, err := s.resolver.Resolve(req.Email, protocol, req.ReceiveOverride())
	if err != nil {
		return nil, errors.WithMessage(err, legLabel(protocol))
	}

	folders, err := s.imap.ListFolders(ctx, connectionParams(&req.MailAccount, serverSettings))
	if err != nil {
		return nil, errors.WithMessage(err, legLabel(protocol))
	}
	return folders, nil
}

func (s *emailService) receiver(protocol enum.MailProtocol) interfaces.MailReceiver {
	if protocol == enum.MailProtocolPOP3 {
		return s.pop3
	}
	return s.imap
}

func (s *emailService) reportActivity(ctx context.Context, eventName string, payload map[string]interface{}) {
	if s.activity == nil {
		return
	}
	s.activity.Report(ctx, eventName, payload)
}

// receiveProtocol normalizes the requested receive protocol; anything that
// is not POP3 is treated as IMAP.
func receiveProtocol(protocol enum.MailProtocol) enum.MailProtocol {
	if protocol == enum.MailProtocolPOP3 {
		return enum.MailProtocolPOP3
	}
	return enum.MailProtocolIMAP
}

func connectionParams(account *dto.MailAccount, serverSettings models.ServerSettings) models.ConnectionParameters {
	return models.ConnectionParameters{
		Email:    account.Email,
		Password: account.Password,
		Host:     serverSettings.Host,
		Port:     serverSettings.Port,
		Security: serverSettings.Security,
	}
}

func legLabel(protocol enum.MailProtocol) string {
	return strings.ToUpper(protocol.String())
}

// legError renders one leg failure as a protocol-attributed message for the
// aggregate error list.
func legError(protocol enum.MailProtocol, err error) string {
	return legLabel(protocol) + ": " + err.Error()
}
