package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/interfaces"
	"github.com/inboxlab/mailbridge/internal/enum"
	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/tracing"
	"github.com/inboxlab/mailbridge/internal/utils"
)

type SMTPService struct {
	cfg *config.MailConfig
	log logger.Logger
}

func NewSMTPService(cfg *config.MailConfig, log logger.Logger) interfaces.MailSender {
	return &SMTPService{
		cfg: cfg,
		log: log,
	}
}

// TestConnection verifies the account by connecting and authenticating only.
// No message reaches the server queue.
func (s *SMTPService) TestConnection(ctx context.Context, params models.ConnectionParameters) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPService.TestConnection")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", params.Host)
	span.SetTag("port", params.Port)

	client, conn, err := s.connect(params)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	defer s.release(client)

	if err := s.login(client, conn, params); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (s *SMTPService) Send(ctx context.Context, params models.ConnectionParameters, message models.OutgoingMessage) (*models.SendReceipt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", params.Host)
	span.SetTag("to", message.To)

	messageID := utils.GenerateMessageID(utils.ExtractDomainFromEmail(params.Email))
	sentAt := time.Now().UTC()

	buffer, err := buildMessage(params.Email, message, messageID, sentAt)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	client, conn, err := s.connect(params)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer s.release(client)

	if err := s.login(client, conn, params); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if err := transmit(client, params.Email, message.To, buffer); err != nil {
		transportErr := er.NewTransport("smtp", err)
		tracing.TraceErr(span, transportErr)
		return nil, transportErr
	}

	span.SetTag("message.id", messageID)
	return &models.SendReceipt{
		MessageID: messageID,
		From:      params.Email,
		To:        message.To,
		SentAt:    sentAt,
	}, nil
}

// connect dials and greets the server; the caller owns the returned client.
// Everything up to and including the greeting is a transport failure.
func (s *SMTPService) connect(params models.ConnectionParameters) (*smtp.Client, net.Conn, error) {
	dialer := &net.Dialer{
		Timeout:   s.cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	addr := params.Address()
	tlsConfig := &tls.Config{ServerName: params.Host}

	var conn net.Conn
	var err error

	switch params.Security {
	case enum.EmailSecuritySSL, enum.EmailSecurityTLS:
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	default:
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, nil, er.NewTransport("smtp", err)
	}

	conn.SetDeadline(time.Now().Add(s.cfg.GreetingTimeout))
	client, err := smtp.NewClient(conn, params.Host)
	if err != nil {
		conn.Close()
		return nil, nil, er.NewTransport("smtp", err)
	}

	if params.Security == enum.EmailSecurityStartTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, nil, er.NewTransport("smtp", err)
		}
	}
	conn.SetDeadline(time.Time{})

	return client, conn, nil
}

// login runs the AUTH exchange. A rejection here is an auth failure, not
// transport.
func (s *SMTPService) login(client *smtp.Client, conn net.Conn, params models.ConnectionParameters) error {
	conn.SetDeadline(time.Now().Add(s.cfg.AuthTimeout))
	defer conn.SetDeadline(time.Time{})

	auth := smtp.PlainAuth("", params.Email, params.Password, params.Host)
	if err := client.Auth(auth); err != nil {
		return er.NewAuth(err)
	}
	return nil
}

// transmit runs the MAIL/RCPT/DATA exchange on an authenticated session.
func transmit(client *smtp.Client, from, to string, buffer *bytes.Buffer) error {
	if err := client.Mail(from); err != nil {
		return errors.Wrap(err, "MAIL command failed")
	}
	if err := client.Rcpt(to); err != nil {
		return errors.Wrapf(err, "RCPT command failed for %s", to)
	}

	dataWriter, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "DATA command failed")
	}
	if _, err := dataWriter.Write(buffer.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write message data")
	}
	return dataWriter.Close()
}

// release quits the session without letting a wedged server block the request.
func (s *SMTPService) release(client *smtp.Client) {
	if client == nil {
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- client.Quit()
	}()

	select {
	case err := <-done:
		if err != nil {
			s.log.Warnf("SMTP quit failed: %v", err)
			client.Close()
		}
	case <-time.After(5 * time.Second):
		s.log.Warn("SMTP quit timed out")
		client.Close()
	}
}
