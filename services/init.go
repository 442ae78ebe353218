package services

import (
	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/interfaces"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/services/email"
	"github.com/inboxlab/mailbridge/services/events"
	"github.com/inboxlab/mailbridge/services/imap"
	"github.com/inboxlab/mailbridge/services/pop3"
	"github.com/inboxlab/mailbridge/services/provider"
	"github.com/inboxlab/mailbridge/services/settings"
	"github.com/inboxlab/mailbridge/services/smtp"
)

type Services struct {
	ProviderDirectory interfaces.ProviderDirectory
	SettingsResolver  interfaces.SettingsResolver
	IMAPService       interfaces.MailReceiver
	POP3Service       interfaces.MailReceiver
	SMTPService       interfaces.MailSender
	EmailService      interfaces.EmailService
	ActivityService   interfaces.ActivityReporter
	EventPublisher    interfaces.EventPublisher
}

func InitServices(cfg *config.Config, log logger.Logger) (*Services, error) {
	directory := provider.NewProviderDirectory()
	resolver := settings.NewSettingsResolver(directory, log)

	imapService := imap.NewIMAPService(cfg.MailConfig, log)
	pop3Service := pop3.NewPOP3Service(cfg.MailConfig, log)
	smtpService := smtp.NewSMTPService(cfg.MailConfig, log)

	// The broker mirror is optional; without an AMQP URL activity events only
	// go to the webhook.
	var publisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, nil)
		if err != nil {
			return nil, err
		}
		publisher = rabbitPublisher
	}
	activityService := events.NewActivityService(cfg.ActivityConfig, log, publisher)

	services := Services{
		ProviderDirectory: directory,
		SettingsResolver:  resolver,
		IMAPService:       imapService,
		POP3Service:       pop3Service,
		SMTPService:       smtpService,
		EmailService:      email.NewEmailService(log, resolver, imapService, pop3Service, smtpService, activityService),
		ActivityService:   activityService,
		EventPublisher:    publisher,
	}

	return &services, nil
}
