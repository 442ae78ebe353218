package handlers

import (
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/services"
)

type APIHandlers struct {
	Mail     *MailHandler
	Settings *SettingsHandler
	Activity *ActivityHandler
}

func InitHandlers(s *services.Services, log logger.Logger) *APIHandlers {
	return &APIHandlers{
		Mail:     NewMailHandler(s.EmailService, log),
		Settings: NewSettingsHandler(s.ProviderDirectory, s.SettingsResolver, s.ActivityService, log),
		Activity: NewActivityHandler(s.ActivityService, log),
	}
}
