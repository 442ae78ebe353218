package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	custom_err "github.com/inboxlab/mailbridge/api/errors"
	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/interfaces"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

type SettingsHandler struct {
	directory interfaces.ProviderDirectory
	resolver  interfaces.SettingsResolver
	activity  interfaces.ActivityReporter
	log       logger.Logger
}

func NewSettingsHandler(directory interfaces.ProviderDirectory, resolver interfaces.SettingsResolver, activity interfaces.ActivityReporter, log logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		directory: directory,
		resolver:  resolver,
		activity:  activity,
		log:       log,
	}
}

// Resolve exposes the settings resolver so clients can preview the server
// settings an address would connect with. The response names the matched
// provider when the directory supplied the settings.
func (h *SettingsHandler) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "SettingsHandler.Resolve", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.ResolveSettingsRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondInvalidRequest(c, span, err)
			return
		}

		errs := custom_err.NewMultiErrors()
		cleanEmail, err := validateEmailSyntax(request.Email)
		if err != nil {
			errs.Add("email", "please provide a valid email address", err)
		} else {
			request.Email = cleanEmail
		}
		if !request.Protocol.Valid() {
			errs.Add("protocol", "protocol must be imap, pop3 or smtp", errors.Errorf("unknown protocol %q", request.Protocol))
		}
		if errs.HasErrors() {
			respondValidationErrors(c, span, errs)
			return
		}

		override := models.ServerSettings{Host: request.Host, Port: request.Port}
		resolved, err := h.resolver.Resolve(request.Email, request.Protocol, override)

		h.activity.Report(ctx, "settings_resolved", map[string]interface{}{
			"email":    request.Email,
			"protocol": request.Protocol.String(),
			"success":  err == nil,
		})

		if err != nil {
			respondOperationFailed(c, span, err)
			return
		}

		response := gin.H{
			"success":  true,
			"settings": resolved,
		}
		if profile, ok := h.directory.LookupEmail(request.Email); ok {
			response["provider"] = profile
		}
		c.JSON(http.StatusOK, response)
	}
}
