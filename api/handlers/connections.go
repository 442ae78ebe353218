package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_err "github.com/inboxlab/mailbridge/api/errors"
	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/interfaces"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

type MailHandler struct {
	emails interfaces.EmailService
	log    logger.Logger
}

func NewMailHandler(emails interfaces.EmailService, log logger.Logger) *MailHandler {
	return &MailHandler{
		emails: emails,
		log:    log,
	}
}

// TestConnection handles the dual receive/send connectivity check. The
// result always carries both leg flags; a failed check is still a 200.
func (h *MailHandler) TestConnection() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.TestConnection", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.ConnectionTestRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondInvalidRequest(c, span, err)
			return
		}

		errs := custom_err.NewMultiErrors()
		validateAccount(errs, &request.MailAccount)
		if errs.HasErrors() {
			respondValidationErrors(c, span, errs)
			return
		}

		result := h.emails.TestConnection(ctx, &request)
		c.JSON(http.StatusOK, result)
	}
}
