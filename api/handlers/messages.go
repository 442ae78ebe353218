package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	custom_err "github.com/inboxlab/mailbridge/api/errors"
	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

// FetchMessages handles the HTTP request for the newest messages of a folder.
func (h *MailHandler) FetchMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.FetchMessages", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.FetchMessagesRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondInvalidRequest(c, span, err)
			return
		}

		errs := custom_err.NewMultiErrors()
		validateAccount(errs, &request.MailAccount)
		if request.Count != nil && *request.Count < 0 {
			errs.Add("count", "count must not be negative", errors.Errorf("count is %d", *request.Count))
		}
		if errs.HasErrors() {
			respondValidationErrors(c, span, errs)
			return
		}

		messages, err := h.emails.FetchMessages(ctx, &request)
		if err != nil {
			respondOperationFailed(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"messages": messages,
		})
	}
}

// SendMessage handles the HTTP request to transmit one message.
func (h *MailHandler) SendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.SendMessage", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.SendMessageRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondInvalidRequest(c, span, err)
			return
		}

		errs := custom_err.NewMultiErrors()
		validateAccount(errs, &request.MailAccount)
		cleanTo, err := validateEmailSyntax(request.To)
		if err != nil {
			errs.Add("to", "please provide a valid to address", err)
		} else {
			request.To = cleanTo
		}
		if request.Subject == "" {
			errs.Add("subject", "please provide an email subject", errors.New("subject is empty"))
		}
		if request.Body == "" {
			errs.Add("body", "please provide a message body", errors.New("body is empty"))
		}
		if errs.HasErrors() {
			respondValidationErrors(c, span, errs)
			return
		}

		receipt, err := h.emails.SendMessage(ctx, &request)
		if err != nil {
			respondOperationFailed(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"messageId": receipt.MessageID,
			"from":      receipt.From,
			"to":        receipt.To,
			"sentAt":    receipt.SentAt,
		})
	}
}

// MarkRead handles the HTTP request to flag messages as seen. A POP3 account
// gets the adapter's unsupported-operation rejection as a failed operation,
// not a validation error.
func (h *MailHandler) MarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.MarkRead", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.MarkReadRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondInvalidRequest(c, span, err)
			return
		}

		errs := custom_err.NewMultiErrors()
		validateAccount(errs, &request.MailAccount)
		if len(request.MessageIDs) == 0 {
			errs.Add("messageIds", "please provide at least one message id", errors.New("messageIds is empty"))
		}
		if errs.HasErrors() {
			respondValidationErrors(c, span, errs)
			return
		}

		if err := h.emails.MarkRead(ctx, &request); err != nil {
			respondOperationFailed(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
