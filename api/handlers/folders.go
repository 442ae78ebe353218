package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_err "github.com/inboxlab/mailbridge/api/errors"
	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

// ListFolders handles the HTTP request for the account's mailbox hierarchy,
// returned as a flat delimiter-qualified list. POP3 accounts get an empty
// list.
func (h *MailHandler) ListFolders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MailHandler.ListFolders", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.ListFoldersRequest
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

		folders, err := h.emails.ListFolders(ctx, &request)
		if err != nil {
			respondOperationFailed(c, span, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"folders": folders,
		})
	}
}
