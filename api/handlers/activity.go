package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/inboxlab/mailbridge/interfaces"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

type ActivityHandler struct {
	activity interfaces.ActivityReporter
	log      logger.Logger
}

func NewActivityHandler(activity interfaces.ActivityReporter, log logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		log:      log,
	}
}

// Invoke forwards an opaque JSON payload to the external API and relays its
// response. An upstream failure surfaces only as the generic external-call
// error; the cause stays in the server log.
func (h *ActivityHandler) Invoke() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ActivityHandler.Invoke", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		payload, err := c.GetRawData()
		if err != nil {
			respondInvalidRequest(c, span, err)
			return
		}
		if len(payload) == 0 || !json.Valid(payload) {
			respondInvalidRequest(c, span, errors.New("body must be a JSON document"))
			return
		}

		response, err := h.activity.Invoke(ctx, payload)
		if err != nil {
			respondOperationFailed(c, span, err)
			return
		}

		c.Data(http.StatusOK, "application/json", response)
	}
}
