package events

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/interfaces"
	er "github.com/inboxlab/mailbridge/internal/errors"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

const appSource = "mailbridge"

// ActivityService forwards operation events to the external analytics API.
// Report is fire-and-forget: delivery runs in a background task bounded by
// the configured timeout, and failures are logged and swallowed. Invoke is
// the synchronous passthrough for the custom external call; its failures are
// reduced to a single generic error so upstream detail never leaks.
type ActivityService struct {
	cfg       *config.ActivityConfig
	log       logger.Logger
	publisher interfaces.EventPublisher
	client    *http.Client
}

func NewActivityService(cfg *config.ActivityConfig, log logger.Logger, publisher interfaces.EventPublisher) interfaces.ActivityReporter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ActivityService{
		cfg:       cfg,
		log:       log,
		publisher: publisher,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *ActivityService) Report(ctx context.Context, eventName string, payload map[string]interface{}) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ActivityService.Report")
	defer span.Finish()
	tracing.TagComponentClient(span)
	span.SetTag("event.name", eventName)

	event := &dto.ActivityEvent{
		Event: dto.ActivityEventDetails{
			Id:   uuid.NewString(),
			Name: eventName,
			Data: payload,
		},
		Metadata: dto.ActivityEventMetadata{
			UberTraceId: tracing.ExtractTextMapCarrier(span.Context())["uber-trace-id"],
			AppSource:   appSource,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		},
	}

	// Delivery is detached from the request: the caller never waits on it
	// and never sees its errors.
	go s.deliver(event)
}

func (s *ActivityService) deliver(event *dto.ActivityEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	if s.cfg.WebhookURL != "" {
		if err := s.post(ctx, event); err != nil {
			s.log.Warnf("activity event %s not delivered: %v", event.Event.Name, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishActivityEvent(ctx, event); err != nil {
			s.log.Warnf("activity event %s not mirrored to broker: %v", event.Event.Name, err)
		}
	}
}

func (s *ActivityService) post(ctx context.Context, event *dto.ActivityEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal activity event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build activity request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("X-API-KEY", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to call activity API")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("activity API returned status %d", resp.StatusCode)
	}
	return nil
}

// Invoke forwards an opaque payload to the external API and returns its
// response. Any failure surfaces as the generic external-call error; the
// underlying cause only reaches the log.
func (s *ActivityService) Invoke(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ActivityService.Invoke")
	defer span.Finish()
	tracing.TagComponentClient(span)

	if s.cfg.InvokeURL == "" {
		err := errors.New("no external endpoint configured")
		s.log.Warnf("external call rejected: %v", err)
		tracing.TraceErr(span, err)
		return nil, er.ErrExternalCallFailed
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.cfg.InvokeURL, bytes.NewReader(payload))
	if err != nil {
		s.log.Errorf("external call failed: %v", err)
		tracing.TraceErr(span, err)
		return nil, er.ErrExternalCallFailed
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("X-API-KEY", s.cfg.APIKey)
	}
	tracing.InjectSpanContextIntoHTTPRequest(req, span)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Errorf("external call failed: %v", err)
		tracing.TraceErr(span, err)
		return nil, er.ErrExternalCallFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.log.Errorf("external call response unreadable: %v", err)
		tracing.TraceErr(span, err)
		return nil, er.ErrExternalCallFailed
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		s.log.Errorf("external call returned status %d", resp.StatusCode)
		tracing.TraceErr(span, errors.Errorf("external API returned status %d", resp.StatusCode))
		return nil, er.ErrExternalCallFailed
	}

	span.SetTag("response.size", len(body))
	return body, nil
}
