package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"linktrack/internal/analytics/usecase"
	"linktrack/internal/metrics"
	"linktrack/internal/shared/events"
)

// Recorder consumes click and request-log events and writes them to the
// event store. Each write is bounded by a timeout; failures are logged and
// counted, never retried synchronously.
type Recorder struct {
	service *usecase.AnalyticsService
	logger  *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewRecorder creates a recorder writing through the analytics service.
func NewRecorder(service *usecase.AnalyticsService, logger *zap.Logger, m *metrics.Metrics, timeout time.Duration) *Recorder {
	return &Recorder{
		service: service,
		logger:  logger,
		metrics: m,
		timeout: timeout,
	}
}

// NewRouter creates a Watermill router with the recorder subscribed to both
// topics. The caller runs it and closes it on shutdown.
func NewRouter(bus *Bus, recorder *Recorder, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}

	router.AddNoPublisherHandler(
		"click-recorder",
		TopicClicks,
		bus.Subscriber(),
		recorder.HandleClick,
	)
	router.AddNoPublisherHandler(
		"request-log-recorder",
		TopicRequests,
		bus.Subscriber(),
		recorder.HandleRequestLog,
	)

	return router, nil
}

// HandleClick records one click event. Always returns nil: a failed write is
// operator-visible through the log and failure counter, but the event is not
// redelivered.
func (r *Recorder) HandleClick(msg *message.Message) error {
	var event events.ClickEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		r.logger.Error("failed to unmarshal click event", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.service.RecordClick(ctx, event); err != nil {
		r.metrics.ClickFailures.Inc()
		r.logger.Error("failed to record click",
			zap.String("slug", event.Slug),
			zap.Int64("link_id", event.LinkID),
			zap.Error(err),
		)
		return nil
	}

	r.metrics.ClicksRecorded.Inc()
	return nil
}

// HandleRequestLog records one request log entry.
func (r *Recorder) HandleRequestLog(msg *message.Message) error {
	var event events.RequestLoggedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		r.logger.Error("failed to unmarshal request log event", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.service.RecordRequestLog(ctx, event); err != nil {
		r.metrics.RequestLogFailures.Inc()
		r.logger.Error("failed to record request log",
			zap.String("path", event.Path),
			zap.Error(err),
		)
		return nil
	}

	r.metrics.RequestsLogged.Inc()
	return nil
}
