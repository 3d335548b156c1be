package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the refresh subscription.
const (
	JobTypeGridRefresh = "grid_refresh"
	JobTypeHealthCheck = "health_check"
)

// ErrMalformedMessage is returned for messages that cannot be decoded.
var ErrMalformedMessage = errors.New("malformed job message")

// PubSubHandler triggers grid refreshes from Pub/Sub messages.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// JobMessage is the payload published to the refresh topic.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// A refresh over the full lattice takes minutes; one at a time is enough.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 30 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       NewDispatcher(cfg.RefreshJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		logger.Debug().Msg("received pubsub message")

		if h.dispatcher.Handle(ctx, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Dispatcher decodes job messages and runs the matching job.
type Dispatcher struct {
	job    *RefreshJob
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given refresh job.
func NewDispatcher(job *RefreshJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, logger: logger}
}

// Handle processes one message payload and reports whether it should be
// acknowledged. Unknown job types are acknowledged to prevent redelivery.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) bool {
	startTime := time.Now()

	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		d.logger.Error().Err(fmt.Errorf("%w: %v", ErrMalformedMessage, err)).Msg("failed to parse message")
		return false
	}

	var err error
	switch msg.JobType {
	case JobTypeGridRefresh:
		err = d.handleGridRefresh(ctx)
	case JobTypeHealthCheck:
		err = d.handleHealthCheck(ctx)
	default:
		d.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return true
	}

	if err != nil {
		d.logger.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return false
	}

	d.logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}

func (d *Dispatcher) handleGridRefresh(ctx context.Context) error {
	if d.job == nil {
		return ErrNoProvider
	}

	result := d.job.Run(ctx)

	// Considered successful if more points produced a cell than failed.
	if result.Failed > result.Successful() {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalPoints)
	}
	return nil
}

func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	if d.job == nil {
		return ErrNoProvider
	}

	// Refresh the lattice origin only to verify provider connectivity.
	grid := d.job.Config()
	grid.MaxLat = grid.MinLat
	grid.MaxLon = grid.MinLon
	grid.Concurrency = 1

	probe := NewRefreshJob(RefreshJobConfig{
		Grid:   grid,
		Live:   d.job.live,
		Store:  d.job.store,
		Logger: d.logger,
	})

	result := probe.Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %s", result.Errors[0].Error)
	}

	d.logger.Debug().Msg("health check passed")
	return nil
}
