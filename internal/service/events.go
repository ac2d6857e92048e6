package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Domain event subjects consumed by the external notification collaborator.
const (
	EventSubmissionSubmitted = "mentorloop.submission.submitted"
	EventSubmissionGraded    = "mentorloop.submission.graded"
	EventReviewSaved         = "mentorloop.review.saved"
)

// DomainEvent is the wire shape published to NATS. Delivery to end users is a
// downstream concern; publication failures never fail the originating request.
type DomainEvent struct {
	Subject    string                 `json:"subject"`
	EntityID   uint                   `json:"entity_id"`
	StudentID  uint                   `json:"student_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// EventPublisher emits domain events for external collaborators.
type EventPublisher interface {
	Publish(event DomainEvent)
}

type natsEventPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSEventPublisher wraps a NATS connection as an EventPublisher. A nil
// connection yields a publisher that drops events, which keeps tests and
// single-node deployments free of a broker requirement.
func NewNATSEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsEventPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(event DomainEvent) {
	if p.conn == nil {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("subject", event.Subject).Msg("failed to encode domain event")
		return
	}

	if err := p.conn.Publish(event.Subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", event.Subject).Msg("failed to publish domain event")
	}
}
