package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who caused the event. System jobs use the "system" role
// with a nil id.
type ActorRef struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events and
// published as the message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
