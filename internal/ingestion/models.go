package ingestion

import (
	"encoding/json"
	"time"

	"robot-dispatch/internal/usecase/fleet"
	"robot-dispatch/internal/usecase/robot"

	"github.com/google/uuid"
)

// Kind names the topic a message arrived on.
type Kind string

const (
	KindPhase  Kind = "phase"
	KindStatus Kind = "status"
)

// credentials is read from every payload; robots sign messages with the
// token they got from /robots/auth.
type credentials struct {
	Token string `json:"token"`
}

func parseToken(payload []byte) (string, error) {
	var c credentials
	if err := json.Unmarshal(payload, &c); err != nil {
		return "", err
	}
	return c.Token, nil
}

// PhaseMessage is the payload on <prefix>/robots/<id>/phase.
type PhaseMessage struct {
	OrderID   uuid.UUID `json:"order_id"`
	Phase     string    `json:"phase"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Message   *string   `json:"message"`
}

func (m *PhaseMessage) report() *fleet.PhaseReport {
	return &fleet.PhaseReport{
		Phase:     m.Phase,
		Timestamp: m.Timestamp,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Message:   m.Message,
	}
}

// Job is one decoded message waiting for a worker.
type Job struct {
	Kind       Kind
	RobotID    uuid.UUID
	Phase      *PhaseMessage
	Status     *robot.StatusReport
	ReceivedAt time.Time
}

// ParsePhaseMessage decodes a phase payload. A missing timestamp is
// replaced by now.
func ParsePhaseMessage(payload []byte, now time.Time) (*PhaseMessage, error) {
	var msg PhaseMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	return &msg, nil
}

func ParseStatusMessage(payload []byte) (*robot.StatusReport, error) {
	var msg robot.StatusReport
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
