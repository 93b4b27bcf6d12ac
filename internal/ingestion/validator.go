package ingestion

import (
	"fmt"
	"strings"

	domainUser "robot-dispatch/internal/domain/user"
	"robot-dispatch/internal/geo"
	"robot-dispatch/pkg/utils"

	"github.com/google/uuid"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// ParseTopic splits <prefix>/robots/<id>/<kind> into the robot id and kind.
func ParseTopic(prefix, topic string) (uuid.UUID, Kind, error) {
	rest, ok := strings.CutPrefix(topic, strings.TrimSuffix(prefix, "/")+"/robots/")
	if !ok {
		return uuid.Nil, "", &ValidationError{Field: "topic", Message: "topic is outside " + prefix + "/robots"}
	}
	rawID, rawKind, ok := strings.Cut(rest, "/")
	if !ok || strings.Contains(rawKind, "/") {
		return uuid.Nil, "", &ValidationError{Field: "topic", Message: "topic must be <prefix>/robots/<id>/<kind>"}
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", &ValidationError{Field: "robot_id", Message: "robot id must be valid UUID"}
	}

	switch kind := Kind(rawKind); kind {
	case KindPhase, KindStatus:
		return id, kind, nil
	default:
		return uuid.Nil, "", &ValidationError{Field: "topic", Message: "unknown message kind " + rawKind}
	}
}

// ValidatePhaseMessage checks the envelope only; phase names and order
// ownership are judged by the fleet service.
func ValidatePhaseMessage(msg *PhaseMessage) error {
	if msg.OrderID == uuid.Nil {
		return &ValidationError{Field: "order_id", Message: "order_id is required"}
	}
	if strings.TrimSpace(msg.Phase) == "" {
		return &ValidationError{Field: "phase", Message: "phase is required"}
	}
	if (msg.Latitude == nil) != (msg.Longitude == nil) {
		return &ValidationError{Field: "latitude", Message: "latitude and longitude must be provided together"}
	}
	if msg.Latitude != nil {
		if err := geo.ValidateCoordinates(*msg.Latitude, *msg.Longitude); err != nil {
			return &ValidationError{Field: "latitude", Message: err.Error()}
		}
	}
	return nil
}

// AuthenticateRobot checks that token is a robot token issued for robotID.
func AuthenticateRobot(token, secret string, robotID uuid.UUID) error {
	if token == "" {
		return &ValidationError{Field: "token", Message: "robot token is required"}
	}
	claims, err := utils.ValidateToken(token, secret)
	if err != nil {
		return &ValidationError{Field: "token", Message: "invalid robot token"}
	}
	if claims.Role != domainUser.RoleRobot || claims.RobotID == nil || *claims.RobotID != robotID {
		return &ValidationError{Field: "token", Message: "token does not belong to robot " + robotID.String()}
	}
	return nil
}
