package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlertNotFound = errors.New("alert not found")
	ErrEventNotFound = errors.New("alert event not found")
)

type AlertCondition string

const (
	ConditionAbove   AlertCondition = "above"
	ConditionBelow   AlertCondition = "below"
	ConditionBetween AlertCondition = "between"
	ConditionOutside AlertCondition = "outside"
)

const (
	ActionNotification = "notification"
	ActionWebhook      = "webhook"
	ActionCommand      = "command"
	ActionSound        = "sound"
	ActionEmail        = "email"
)

// Alert is a user-defined threshold rule. SensorPath matches canonical
// reading paths exactly, by "prefix*" wildcard, or universally with "*".
// LastTriggered and TriggerCount are mutated only by the evaluator.
type Alert struct {
	ID              string         `json:"id"`
	Name            string         `json:"name" validate:"required,min=1,max=120"`
	Enabled         bool           `json:"enabled"`
	SensorPath      string         `json:"sensor_path" validate:"required"`
	Condition       AlertCondition `json:"condition" validate:"required,oneof=above below between outside"`
	ThresholdMin    float64        `json:"threshold_min"`
	ThresholdMax    float64        `json:"threshold_max"`
	DurationSeconds int            `json:"duration_seconds" validate:"gte=0"`
	CooldownSeconds int            `json:"cooldown_seconds" validate:"gte=0"`
	Actions         []AlertAction  `json:"actions" validate:"dive"`
	LastTriggered   *time.Time     `json:"last_triggered,omitempty"`
	TriggerCount    int64          `json:"trigger_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type AlertAction struct {
	Type   string            `json:"type" validate:"required,oneof=notification webhook command sound email"`
	Config map[string]string `json:"config,omitempty"`
}

// AlertEvent is one firing of a rule. Append-only, capped history.
type AlertEvent struct {
	ID           string         `json:"id"`
	AlertID      string         `json:"alert_id"`
	AlertName    string         `json:"alert_name"`
	SensorPath   string         `json:"sensor_path"`
	Value        float64        `json:"value"`
	Threshold    float64        `json:"threshold"`
	Condition    AlertCondition `json:"condition"`
	Timestamp    time.Time      `json:"timestamp"`
	Acknowledged bool           `json:"acknowledged"`
}

// AlertRepository persists the rule set as a document collection keyed
// by id, plus the capped event history. Best-effort: callers log and
// continue on failure.
type AlertRepository interface {
	SaveAlert(ctx context.Context, alert *Alert) error
	DeleteAlert(ctx context.Context, id string) error
	LoadAlerts(ctx context.Context) ([]*Alert, error)
	SaveEvent(ctx context.Context, event *AlertEvent) error
	UpdateEvent(ctx context.Context, event *AlertEvent) error
	LoadEvents(ctx context.Context, limit int) ([]*AlertEvent, error)
}
