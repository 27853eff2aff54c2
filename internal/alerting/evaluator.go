// Package alerting matches incoming reading batches against the
// user-defined rule set and fires cooldown-gated events.
package alerting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

type Evaluator struct {
	repo       domain.AlertRepository
	dispatcher *Dispatcher
	broadcast  func(channel string, payload any)
	log        logger.Logger

	// mu guards rules, events, and the cooldown gate together so a
	// single evaluation pass checks and updates them atomically.
	mu       sync.Mutex
	alerts   map[string]*domain.Alert
	events   []*domain.AlertEvent
	eventCap int
	lastFire map[string]time.Time

	now func() time.Time
}

func NewEvaluator(repo domain.AlertRepository, dispatcher *Dispatcher, broadcast func(channel string, payload any), eventCap int, log logger.Logger) *Evaluator {
	return &Evaluator{
		repo:       repo,
		dispatcher: dispatcher,
		broadcast:  broadcast,
		log:        log,
		alerts:     make(map[string]*domain.Alert),
		eventCap:   eventCap,
		lastFire:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// Restore loads the persisted rule set and recent event history.
func (e *Evaluator) Restore(ctx context.Context) error {
	alerts, err := e.repo.LoadAlerts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load alerts: %w", err)
	}

	events, err := e.repo.LoadEvents(ctx, e.eventCap)
	if err != nil {
		return fmt.Errorf("failed to load alert events: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, alert := range alerts {
		e.alerts[alert.ID] = alert
		if alert.LastTriggered != nil {
			e.lastFire[alert.ID] = *alert.LastTriggered
		}
	}

	// LoadEvents returns newest first; the in-memory ring keeps
	// newest last.
	for i := len(events) - 1; i >= 0; i-- {
		e.events = append(e.events, events[i])
	}

	e.log.Info("alerting: state restored", "alerts", len(alerts), "events", len(events))
	return nil
}

// Evaluate runs one reading batch through every enabled rule. The
// cooldown gate is checked and advanced under the same lock, so two
// matching readings inside one batch cannot double-fire a rule.
func (e *Evaluator) Evaluate(readings []domain.SensorReading) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	for _, reading := range readings {
		if math.IsNaN(reading.Value) || math.IsInf(reading.Value, 0) {
			e.log.Warn("alerting: skipping malformed reading", "path", reading.Source, "value", reading.Value)
			continue
		}

		for _, alert := range e.alerts {
			if !alert.Enabled || !MatchPath(alert.SensorPath, reading.Source) {
				continue
			}
			if !conditionMet(alert, reading.Value) {
				continue
			}

			cooldown := time.Duration(alert.CooldownSeconds) * time.Second
			if last, ok := e.lastFire[alert.ID]; ok && now.Sub(last) < cooldown {
				continue
			}

			e.fire(alert, reading, now)
		}
	}
}

// fire is called with e.mu held.
func (e *Evaluator) fire(alert *domain.Alert, reading domain.SensorReading, now time.Time) {
	e.lastFire[alert.ID] = now
	alert.LastTriggered = &now
	alert.TriggerCount++

	event := &domain.AlertEvent{
		ID:         uuid.NewString(),
		AlertID:    alert.ID,
		AlertName:  alert.Name,
		SensorPath: reading.Source,
		Value:      reading.Value,
		Threshold:  firedThreshold(alert),
		Condition:  alert.Condition,
		Timestamp:  now,
	}

	e.events = append(e.events, event)
	if len(e.events) > e.eventCap {
		e.events = e.events[len(e.events)-e.eventCap:]
	}

	e.log.Info("alerting: rule fired",
		"alert", alert.Name,
		"path", reading.Source,
		"value", reading.Value,
		"condition", alert.Condition,
		"trigger_count", alert.TriggerCount,
	)

	// Persistence and action dispatch run off the evaluation path so a
	// slow webhook cannot stall the pipeline. The goroutine works on
	// copies: the ring entry may be acknowledged while dispatch is
	// still in flight.
	alertCopy := *alert
	eventCopy := *event
	actions := append([]domain.AlertAction(nil), alert.Actions...)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := e.repo.SaveAlert(ctx, &alertCopy); err != nil {
			e.log.Error("alerting: failed to persist fired alert", "alert_id", alertCopy.ID, "error", err)
		}
		if err := e.repo.SaveEvent(ctx, &eventCopy); err != nil {
			e.log.Error("alerting: failed to persist alert event", "event_id", eventCopy.ID, "error", err)
		}

		if e.broadcast != nil {
			e.broadcast(domain.WsChannelAlerts, &eventCopy)
		}

		for _, action := range actions {
			if err := e.dispatcher.Dispatch(ctx, action, &eventCopy); err != nil {
				e.log.Error("alerting: action dispatch failed",
					"alert_id", alertCopy.ID,
					"action", action.Type,
					"error", err,
				)
			}
		}
	}()
}

func firedThreshold(alert *domain.Alert) float64 {
	if alert.Condition == domain.ConditionBelow {
		return alert.ThresholdMin
	}
	return alert.ThresholdMax
}

func conditionMet(alert *domain.Alert, value float64) bool {
	switch alert.Condition {
	case domain.ConditionAbove:
		return value > alert.ThresholdMax
	case domain.ConditionBelow:
		return value < alert.ThresholdMin
	case domain.ConditionBetween:
		return value >= alert.ThresholdMin && value <= alert.ThresholdMax
	case domain.ConditionOutside:
		return value < alert.ThresholdMin || value > alert.ThresholdMax
	}
	return false
}

// MatchPath matches a rule pattern against a canonical path: exact,
// "prefix*" wildcard, or the universal "*".
func MatchPath(pattern, path string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == path
}

// Create validates and stores a new rule, persisting it immediately.
func (e *Evaluator) Create(ctx context.Context, alert *domain.Alert) error {
	if err := validateAlert(alert); err != nil {
		return err
	}

	now := e.now()
	alert.ID = uuid.NewString()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	alert.LastTriggered = nil
	alert.TriggerCount = 0

	if err := e.repo.SaveAlert(ctx, alert); err != nil {
		return err
	}

	e.mu.Lock()
	e.alerts[alert.ID] = alert
	e.mu.Unlock()

	e.log.Info("alerting: rule created", "alert_id", alert.ID, "name", alert.Name)
	return nil
}

// Update replaces the user-editable fields of an existing rule. The
// evaluator-owned trigger state is preserved.
func (e *Evaluator) Update(ctx context.Context, id string, updated *domain.Alert) (*domain.Alert, error) {
	if err := validateAlert(updated); err != nil {
		return nil, err
	}

	e.mu.Lock()
	current, ok := e.alerts[id]
	if !ok {
		e.mu.Unlock()
		return nil, domain.ErrAlertNotFound
	}

	current.Name = updated.Name
	current.Enabled = updated.Enabled
	current.SensorPath = updated.SensorPath
	current.Condition = updated.Condition
	current.ThresholdMin = updated.ThresholdMin
	current.ThresholdMax = updated.ThresholdMax
	current.DurationSeconds = updated.DurationSeconds
	current.CooldownSeconds = updated.CooldownSeconds
	current.Actions = updated.Actions
	current.UpdatedAt = e.now()

	persisted := *current
	e.mu.Unlock()

	if err := e.repo.SaveAlert(ctx, &persisted); err != nil {
		return nil, err
	}

	return &persisted, nil
}

func (e *Evaluator) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	_, ok := e.alerts[id]
	if ok {
		delete(e.alerts, id)
		delete(e.lastFire, id)
	}
	e.mu.Unlock()

	if !ok {
		return domain.ErrAlertNotFound
	}

	return e.repo.DeleteAlert(ctx, id)
}

func (e *Evaluator) SetEnabled(ctx context.Context, id string, enabled bool) (*domain.Alert, error) {
	e.mu.Lock()
	alert, ok := e.alerts[id]
	if !ok {
		e.mu.Unlock()
		return nil, domain.ErrAlertNotFound
	}

	alert.Enabled = enabled
	alert.UpdatedAt = e.now()
	persisted := *alert
	e.mu.Unlock()

	if err := e.repo.SaveAlert(ctx, &persisted); err != nil {
		return nil, err
	}

	return &persisted, nil
}

func (e *Evaluator) Get(id string) (*domain.Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.alerts[id]
	if !ok {
		return nil, domain.ErrAlertNotFound
	}

	copied := *alert
	return &copied, nil
}

// List returns the rule set ordered by creation time.
func (e *Evaluator) List() []*domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*domain.Alert, 0, len(e.alerts))
	for _, alert := range e.alerts {
		copied := *alert
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

// Events returns the most recent fired events, newest first.
func (e *Evaluator) Events(limit int) []*domain.AlertEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.events)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*domain.AlertEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		copied := *e.events[i]
		out = append(out, &copied)
	}

	return out
}

func (e *Evaluator) Acknowledge(ctx context.Context, eventID string) (*domain.AlertEvent, error) {
	e.mu.Lock()
	var found *domain.AlertEvent
	for _, event := range e.events {
		if event.ID == eventID {
			event.Acknowledged = true
			copied := *event
			found = &copied
			break
		}
	}
	e.mu.Unlock()

	if found == nil {
		return nil, domain.ErrEventNotFound
	}

	if err := e.repo.UpdateEvent(ctx, found); err != nil {
		e.log.Warn("alerting: failed to persist acknowledgement", "event_id", eventID, "error", err)
	}

	return found, nil
}
