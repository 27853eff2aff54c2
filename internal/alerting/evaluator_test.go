package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

type memRepo struct {
	mu     sync.Mutex
	alerts map[string]*domain.Alert
	events []*domain.AlertEvent
}

func newMemRepo() *memRepo {
	return &memRepo{alerts: make(map[string]*domain.Alert)}
}

func (r *memRepo) SaveAlert(_ context.Context, a *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.alerts[a.ID] = &copied
	return nil
}

func (r *memRepo) DeleteAlert(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alerts[id]; !ok {
		return domain.ErrAlertNotFound
	}
	delete(r.alerts, id)
	return nil
}

func (r *memRepo) LoadAlerts(_ context.Context) ([]*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memRepo) SaveEvent(_ context.Context, ev *domain.AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ev
	r.events = append(r.events, &copied)
	return nil
}

func (r *memRepo) UpdateEvent(_ context.Context, ev *domain.AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.events {
		if existing.ID == ev.ID {
			copied := *ev
			r.events[i] = &copied
			return nil
		}
	}
	return domain.ErrEventNotFound
}

func (r *memRepo) LoadEvents(_ context.Context, limit int) ([]*domain.AlertEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AlertEvent, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *r.events[i]
		out = append(out, &copied)
	}
	return out, nil
}

func testEvaluator(t *testing.T) (*Evaluator, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	log := logger.NewNop()
	return NewEvaluator(repo, NewDispatcher(log), nil, 100, log), repo
}

func reading(path string, value float64) domain.SensorReading {
	return domain.SensorReading{Name: path, Type: domain.SensorTemperature, Value: value, Source: path, RecordedAt: time.Now()}
}

func mustCreate(t *testing.T, e *Evaluator, alert *domain.Alert) *domain.Alert {
	t.Helper()
	if err := e.Create(context.Background(), alert); err != nil {
		t.Fatalf("create: %v", err)
	}
	return alert
}

func TestConditionBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		condition domain.AlertCondition
		min, max  float64
		value     float64
		want      bool
	}{
		{"above exceeds", domain.ConditionAbove, 0, 80, 80.1, true},
		{"above at threshold", domain.ConditionAbove, 0, 80, 80, false},
		{"below under", domain.ConditionBelow, 10, 0, 9.9, true},
		{"below at threshold", domain.ConditionBelow, 10, 0, 10, false},
		{"between inside", domain.ConditionBetween, 20, 40, 30, true},
		{"between at min", domain.ConditionBetween, 20, 40, 20, true},
		{"between at max", domain.ConditionBetween, 20, 40, 40, true},
		{"between outside", domain.ConditionBetween, 20, 40, 41, false},
		{"outside below", domain.ConditionOutside, 20, 40, 19, true},
		{"outside at min", domain.ConditionOutside, 20, 40, 20, false},
		{"outside at max", domain.ConditionOutside, 20, 40, 40, false},
		{"outside above", domain.ConditionOutside, 20, 40, 40.5, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			alert := &domain.Alert{Condition: tc.condition, ThresholdMin: tc.min, ThresholdMax: tc.max}
			if got := conditionMet(alert, tc.value); got != tc.want {
				t.Errorf("conditionMet(%s, %v) = %v, want %v", tc.condition, tc.value, got, tc.want)
			}
		})
	}
}

func TestMatchPath(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"*", "cpu.temperature", true},
		{"cpu.temperature", "cpu.temperature", true},
		{"cpu.temperature", "cpu.load", false},
		{"cpu.*", "cpu.temperature", true},
		{"cpu.*", "gpu.0.temperature", false},
		{"gpu.*", "gpu.1.load", true},
		{"", "", true},
		{"", "cpu.load", false},
	}

	for _, tc := range cases {
		if got := MatchPath(tc.pattern, tc.path); got != tc.want {
			t.Errorf("MatchPath(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
		}
	}
}

func TestCooldownGate(t *testing.T) {
	e, _ := testEvaluator(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	e.now = func() time.Time { return clock }

	mustCreate(t, e, &domain.Alert{
		Name:            "cpu hot",
		Enabled:         true,
		SensorPath:      "cpu.temperature",
		Condition:       domain.ConditionAbove,
		ThresholdMax:    80,
		CooldownSeconds: 60,
	})

	steps := []struct {
		offset time.Duration
		value  float64
	}{
		{0, 70},
		{1 * time.Second, 85},
		{2 * time.Second, 86},
		{3 * time.Second, 60},
		{65 * time.Second, 90},
	}

	for _, step := range steps {
		clock = base.Add(step.offset)
		e.Evaluate([]domain.SensorReading{reading("cpu.temperature", step.value)})
	}

	events := e.Events(0)
	if len(events) != 2 {
		t.Fatalf("fired %d times, want 2", len(events))
	}
	// Newest first: the second fire at +65s, the first at +1s.
	if !events[0].Timestamp.Equal(base.Add(65 * time.Second)) {
		t.Errorf("second fire at %v, want %v", events[0].Timestamp, base.Add(65*time.Second))
	}
	if !events[1].Timestamp.Equal(base.Add(1 * time.Second)) {
		t.Errorf("first fire at %v, want %v", events[1].Timestamp, base.Add(1*time.Second))
	}
}

func TestNoDoubleFireWithinBatch(t *testing.T) {
	e, _ := testEvaluator(t)

	mustCreate(t, e, &domain.Alert{
		Name:            "any gpu hot",
		Enabled:         true,
		SensorPath:      "gpu.*",
		Condition:       domain.ConditionAbove,
		ThresholdMax:    90,
		CooldownSeconds: 60,
	})

	e.Evaluate([]domain.SensorReading{
		reading("gpu.0.temperature", 95),
		reading("gpu.1.temperature", 97),
	})

	if events := e.Events(0); len(events) != 1 {
		t.Fatalf("fired %d times within one batch, want 1", len(events))
	}
}

func TestDisabledAlertNeverFires(t *testing.T) {
	e, _ := testEvaluator(t)

	alert := mustCreate(t, e, &domain.Alert{
		Name:         "disabled",
		Enabled:      false,
		SensorPath:   "cpu.load",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 10,
	})

	e.Evaluate([]domain.SensorReading{reading("cpu.load", 99)})

	if events := e.Events(0); len(events) != 0 {
		t.Fatalf("disabled alert fired %d times", len(events))
	}

	got, err := e.Get(alert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TriggerCount != 0 || got.LastTriggered != nil {
		t.Error("disabled alert accumulated trigger state")
	}
}

func TestMalformedReadingsSkipped(t *testing.T) {
	e, _ := testEvaluator(t)

	mustCreate(t, e, &domain.Alert{
		Name:         "wide open",
		Enabled:      true,
		SensorPath:   "*",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 0,
	})

	e.Evaluate([]domain.SensorReading{
		reading("cpu.load", math.NaN()),
		reading("cpu.power", math.Inf(1)),
		reading("cpu.temperature", math.Inf(-1)),
	})

	if events := e.Events(0); len(events) != 0 {
		t.Fatalf("malformed readings fired %d events", len(events))
	}
}

func TestFireUpdatesTriggerState(t *testing.T) {
	e, repo := testEvaluator(t)

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }

	alert := mustCreate(t, e, &domain.Alert{
		Name:            "fan dead",
		Enabled:         true,
		SensorPath:      "gpu.0.fan",
		Condition:       domain.ConditionBelow,
		ThresholdMin:    200,
		CooldownSeconds: 0,
	})

	e.Evaluate([]domain.SensorReading{reading("gpu.0.fan", 0)})
	clock = clock.Add(time.Second)
	e.Evaluate([]domain.SensorReading{reading("gpu.0.fan", 0)})

	got, err := e.Get(alert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TriggerCount != 2 {
		t.Errorf("trigger count = %d, want 2", got.TriggerCount)
	}
	if got.LastTriggered == nil || !got.LastTriggered.Equal(clock) {
		t.Errorf("last triggered = %v, want %v", got.LastTriggered, clock)
	}

	events := e.Events(0)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Threshold != 200 || events[0].Condition != domain.ConditionBelow {
		t.Errorf("event threshold/condition wrong: %+v", events[0])
	}

	// Persistence runs off the evaluation path; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for {
		repo.mu.Lock()
		persisted := len(repo.events)
		repo.mu.Unlock()
		if persisted == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("persisted %d events, want 2", persisted)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// marshalingRepo reads the saved event through json.Marshal the way
// the sqlite repository does, continuously, until released.
type marshalingRepo struct {
	*memRepo
	started sync.Once
	saving  chan struct{}
	release chan struct{}
	doc     atomic.Value
}

func (r *marshalingRepo) SaveEvent(_ context.Context, ev *domain.AlertEvent) error {
	r.started.Do(func() { close(r.saving) })

	for {
		select {
		case <-r.release:
			b, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			r.doc.Store(b)
			return nil
		default:
			if _, err := json.Marshal(ev); err != nil {
				return err
			}
		}
	}
}

func TestAcknowledgeDuringDispatch(t *testing.T) {
	repo := &marshalingRepo{
		memRepo: newMemRepo(),
		saving:  make(chan struct{}),
		release: make(chan struct{}),
	}
	log := logger.NewNop()
	e := NewEvaluator(repo, NewDispatcher(log), nil, 100, log)

	mustCreate(t, e, &domain.Alert{
		Name:         "racy",
		Enabled:      true,
		SensorPath:   "cpu.load",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 10,
	})

	e.Evaluate([]domain.SensorReading{reading("cpu.load", 99)})

	select {
	case <-repo.saving:
	case <-time.After(2 * time.Second):
		t.Fatal("event persistence never started")
	}

	// Acknowledge while the persistence goroutine is still marshaling.
	events := e.Events(0)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if _, err := e.Acknowledge(context.Background(), events[0].ID); err != nil {
		t.Fatal(err)
	}

	close(repo.release)

	deadline := time.Now().Add(2 * time.Second)
	for repo.doc.Load() == nil {
		if time.Now().After(deadline) {
			t.Fatal("event persistence never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Dispatch holds its own copy taken at fire time, so the persisted
	// document predates the acknowledgement.
	var persisted domain.AlertEvent
	if err := json.Unmarshal(repo.doc.Load().([]byte), &persisted); err != nil {
		t.Fatal(err)
	}
	if persisted.Acknowledged {
		t.Error("dispatch copy observed a later acknowledgement")
	}

	// The ring entry itself carries the acknowledgement.
	if got := e.Events(0); !got[0].Acknowledged {
		t.Error("ring entry lost the acknowledgement")
	}
}

func TestValidationRejectsBadRules(t *testing.T) {
	e, _ := testEvaluator(t)

	cases := []struct {
		name  string
		alert *domain.Alert
	}{
		{"missing name", &domain.Alert{SensorPath: "cpu.load", Condition: domain.ConditionAbove}},
		{"missing path", &domain.Alert{Name: "x", Condition: domain.ConditionAbove}},
		{"bad condition", &domain.Alert{Name: "x", SensorPath: "cpu.load", Condition: "sideways"}},
		{"negative cooldown", &domain.Alert{Name: "x", SensorPath: "cpu.load", Condition: domain.ConditionAbove, CooldownSeconds: -1}},
		{"between min above max", &domain.Alert{Name: "x", SensorPath: "cpu.load", Condition: domain.ConditionBetween, ThresholdMin: 50, ThresholdMax: 10}},
		{"bad action type", &domain.Alert{Name: "x", SensorPath: "cpu.load", Condition: domain.ConditionAbove, Actions: []domain.AlertAction{{Type: "carrier_pigeon"}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Create(context.Background(), tc.alert)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCRUDLifecycle(t *testing.T) {
	e, repo := testEvaluator(t)

	alert := mustCreate(t, e, &domain.Alert{
		Name:         "mem pressure",
		Enabled:      true,
		SensorPath:   "memory.load",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 90,
	})
	if alert.ID == "" {
		t.Fatal("create did not assign an id")
	}

	updated, err := e.Update(context.Background(), alert.ID, &domain.Alert{
		Name:         "mem pressure high",
		Enabled:      true,
		SensorPath:   "memory.load",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 95,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "mem pressure high" || updated.ThresholdMax != 95 {
		t.Errorf("update not applied: %+v", updated)
	}

	disabled, err := e.SetEnabled(context.Background(), alert.ID, false)
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	if disabled.Enabled {
		t.Error("alert still enabled")
	}

	if err := e.Delete(context.Background(), alert.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.Get(alert.ID); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Errorf("get after delete = %v, want ErrAlertNotFound", err)
	}
	if err := e.Delete(context.Background(), alert.ID); !errors.Is(err, domain.ErrAlertNotFound) {
		t.Errorf("second delete = %v, want ErrAlertNotFound", err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.alerts) != 0 {
		t.Error("delete did not reach the repository")
	}
}

func TestUpdatePreservesTriggerState(t *testing.T) {
	e, _ := testEvaluator(t)

	alert := mustCreate(t, e, &domain.Alert{
		Name:         "disk full",
		Enabled:      true,
		SensorPath:   "disk.0.used_percent",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 90,
	})

	e.Evaluate([]domain.SensorReading{reading("disk.0.used_percent", 97)})

	updated, err := e.Update(context.Background(), alert.ID, &domain.Alert{
		Name:         "disk full",
		Enabled:      true,
		SensorPath:   "disk.0.used_percent",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 95,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.TriggerCount != 1 || updated.LastTriggered == nil {
		t.Errorf("trigger state lost on update: count=%d last=%v", updated.TriggerCount, updated.LastTriggered)
	}
}

func TestListOrderedByCreation(t *testing.T) {
	e, _ := testEvaluator(t)

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }

	for i, name := range []string{"first", "second", "third"} {
		clock = clock.Add(time.Duration(i) * time.Minute)
		mustCreate(t, e, &domain.Alert{
			Name:         name,
			SensorPath:   "cpu.load",
			Condition:    domain.ConditionAbove,
			ThresholdMax: 50,
		})
	}

	list := e.List()
	if len(list) != 3 {
		t.Fatalf("got %d alerts, want 3", len(list))
	}
	for i, want := range []string{"first", "second", "third"} {
		if list[i].Name != want {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Name, want)
		}
	}
}

func TestRestoreLoadsPersistedState(t *testing.T) {
	repo := newMemRepo()
	log := logger.NewNop()

	fired := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	repo.alerts["a1"] = &domain.Alert{
		ID:              "a1",
		Name:            "restored",
		Enabled:         true,
		SensorPath:      "cpu.temperature",
		Condition:       domain.ConditionAbove,
		ThresholdMax:    80,
		CooldownSeconds: 3600,
		LastTriggered:   &fired,
		TriggerCount:    4,
	}
	repo.events = []*domain.AlertEvent{
		{ID: "ev1", AlertID: "a1", Timestamp: fired},
	}

	e := NewEvaluator(repo, NewDispatcher(log), nil, 100, log)
	e.now = func() time.Time { return fired.Add(10 * time.Minute) }

	if err := e.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}

	got, err := e.Get("a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TriggerCount != 4 {
		t.Errorf("trigger count = %d, want 4", got.TriggerCount)
	}

	// The restored LastTriggered seeds the cooldown gate.
	e.Evaluate([]domain.SensorReading{reading("cpu.temperature", 99)})
	if events := e.Events(0); len(events) != 1 || events[0].ID != "ev1" {
		t.Errorf("cooldown not honored across restore: %d events", len(events))
	}
}

func TestAcknowledgeEvent(t *testing.T) {
	e, _ := testEvaluator(t)

	mustCreate(t, e, &domain.Alert{
		Name:         "ack me",
		Enabled:      true,
		SensorPath:   "cpu.load",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 10,
	})
	e.Evaluate([]domain.SensorReading{reading("cpu.load", 50)})

	events := e.Events(0)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	acked, err := e.Acknowledge(context.Background(), events[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !acked.Acknowledged {
		t.Error("event not marked acknowledged")
	}

	if _, err := e.Acknowledge(context.Background(), "nope"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("unknown event = %v, want ErrEventNotFound", err)
	}
}

func TestEventRingCap(t *testing.T) {
	repo := newMemRepo()
	log := logger.NewNop()
	e := NewEvaluator(repo, NewDispatcher(log), nil, 5, log)

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }

	mustCreate(t, e, &domain.Alert{
		Name:         "chatty",
		Enabled:      true,
		SensorPath:   "cpu.load",
		Condition:    domain.ConditionAbove,
		ThresholdMax: 10,
	})

	for i := 0; i < 12; i++ {
		clock = clock.Add(time.Minute)
		e.Evaluate([]domain.SensorReading{reading("cpu.load", 99)})
	}

	events := e.Events(0)
	if len(events) != 5 {
		t.Fatalf("ring holds %d events, want 5", len(events))
	}
	// Newest first, so the head carries the final clock value.
	if !events[0].Timestamp.Equal(clock) {
		t.Errorf("newest event at %v, want %v", events[0].Timestamp, clock)
	}
}
