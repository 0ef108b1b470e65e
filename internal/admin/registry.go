package admin

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusUp      = "UP"
	StatusDown    = "DOWN"
	StatusOffline = "OFFLINE"
	StatusUnknown = "UNKNOWN"
)

type StatusInfo struct {
	Status  string
	Details map[string]any
}

// Instance is a monitored application known to the registry.
type Instance struct {
	ID           string
	Name         string
	ServiceURL   string
	HealthURL    string
	Status       StatusInfo
	RegisteredAt time.Time
}

type EventKind string

const (
	EventRegistered    EventKind = "registered"
	EventStatusChanged EventKind = "status_changed"
)

// Event is an immutable snapshot handed to notifiers. Previous and
// Current are only meaningful for status changes.
type Event struct {
	Kind     EventKind
	Instance Instance
	Previous StatusInfo
	Current  StatusInfo
}

// Notifier receives registry events. Delivery is fire-and-forget and
// at-most-once, a failing notifier never affects the registry.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	instances map[string]Instance
	notifiers []Notifier
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With(slog.String("component", "registry")),
		instances: make(map[string]Instance),
	}
}

func (r *Registry) Subscribe(notifiers ...Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers = append(r.notifiers, notifiers...)
}

// Register stores the instance with a fresh id and publishes a
// Registered event.
func (r *Registry) Register(inst Instance) Instance {
	inst.ID = uuid.NewString()
	inst.Status = StatusInfo{Status: StatusUnknown}
	inst.RegisteredAt = time.Now()

	r.mu.Lock()
	r.instances[inst.ID] = inst
	r.mu.Unlock()

	r.logger.Info("instance registered",
		slog.String("instance_id", inst.ID), slog.String("name", inst.Name))

	r.publish(Event{Kind: EventRegistered, Instance: inst})
	return inst
}

func (r *Registry) Deregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[id]; !ok {
		return false
	}
	delete(r.instances, id)
	return true
}

func (r *Registry) Get(id string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	return inst, ok
}

func (r *Registry) List() []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		result = append(result, inst)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// SetStatus records the instance's new status and publishes a
// StatusChanged event when it differs from the previous one.
func (r *Registry) SetStatus(id string, status StatusInfo) {
	r.mu.Lock()
	inst, ok := r.instances[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	previous := inst.Status
	inst.Status = status
	r.instances[id] = inst
	r.mu.Unlock()

	if previous.Status == status.Status {
		return
	}

	r.logger.Info("instance status changed",
		slog.String("instance_id", id),
		slog.String("name", inst.Name),
		slog.String("previous", previous.Status),
		slog.String("current", status.Status),
	)

	r.publish(Event{Kind: EventStatusChanged, Instance: inst, Previous: previous, Current: status})
}

func (r *Registry) publish(ev Event) {
	r.mu.RLock()
	notifiers := make([]Notifier, len(r.notifiers))
	copy(notifiers, r.notifiers)
	r.mu.RUnlock()

	for _, n := range notifiers {
		go func(n Notifier) {
			if err := n.Notify(context.Background(), ev); err != nil {
				r.logger.Error("notification delivery failed",
					slog.String("event", string(ev.Kind)),
					slog.String("instance", ev.Instance.Name),
					slog.Any("error", err),
				)
			}
		}(n)
	}
}
