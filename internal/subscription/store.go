package subscription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/mpramodhpe/oneview-redfish-toolkit/subscription"

// errFileFormat is returned when the persistence file is not valid YAML.
var errFileFormat = fmt.Errorf("invalid subscription file format")

// Store is an insertion-ordered set of subscriptions, optionally persisted to a YAML file.
type Store struct {
	// Log is the logger to be used by the store.
	Log logr.Logger

	// FilePath is where subscriptions are persisted. Empty keeps them in memory only.
	FilePath string

	mu    sync.RWMutex // protects order and items
	order []string
	items map[string]Subscription

	newID func() string
}

// NewStore creates a store and loads any subscriptions already persisted at path.
func NewStore(l logr.Logger, path string) (*Store, error) {
	s := &Store{
		Log:      l,
		FilePath: path,
		items:    make(map[string]Subscription),
		newID:    func() string { return uuid.NewString() },
	}

	if path == "" {
		return s, nil
	}

	d, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	var subs []Subscription
	if err := yaml.Unmarshal(d, &subs); err != nil {
		return nil, fmt.Errorf("%w: %w", err, errFileFormat)
	}
	for _, sub := range subs {
		if sub.ID == "" {
			return nil, fmt.Errorf("%w: subscription without id", errFileFormat)
		}
		if _, dup := s.items[sub.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate subscription id %s", errFileFormat, sub.ID)
		}
		s.order = append(s.order, sub.ID)
		s.items[sub.ID] = sub
	}
	s.Log.Info("loaded subscriptions", "file", path, "count", len(subs))

	return s, nil
}

// All returns every subscription in the order they were added.
func (s *Store) All(ctx context.Context) ([]Subscription, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "subscription.All")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot(), nil
}

// Get returns the subscription with the given id.
func (s *Store) Get(ctx context.Context, id string) (Subscription, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "subscription.Get")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.items[id]
	if !ok {
		span.SetStatus(codes.Error, ErrNotFound.Error())
		return Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(sub), nil
}

// Add validates req and stores it under a new id.
func (s *Store) Add(ctx context.Context, req Request) (Subscription, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "subscription.Add")
	defer span.End()

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Subscription{}, err
	}

	sub := Subscription{
		Destination: req.Destination,
		EventTypes:  slices.Clone(req.EventTypes),
		Context:     req.Context,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = s.newID()
	s.order = append(s.order, sub.ID)
	s.items[sub.ID] = sub

	if err := s.persist(); err != nil {
		s.order = s.order[:len(s.order)-1]
		delete(s.items, sub.ID)
		span.SetStatus(codes.Error, err.Error())
		return Subscription{}, err
	}

	s.Log.Info("subscription added", "id", sub.ID, "destination", sub.Destination)
	span.SetStatus(codes.Ok, "")

	return clone(sub), nil
}

// Delete removes the subscription with the given id and returns it.
func (s *Store) Delete(ctx context.Context, id string) (Subscription, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "subscription.Delete")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.items[id]
	if !ok {
		span.SetStatus(codes.Error, ErrNotFound.Error())
		return Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	i := slices.Index(s.order, id)
	prevOrder := slices.Clone(s.order)
	s.order = slices.Delete(s.order, i, i+1)
	delete(s.items, id)

	if err := s.persist(); err != nil {
		s.order = prevOrder
		s.items[id] = sub
		span.SetStatus(codes.Error, err.Error())
		return Subscription{}, err
	}

	s.Log.Info("subscription deleted", "id", id)
	span.SetStatus(codes.Ok, "")

	return sub, nil
}

// snapshot must be called with mu held.
func (s *Store) snapshot() []Subscription {
	out := make([]Subscription, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.items[id]))
	}
	return out
}

// persist must be called with mu held for writing.
func (s *Store) persist() error {
	if s.FilePath == "" {
		return nil
	}

	d, err := yaml.Marshal(s.snapshot())
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.FilePath), ".subscriptions-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(d); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.FilePath)
}

func clone(s Subscription) Subscription {
	s.EventTypes = slices.Clone(s.EventTypes)
	return s
}
