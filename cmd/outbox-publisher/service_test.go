package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/pkg/config"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox/payloads"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := newEvent(t, 0)
	second := newEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	svc := newTestService(t, repo, pub, nil)

	n, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows processed, got %d", n)
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("unexpected failed rows: %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("unexpected published rows: %v", repo.published)
	}
}

func TestPublishSetsAttributes(t *testing.T) {
	event := newEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	svc := newTestService(t, repo, pub, nil)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.messages))
	}
	attrs := pub.messages[0].Attributes
	if attrs["event_type"] != string(enums.EventOrderCreated) {
		t.Fatalf("unexpected event_type %q", attrs["event_type"])
	}
	if attrs["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id %q", attrs["aggregate_id"])
	}
	if attrs["event_id"] == "" {
		t.Fatal("event_id attribute missing")
	}
	if string(pub.messages[0].Data) != string(event.Payload) {
		t.Fatal("message body must be the stored envelope")
	}
}

func TestProcessBatchParksOnMaxAttempts(t *testing.T) {
	event := newEvent(t, defaultMaxAttempts-1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("still down")}}}
	svc := newTestService(t, repo, pub, nil)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row parked, got %v", repo.terminal)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("parked row must not also be marked failed")
	}
}

func TestProcessBatchParksUnresolvableRow(t *testing.T) {
	event := newEvent(t, 0)
	event.EventType = "order_teleported"
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub, nil)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(repo.terminal) != 1 {
		t.Fatalf("expected unresolvable row parked, got %v", repo.terminal)
	}
	if len(pub.messages) != 0 {
		t.Fatal("unresolvable row must not be published")
	}
}

func TestProcessBatchSkipsAlreadyClaimed(t *testing.T) {
	event := newEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	guard := &fakeGuard{claimed: map[uuid.UUID]bool{event.ID: true}}
	svc := newTestService(t, repo, pub, guard)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.messages) != 0 {
		t.Fatal("claimed row was published twice")
	}
	if len(repo.published) != 1 {
		t.Fatalf("claimed row should be marked published, got %v", repo.published)
	}
}

func TestProcessBatchReleasesClaimOnFailure(t *testing.T) {
	event := newEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("timeout")}}}
	guard := &fakeGuard{claimed: map[uuid.UUID]bool{}}
	svc := newTestService(t, repo, pub, guard)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if guard.claimed[event.ID] {
		t.Fatal("claim should be released after a failed publish")
	}
	if guard.released != 1 {
		t.Fatalf("expected one release, got %d", guard.released)
	}
}

func TestProcessBatchStopsOnStorageError(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	svc := newTestService(t, repo, &fakePublisher{}, nil)
	if _, err := svc.processBatch(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestNextBackoffCaps(t *testing.T) {
	base := 500 * time.Millisecond
	if got := nextBackoff(0, base, maxBackoff); got != time.Second {
		t.Fatalf("first backoff = %s", got)
	}
	if got := nextBackoff(8*time.Second, base, maxBackoff); got != maxBackoff {
		t.Fatalf("capped backoff = %s", got)
	}
	if got := withJitter(base); got < base || got >= base+jitterWindow {
		t.Fatalf("jitter out of window: %s", got)
	}
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher, guard publishGuard) *Service {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic"})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	params := ServiceParams{
		Logger:     logger.Nop(),
		Repository: repo,
		Registry:   reg,
		PublisherFactory: func(topic string) publisher {
			if topic != "orders-topic" {
				t.Fatalf("unexpected topic %q", topic)
			}
			return pub
		},
	}
	if guard != nil {
		params.Guard = guard
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func newEvent(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	orderID := uuid.New()
	data, err := json.Marshal(payloads.OrderCreatedEvent{OrderID: orderID})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       body,
		AttemptCount:  attempts,
	}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(context.Context, int, int) ([]models.OutboxEvent, error) {
	return f.events, f.fetchErr
}

func (f *fakeRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminal(_ context.Context, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return fakePublishResult{}
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

type fakeGuard struct {
	claimed  map[uuid.UUID]bool
	released int
}

func (f *fakeGuard) Claim(_ context.Context, _ string, id uuid.UUID) (bool, error) {
	if f.claimed[id] {
		return false, nil
	}
	f.claimed[id] = true
	return true, nil
}

func (f *fakeGuard) Release(_ context.Context, _ string, id uuid.UUID) error {
	delete(f.claimed, id)
	f.released++
	return nil
}
