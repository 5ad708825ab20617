package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/dbtest"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox/payloads"
)

func TestServiceEmitWritesEnvelope(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	svc := NewService(repo, logger.Nop())
	orderID := uuid.New()
	actorID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{ID: actorID, Role: "buyer"},
			Data:          payloads.OrderCreatedEvent{OrderID: orderID, GrandTotal: "950.00"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, orderID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, envelope.Actor.ID)

	var payload payloads.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "950.00", payload.GrandTotal)
}

func TestServiceEmitRollsBackWithTransaction(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          payloads.OrderPaidEvent{},
		}))
		return assert.AnError
	})

	rows, err := repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestServiceEmitValidates(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	assert.Error(t, svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPaid}))

	db := dbtest.New(t)
	assert.Error(t, svc.Emit(context.Background(), db, DomainEvent{EventType: "unknown", AggregateID: uuid.New()}))
	assert.ErrorIs(t, svc.Emit(context.Background(), db, DomainEvent{EventType: enums.EventOrderPaid}), errAggregateRequired)
	assert.Error(t, svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: "cart",
		AggregateID:   uuid.New(),
	}))
}

func TestServiceEmitFillsAggregateType(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	orderID := uuid.New()

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:   enums.EventOrderStatusChanged,
			AggregateID: orderID,
			Data:        payloads.OrderStatusChangedEvent{OrderID: orderID},
		})
	}))

	rows, err := repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.AggregateOrder, rows[0].AggregateType)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()

	insert := func() models.OutboxEvent {
		row := models.OutboxEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{"version":1,"data":{}}`),
		}
		require.NoError(t, repo.Insert(db, row))
		var stored models.OutboxEvent
		require.NoError(t, db.Where("aggregate_id = ?", row.AggregateID).First(&stored).Error)
		return stored
	}
	published := insert()
	failing := insert()

	require.NoError(t, repo.MarkPublished(ctx, published.ID))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkFailed(ctx, failing.ID, assert.AnError))
	}

	pending, err := repo.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, failing.ID, pending[0].ID)
	assert.Equal(t, 3, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)

	exhausted, err := repo.FetchUnpublished(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, exhausted)

	deleted, err := repo.DeletePublishedBefore(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestRepositoryMarkTerminalHidesRow(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := models.OutboxEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1,"data":null}`),
	}
	require.NoError(t, repo.Insert(db, row))
	var stored models.OutboxEvent
	require.NoError(t, db.Where("aggregate_id = ?", row.AggregateID).First(&stored).Error)

	require.NoError(t, repo.MarkTerminal(ctx, stored.ID, assert.AnError, 10))

	visible, err := repo.FetchUnpublished(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, visible)

	require.NoError(t, db.First(&stored, "id = ?", stored.ID).Error)
	assert.Equal(t, 10, stored.AttemptCount)
	assert.Nil(t, stored.PublishedAt)
}
