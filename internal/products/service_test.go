package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stylebazaar/stylebazaar-backend/internal/pricing"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/dbtest"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

func decimalPtr(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(money.MustParse(v))
}

func TestServiceQuote(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	clock := func() time.Time { return time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC) }
	svc, err := NewService(repo, pricing.NewResolver(time.UTC, clock))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	p := seedProduct(t, db, "400", 2, &models.Promotion{
		DiscountType: enums.DiscountTypeFixed,
		Value:        money.MustParse("50"),
		StartDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		IsActive:     true,
	})

	quote, err := svc.Quote(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !quote.UnitPrice.Equal(money.MustParse("350")) {
		t.Fatalf("unexpected unit price %s", quote.UnitPrice)
	}
	if !quote.HasActivePromotion || !quote.Savings.Equal(money.MustParse("50")) {
		t.Fatalf("unexpected quote %+v", quote)
	}

	_, err = svc.Quote(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, pricing.NewResolver(nil, nil)); err == nil {
		t.Fatal("expected repository error")
	}
	if _, err := NewService(NewRepository(dbtest.New(t)), nil); err == nil {
		t.Fatal("expected resolver error")
	}
}
