package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

func TestStateAddAccumulatesAndOverrides(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	state := NewState()
	id := uuid.New()

	state.Add(id, 2, money.MustParse("10"), false, now)
	state.Add(id, 3, money.MustParse("99"), false, now)
	entry, ok := state.Entry(id)
	if !ok || entry.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %+v", entry)
	}
	if !entry.Price.Equal(money.MustParse("10")) {
		t.Fatalf("snapshot must not change on later adds, got %s", entry.Price)
	}

	state.Add(id, 1, money.MustParse("10"), true, now)
	if entry, _ := state.Entry(id); entry.Quantity != 1 {
		t.Fatalf("override should set quantity to 1, got %d", entry.Quantity)
	}
}

func TestStateAddRemovesAtZeroOrBelow(t *testing.T) {
	state := NewState()
	id := uuid.New()
	state.Add(id, 2, money.MustParse("10"), false, time.Now())
	state.Add(id, -5, money.MustParse("10"), false, time.Now())
	if _, ok := state.Entry(id); ok {
		t.Fatal("entry should be removed once quantity drops to zero or below")
	}

	state.Add(id, 3, money.MustParse("10"), false, time.Now())
	state.Add(id, 0, money.MustParse("10"), true, time.Now())
	if !state.IsEmpty() {
		t.Fatal("override to zero should remove the entry")
	}
}

func TestStateAddZeroIsNoop(t *testing.T) {
	state := NewState()
	existing := uuid.New()
	state.Add(existing, 4, money.MustParse("10"), false, time.Now())

	state.Add(existing, 0, money.MustParse("10"), false, time.Now())
	state.Add(uuid.New(), 0, money.MustParse("10"), false, time.Now())

	if len(state.Entries) != 1 || state.Len() != 4 {
		t.Fatalf("zero adds must not change the cart, got %+v", state.Entries)
	}
}

func TestStateRemoveMissingIsNoop(t *testing.T) {
	state := NewState()
	id := uuid.New()
	state.Add(id, 1, money.MustParse("10"), false, time.Now())
	state.Remove(uuid.New())
	if state.Len() != 1 {
		t.Fatalf("removing an unknown product changed the cart: %+v", state.Entries)
	}
}

func TestStateKeepsInsertionOrderAndCountsUnits(t *testing.T) {
	state := NewState()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	state.Add(a, 1, money.MustParse("1"), false, time.Now())
	state.Add(b, 2, money.MustParse("1"), false, time.Now())
	state.Add(c, 3, money.MustParse("1"), false, time.Now())
	state.Remove(b)

	ids := state.ProductIDs()
	if len(ids) != 2 || ids[0] != a || ids[1] != c {
		t.Fatalf("unexpected order %v", ids)
	}
	if state.Len() != 4 {
		t.Fatalf("expected 4 units, got %d", state.Len())
	}

	couponID := uuid.New()
	state.CouponID = &couponID
	state.Clear()
	if !state.IsEmpty() || state.CouponID != nil {
		t.Fatal("clear must empty entries and detach the coupon")
	}
}
