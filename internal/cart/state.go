package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is one product line of a session cart. Price is the snapshot taken
// when the entry was created; live pricing never overwrites it.
type Entry struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	AddedAt   time.Time       `json:"added_at"`
}

// State is the persisted form of a session cart. Entries keep insertion
// order and hold at most one entry per product.
type State struct {
	Entries   []Entry    `json:"entries"`
	CouponID  *uuid.UUID `json:"coupon_id,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewState returns an empty cart.
func NewState() *State {
	return &State{Entries: []Entry{}}
}

func (s *State) index(productID uuid.UUID) int {
	for i := range s.Entries {
		if s.Entries[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Entry returns the entry for productID, if present.
func (s *State) Entry(productID uuid.UUID) (Entry, bool) {
	if i := s.index(productID); i >= 0 {
		return s.Entries[i], true
	}
	return Entry{}, false
}

// Add creates the entry with the given snapshot when missing, then either sets
// the quantity (override) or applies the signed delta. An entry whose
// quantity reaches zero or below is removed.
func (s *State) Add(productID uuid.UUID, quantity int, price decimal.Decimal, override bool, now time.Time) {
	i := s.index(productID)
	if i < 0 {
		s.Entries = append(s.Entries, Entry{ProductID: productID, Price: price, AddedAt: now})
		i = len(s.Entries) - 1
	}
	if override {
		s.Entries[i].Quantity = quantity
	} else {
		s.Entries[i].Quantity += quantity
	}
	if s.Entries[i].Quantity <= 0 {
		s.Remove(productID)
	}
	s.UpdatedAt = now
}

// Remove deletes the entry for productID. Missing entries are ignored.
func (s *State) Remove(productID uuid.UUID) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
}

// Len is the total number of units across all entries.
func (s *State) Len() int {
	total := 0
	for _, e := range s.Entries {
		total += e.Quantity
	}
	return total
}

// Clear empties the cart and detaches the coupon.
func (s *State) Clear() {
	s.Entries = []Entry{}
	s.CouponID = nil
}

// ProductIDs lists product ids in entry order.
func (s *State) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Entries))
	for _, e := range s.Entries {
		ids = append(ids, e.ProductID)
	}
	return ids
}

// IsEmpty reports whether the cart has no entries.
func (s *State) IsEmpty() bool {
	return len(s.Entries) == 0
}
