// Package cart holds a shopper's cart between page loads. A Store is loaded
// from a Slot once, mutated synchronously, and writes its full snapshot back
// to the slot after every change.
package cart

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"koperasi-storefront/internal/domain"
)

// Slot is the single durable location holding one serialized cart.
type Slot interface {
	// Read returns nil data when nothing has been stored yet.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// MaxLineQuantity caps the units of one product in a cart.
const MaxLineQuantity = 99

// Store is the in-memory cart for one session. It is not safe for concurrent
// use; each request loads its own Store.
type Store struct {
	slot   Slot
	logger *log.Logger
	lines  []domain.CartLine
}

// Load reads the snapshot from slot. A missing or unreadable snapshot yields an
// empty cart.
func Load(ctx context.Context, slot Slot, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Store{slot: slot, logger: logger}

	data, err := slot.Read(ctx)
	if err != nil {
		logger.Printf("cart: read snapshot error=%v", err)
		return s
	}
	if len(data) == 0 {
		return s
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		logger.Printf("cart: decode snapshot error=%v", err)
		return s
	}
	s.lines = normalize(lines)
	return s
}

// Add puts one unit of p in the cart, caching its name, price and image.
func (s *Store) Add(ctx context.Context, p domain.Product) {
	for i := range s.lines {
		if s.lines[i].ProductID == p.ID {
			if s.lines[i].Quantity >= MaxLineQuantity {
				return
			}
			s.lines[i].Quantity++
			s.persist(ctx)
			return
		}
	}
	s.lines = append(s.lines, domain.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Quantity:  1,
	})
	s.persist(ctx)
}

// SetQuantity adjusts a line by delta. A line whose quantity drops to zero or
// below is removed; growth stops at MaxLineQuantity. Unknown products are
// ignored.
func (s *Store) SetQuantity(ctx context.Context, productID string, delta int) {
	for i := range s.lines {
		if s.lines[i].ProductID != productID {
			continue
		}
		cur := s.lines[i].Quantity
		switch {
		case delta <= -cur:
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		case delta >= MaxLineQuantity-cur:
			s.lines[i].Quantity = MaxLineQuantity
		default:
			s.lines[i].Quantity = cur + delta
		}
		s.persist(ctx)
		return
	}
}

// Remove drops the line for productID.
func (s *Store) Remove(ctx context.Context, productID string) {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.persist(ctx)
			return
		}
	}
}

// Clear empties the cart and its slot.
func (s *Store) Clear(ctx context.Context) {
	s.lines = nil
	if err := s.slot.Clear(ctx); err != nil {
		s.logger.Printf("cart: clear snapshot error=%v", err)
	}
}

// ClearSubmitted removes the units of submitted from the cart after checkout.
// The slot is re-read first, so lines added by another request since Load
// survive. An unreadable slot is cleared outright.
func (s *Store) ClearSubmitted(ctx context.Context, submitted []domain.CartLine) {
	data, err := s.slot.Read(ctx)
	if err != nil {
		s.logger.Printf("cart: reread snapshot error=%v", err)
		s.Clear(ctx)
		return
	}
	var current []domain.CartLine
	if len(data) > 0 {
		if err := json.Unmarshal(data, &current); err != nil {
			s.logger.Printf("cart: decode snapshot error=%v", err)
			s.Clear(ctx)
			return
		}
	}
	taken := make(map[string]int, len(submitted))
	for _, l := range submitted {
		taken[l.ProductID] += l.Quantity
	}
	var rest []domain.CartLine
	for _, l := range normalize(current) {
		l.Quantity -= taken[l.ProductID]
		if l.Quantity > 0 {
			rest = append(rest, l)
		}
	}
	if len(rest) == 0 {
		s.Clear(ctx)
		return
	}
	s.lines = rest
	s.persist(ctx)
}

// Total is recomputed from the lines on every call.
func (s *Store) Total() int64 {
	var total int64
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

// ItemCount is the number of units across all lines.
func (s *Store) ItemCount() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Len is the number of lines.
func (s *Store) Len() int { return len(s.lines) }

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.Lines())
	if err != nil {
		s.logger.Printf("cart: encode snapshot error=%v", err)
		return
	}
	if err := s.slot.Write(ctx, data); err != nil {
		s.logger.Printf("cart: write snapshot error=%v", err)
	}
}

// normalize merges duplicate product lines, drops non-positive quantities and
// caps the rest so a hand-edited snapshot still yields a valid cart.
func normalize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			continue
		}
		if l.Quantity > MaxLineQuantity {
			l.Quantity = MaxLineQuantity
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity = min(out[i].Quantity+l.Quantity, MaxLineQuantity)
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}
