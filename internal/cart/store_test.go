package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"koperasi-storefront/internal/domain"
)

type failingSlot struct {
	writes int
}

func (f *failingSlot) Read(context.Context) ([]byte, error) { return nil, errors.New("unavailable") }

func (f *failingSlot) Write(context.Context, []byte) error {
	f.writes++
	return errors.New("quota exceeded")
}

func (f *failingSlot) Clear(context.Context) error { return errors.New("unavailable") }

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: price, Category: domain.CategoryHeavyMeal, IsAvailable: true}
}

func TestStoreAddAndSetQuantity(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, NewMemorySlots().Slot("k"), nil)

	s.Add(ctx, product("p1", 15000))
	s.Add(ctx, product("p1", 15000))
	s.Add(ctx, product("p2", 8000))

	if s.Len() != 2 || s.ItemCount() != 3 {
		t.Fatalf("unexpected cart len=%d items=%d", s.Len(), s.ItemCount())
	}
	if s.Total() != 38000 {
		t.Fatalf("expected total 38000, got %d", s.Total())
	}

	s.SetQuantity(ctx, "p2", -1)
	if s.Len() != 1 {
		t.Fatalf("line should be removed at zero, got %+v", s.Lines())
	}
	s.SetQuantity(ctx, "p1", -5)
	if s.Len() != 0 || s.Total() != 0 {
		t.Fatalf("line should be removed below zero, got %+v", s.Lines())
	}
	s.SetQuantity(ctx, "missing", 3)
	if s.Len() != 0 {
		t.Fatalf("unknown product must not create a line")
	}
}

func TestStoreAddKeepsCachedFields(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, NewMemorySlots().Slot("k"), nil)

	p := product("p1", 15000)
	s.Add(ctx, p)
	p.Price = 99000
	p.Name = "Renamed"
	s.Add(ctx, p)

	lines := s.Lines()
	if lines[0].Price != 15000 || lines[0].Name != "Product p1" || lines[0].Quantity != 2 {
		t.Fatalf("cached fields should come from the first add, got %+v", lines[0])
	}
}

func TestStoreRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	slots := NewMemorySlots()
	s := Load(ctx, slots.Slot("k"), nil)
	s.Add(ctx, product("p1", 1000))
	s.Add(ctx, product("p2", 2000))

	s.Remove(ctx, "p1")
	if s.Len() != 1 || s.Lines()[0].ProductID != "p2" {
		t.Fatalf("unexpected lines after remove %+v", s.Lines())
	}

	s.Clear(ctx)
	if s.Len() != 0 {
		t.Fatalf("expected empty cart")
	}
	data, _ := slots.Slot("k").Read(ctx)
	if data != nil {
		t.Fatalf("expected slot cleared, got %s", data)
	}
}

func TestStoreTotalsUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	s := Load(ctx, NewMemorySlots().Slot("k"), nil)
	prices := map[string]int64{"a": 1000, "b": 2500, "c": 15000, "d": 3000}
	ids := []string{"a", "b", "c", "d"}

	for i := 0; i < 2000; i++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(3) {
		case 0:
			s.Add(ctx, product(id, prices[id]))
		case 1:
			s.SetQuantity(ctx, id, rng.Intn(7)-3)
		case 2:
			if rng.Intn(5) == 0 {
				s.Remove(ctx, id)
			}
		}

		var want int64
		seen := map[string]bool{}
		for _, l := range s.Lines() {
			if l.Quantity <= 0 || l.Quantity > MaxLineQuantity {
				t.Fatalf("step %d: line %s has quantity %d", i, l.ProductID, l.Quantity)
			}
			if seen[l.ProductID] {
				t.Fatalf("step %d: duplicate line for %s", i, l.ProductID)
			}
			seen[l.ProductID] = true
			want += prices[l.ProductID] * int64(l.Quantity)
		}
		if got := s.Total(); got != want {
			t.Fatalf("step %d: total %d, want %d", i, got, want)
		}
	}
}

func TestStoreQuantityIsCapped(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, NewMemorySlots().Slot("k"), nil)
	s.Add(ctx, product("p1", 15000))

	s.SetQuantity(ctx, "p1", math.MaxInt)
	if s.Len() != 1 || s.Lines()[0].Quantity != MaxLineQuantity {
		t.Fatalf("huge delta should cap the line, got %+v", s.Lines())
	}

	s.SetQuantity(ctx, "p1", 1e15)
	if want := int64(15000 * MaxLineQuantity); s.Total() != want {
		t.Fatalf("total %d, want %d", s.Total(), want)
	}

	s.Add(ctx, product("p1", 15000))
	if s.Lines()[0].Quantity != MaxLineQuantity {
		t.Fatalf("add past the cap: quantity %d", s.Lines()[0].Quantity)
	}

	s.SetQuantity(ctx, "p1", math.MinInt)
	if s.Len() != 0 {
		t.Fatalf("huge negative delta should remove the line, got %+v", s.Lines())
	}
}

func TestStoreClearSubmittedKeepsLaterChanges(t *testing.T) {
	ctx := context.Background()
	slots := NewMemorySlots()
	checkout := Load(ctx, slots.Slot("k"), nil)
	checkout.Add(ctx, product("p1", 100))
	checkout.Add(ctx, product("p1", 100))
	submitted := checkout.Lines()

	tab := Load(ctx, slots.Slot("k"), nil)
	tab.Add(ctx, product("p1", 100))
	tab.Add(ctx, product("p2", 50))

	checkout.ClearSubmitted(ctx, submitted)
	want := []domain.CartLine{
		{ProductID: "p1", Name: "Product p1", Price: 100, Quantity: 1},
		{ProductID: "p2", Name: "Product p2", Price: 50, Quantity: 1},
	}
	if got := checkout.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("in-memory remainder %+v, want %+v", got, want)
	}
	if got := Load(ctx, slots.Slot("k"), nil).Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("persisted remainder %+v, want %+v", got, want)
	}

	checkout.ClearSubmitted(ctx, want)
	if checkout.Len() != 0 || Load(ctx, slots.Slot("k"), nil).Len() != 0 {
		t.Fatalf("cart should be empty once everything is submitted")
	}
}

func TestStoreRoundTripThroughSlot(t *testing.T) {
	ctx := context.Background()
	slots := NewMemorySlots()
	s := Load(ctx, slots.Slot("session-1"), nil)
	for i := 0; i < 5; i++ {
		s.Add(ctx, product(fmt.Sprintf("p%d", i%3), int64(1000*(i+1))))
	}
	s.SetQuantity(ctx, "p1", 4)

	reloaded := Load(ctx, slots.Slot("session-1"), nil)
	if !reflect.DeepEqual(s.Lines(), reloaded.Lines()) {
		t.Fatalf("reload mismatch:\n got %+v\nwant %+v", reloaded.Lines(), s.Lines())
	}
	if reloaded.Total() != s.Total() {
		t.Fatalf("total mismatch %d vs %d", reloaded.Total(), s.Total())
	}

	other := Load(ctx, slots.Slot("session-2"), nil)
	if other.Len() != 0 {
		t.Fatalf("sessions must not share carts")
	}
}

func TestLoadMalformedSnapshot(t *testing.T) {
	ctx := context.Background()
	slots := NewMemorySlots()
	_ = slots.Slot("k").Write(ctx, []byte(`{not json`))

	s := Load(ctx, slots.Slot("k"), nil)
	if s.Len() != 0 {
		t.Fatalf("malformed snapshot should load empty")
	}
}

func TestLoadNormalizesSnapshot(t *testing.T) {
	ctx := context.Background()
	slots := NewMemorySlots()
	raw := `[{"id":"p1","name":"A","price":100,"quantity":2},{"id":"p2","name":"B","price":50,"quantity":0},{"id":"p1","name":"A","price":100,"quantity":1}]`
	_ = slots.Slot("k").Write(ctx, []byte(raw))

	s := Load(ctx, slots.Slot("k"), nil)
	if s.Len() != 1 || s.Lines()[0].Quantity != 3 || s.Total() != 300 {
		t.Fatalf("unexpected normalized cart %+v", s.Lines())
	}
}

func TestLoadCapsSnapshotQuantity(t *testing.T) {
	ctx := context.Background()
	slots := NewMemorySlots()
	raw := `[{"id":"p1","name":"A","price":100,"quantity":1000000},{"id":"p2","name":"B","price":50,"quantity":60},{"id":"p2","name":"B","price":50,"quantity":60}]`
	_ = slots.Slot("k").Write(ctx, []byte(raw))

	s := Load(ctx, slots.Slot("k"), nil)
	for _, l := range s.Lines() {
		if l.Quantity != MaxLineQuantity {
			t.Fatalf("line %s quantity %d, want %d", l.ProductID, l.Quantity, MaxLineQuantity)
		}
	}
}

func TestStoreSlotFailuresAreBestEffort(t *testing.T) {
	ctx := context.Background()
	slot := &failingSlot{}
	s := Load(ctx, slot, nil)

	s.Add(ctx, product("p1", 500))
	s.SetQuantity(ctx, "p1", 1)
	s.Clear(ctx)

	if slot.writes != 2 {
		t.Fatalf("expected 2 write attempts, got %d", slot.writes)
	}
	if s.Len() != 0 {
		t.Fatalf("in-memory cart should still be cleared")
	}
}
