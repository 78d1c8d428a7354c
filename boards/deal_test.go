package boards

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/tichu-tools/pairs-server/models"
)

func TestDeckHasAllOrders(t *testing.T) {
	deck := Deck()
	if len(deck) != DeckSize {
		t.Fatalf("deck has %d cards, want %d", len(deck), DeckSize)
	}
	seen := make(map[int]bool, DeckSize)
	for _, c := range deck {
		if c.Order < 0 || c.Order >= DeckSize {
			t.Fatalf("card order %d out of range", c.Order)
		}
		if seen[c.Order] {
			t.Fatalf("duplicate card order %d", c.Order)
		}
		seen[c.Order] = true
	}
}

func TestNewDealIsReproducible(t *testing.T) {
	a := NewDeal(1, rand.New(rand.NewSource(42)))
	b := NewDeal(1, rand.New(rand.NewSource(42)))
	for i := range a.Cards {
		if a.Cards[i] != b.Cards[i] {
			t.Fatalf("deals from the same seed differ at card %d", i)
		}
	}
}

func TestDealHands(t *testing.T) {
	deal := NewDeal(1, rand.New(rand.NewSource(7)))

	seen := make(map[int]bool, DeckSize)
	for _, seat := range []models.Seat{
		models.SeatNorth, models.SeatEast, models.SeatSouth, models.SeatWest,
	} {
		hand := deal.Hand(seat)
		if len(hand) != 14 {
			t.Fatalf("%s holds %d cards, want 14", seat, len(hand))
		}
		for i := 1; i < len(hand); i++ {
			if hand[i].Order > hand[i-1].Order {
				t.Fatalf("%s hand not sorted highest first", seat)
			}
		}
		for _, c := range hand {
			if seen[c.Order] {
				t.Fatalf("card order %d dealt to two seats", c.Order)
			}
			seen[c.Order] = true
		}

		// The first eight are a subset of the seat's full hand.
		first := deal.FirstEight(seat)
		if len(first) != 8 {
			t.Fatalf("%s first-eight has %d cards", seat, len(first))
		}
		inHand := make(map[int]bool, len(hand))
		for _, c := range hand {
			inHand[c.Order] = true
		}
		for _, c := range first {
			if !inHand[c.Order] {
				t.Fatalf("first-eight card %d not in %s's hand", c.Order, seat)
			}
		}
	}
	if len(seen) != DeckSize {
		t.Fatalf("dealt %d distinct cards, want %d", len(seen), DeckSize)
	}
}

func TestDealJSONRoundTrip(t *testing.T) {
	deal := NewDeal(3, rand.New(rand.NewSource(11)))

	data, err := json.Marshal(deal)
	if err != nil {
		t.Fatalf("marshal: %+v", err)
	}

	var decoded Deal
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %+v", err)
	}
	if decoded.BoardNo != 3 {
		t.Fatalf("board number = %d, want 3", decoded.BoardNo)
	}
	for i := range deal.Cards {
		if decoded.Cards[i] != deal.Cards[i] {
			t.Fatalf("card %d changed in round trip", i)
		}
	}

	if err := json.Unmarshal([]byte(`{"id":1,"cards":[0,1,2]}`), &decoded); err == nil {
		t.Fatalf("short deal accepted")
	}
}
