package boards

import (
	"fmt"
	"sort"
)

// Suit is one of the four Tichu colors plus the marker for the four special
// cards.
type Suit string

const (
	SuitPagoda   Suit = "pagoda"
	SuitJade     Suit = "jade"
	SuitFalchion Suit = "falchion"
	SuitStar     Suit = "star"
	SuitSpecial  Suit = "special"
)

var suitValues = map[Suit]int{
	SuitPagoda:   0,
	SuitJade:     1,
	SuitFalchion: 2,
	SuitStar:     3,
}

// Card is a single card of the 56-card Tichu deck. Order is unique per card
// and doubles as its serialized form.
type Card struct {
	Suit  Suit   `json:"suit"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

// DeckSize is the number of cards in a Tichu deck: four suits of thirteen
// plus the dog, the mahjong, the phoenix and the dragon.
const DeckSize = 56

var (
	deck    []Card
	byOrder [DeckSize]Card
)

func init() {
	for suit, value := range suitValues {
		offset := value + 2
		for rank := 2; rank <= 10; rank++ {
			deck = append(deck, Card{suit, fmt.Sprintf("%d", rank), 4*(rank-2) + offset})
		}
		deck = append(deck, Card{suit, "J", 4*9 + offset})
		deck = append(deck, Card{suit, "Q", 4*10 + offset})
		deck = append(deck, Card{suit, "K", 4*11 + offset})
		deck = append(deck, Card{suit, "A", 4*12 + offset})
	}
	deck = append(deck,
		Card{SuitSpecial, "Dog", 0},
		Card{SuitSpecial, "1", 1},
		Card{SuitSpecial, "Phoenix", 54},
		Card{SuitSpecial, "Dragon", 55},
	)
	sort.Slice(deck, func(i, j int) bool { return deck[i].Order < deck[j].Order })
	for _, c := range deck {
		byOrder[c.Order] = c
	}
}

// Deck returns a fresh copy of all 56 cards, sorted by order.
func Deck() []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	return out
}

// CardByOrder resolves a serialized card order back to the card.
func CardByOrder(order int) (Card, error) {
	if order < 0 || order >= DeckSize {
		return Card{}, fmt.Errorf("boards: card order %d out of range", order)
	}
	return byOrder[order], nil
}
