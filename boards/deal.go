package boards

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"github.com/tichu-tools/pairs-server/models"
)

const cardsPerSeat = DeckSize / 4

var seatIndex = map[models.Seat]int{
	models.SeatNorth: 0,
	models.SeatEast:  1,
	models.SeatSouth: 2,
	models.SeatWest:  3,
}

// Deal is the card layout of one board: 14 cards per seat, the first eight
// of each slice being the cards a player picks up before calling Grand
// Tichu.
type Deal struct {
	BoardNo int
	Cards   []Card
}

type dealJSON struct {
	ID    int   `json:"id"`
	Cards []int `json:"cards"`
}

// NewDeal deals a full deck for the given board using the supplied source of
// randomness.
func NewDeal(boardNo int, rng *rand.Rand) Deal {
	cards := Deck()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return Deal{BoardNo: boardNo, Cards: cards}
}

// GenerateDeals deals every board of a tournament.
func GenerateDeals(noBoards int, rng *rand.Rand) []Deal {
	deals := make([]Deal, 0, noBoards)
	for boardNo := 1; boardNo <= noBoards; boardNo++ {
		deals = append(deals, NewDeal(boardNo, rng))
	}
	return deals
}

// Hand returns the seat's full 14 cards, highest order first.
func (d Deal) Hand(seat models.Seat) []Card {
	return d.slice(seat, cardsPerSeat)
}

// FirstEight returns the eight cards the seat picks up first, highest order
// first.
func (d Deal) FirstEight(seat models.Seat) []Card {
	return d.slice(seat, 8)
}

func (d Deal) slice(seat models.Seat, n int) []Card {
	i := seatIndex[seat] * cardsPerSeat
	out := make([]Card, n)
	copy(out, d.Cards[i:i+n])
	sort.Slice(out, func(a, b int) bool { return out[a].Order > out[b].Order })
	return out
}

// MarshalJSON serializes the deal as the board number plus card orders, the
// compact form deals are archived in.
func (d Deal) MarshalJSON() ([]byte, error) {
	orders := make([]int, len(d.Cards))
	for i, c := range d.Cards {
		orders[i] = c.Order
	}
	return json.Marshal(dealJSON{ID: d.BoardNo, Cards: orders})
}

func (d *Deal) UnmarshalJSON(data []byte) error {
	var raw dealJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Cards) != DeckSize {
		return fmt.Errorf("boards: deal for board %d has %d cards, want %d", raw.ID, len(raw.Cards), DeckSize)
	}
	cards := make([]Card, len(raw.Cards))
	for i, order := range raw.Cards {
		card, err := CardByOrder(order)
		if err != nil {
			return err
		}
		cards[i] = card
	}
	d.BoardNo = raw.ID
	d.Cards = cards
	return nil
}
