package deck

import "fmt"

// Suit represents a card suit. The string values are the wire format.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists all suits in deck construction order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Rank represents a card rank. Aces are low in this game.
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Ranks lists all ranks in ascending value order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var rankValues = map[Rank]int{
	Ace: 1, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 11, Queen: 12, King: 13,
}

// Value returns the numeric value of a rank (A=1 .. K=13).
func (r Rank) Value() int {
	return rankValues[r]
}

// Card represents a single playing card. Identity is ID; duplicate
// rank/suit combinations are legal once extra decks are in play.
type Card struct {
	ID    string `json:"id"`
	Suit  Suit   `json:"suit"`
	Rank  Rank   `json:"rank"`
	Value int    `json:"value"`
}

// String returns a short human-readable form, e.g. "A-hearts".
func (c Card) String() string {
	return fmt.Sprintf("%s-%s", c.Rank, c.Suit)
}
