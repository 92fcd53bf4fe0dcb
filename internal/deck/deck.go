// Package deck provides the pure card primitives for Salute: deck
// construction, shuffling, dealing, hand scoring and the per-game round
// sequence. Nothing here holds state; the game coordinator owns all of it.
package deck

import (
	"fmt"
	rand "math/rand/v2"
)

// StandardDeckSize is the number of cards in one full deck.
const StandardDeckSize = 52

// ExtraCardsPerPlayer is how many cards each player beyond the second
// adds to the game deck.
const ExtraCardsPerPlayer = 26

// standardDeck builds one 52-card deck. The prefix keeps card IDs unique
// when several decks are mixed into a single game.
func standardDeck(idPrefix string) []Card {
	cards := make([]Card, 0, StandardDeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{
				ID:    fmt.Sprintf("%s%s-%s", idPrefix, suit, rank),
				Suit:  suit,
				Rank:  rank,
				Value: rank.Value(),
			})
		}
	}
	return cards
}

// NewGameDeck builds the deck for a game of numPlayers. Two players share a
// single standard deck; each additional player contributes 26 cards sampled
// without replacement from a fresh extra deck, so IDs stay unique while
// rank/suit duplicates become possible.
func NewGameDeck(numPlayers int, rng *rand.Rand) []Card {
	cards := standardDeck("deck1-")
	for i := 0; i < numPlayers-2; i++ {
		extra := Shuffle(standardDeck(fmt.Sprintf("extra%d-", i+1)), rng)
		cards = append(cards, extra[:ExtraCardsPerPlayer]...)
	}
	return cards
}

// Shuffle returns a uniformly shuffled copy of cards. The input is not
// mutated.
func Shuffle(cards []Card, rng *rand.Rand) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Deal deals cardsPerPlayer cards round-robin (one at a time to each player
// in order) from the front of the deck, then pops one more card to seed the
// discard pile. faceUp is nil if the deck ran dry first. The input deck is
// not mutated.
func Deal(cards []Card, numPlayers, cardsPerPlayer int) (remaining []Card, hands [][]Card, faceUp *Card) {
	hands = make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, cardsPerPlayer)
	}

	pos := 0
	for n := 0; n < cardsPerPlayer; n++ {
		for p := 0; p < numPlayers; p++ {
			if pos >= len(cards) {
				break
			}
			hands[p] = append(hands[p], cards[pos])
			pos++
		}
	}

	if pos < len(cards) {
		card := cards[pos]
		faceUp = &card
		pos++
	}

	remaining = make([]Card, len(cards)-pos)
	copy(remaining, cards[pos:])
	return remaining, hands, faceUp
}

// HandScore sums the card values in a hand. Nines score zero; there are no
// other reductions.
func HandScore(hand []Card) int {
	score := 0
	for _, c := range hand {
		if c.Rank == Nine {
			continue
		}
		score += c.Value
	}
	return score
}

// RoundSequence returns the per-round hand sizes for a game of totalRounds:
// descend from totalRounds to 2, then ascend from 3 back up. For X=5 that is
// [5 4 3 2 3 4 5], always 2X-3 rounds.
func RoundSequence(totalRounds int) []int {
	seq := make([]int, 0, 2*totalRounds-3)
	for cards := totalRounds; cards >= 2; cards-- {
		seq = append(seq, cards)
	}
	for cards := 3; cards <= totalRounds; cards++ {
		seq = append(seq, cards)
	}
	return seq
}
