package game

import (
	"fmt"

	"github.com/Anshuman71/salute/internal/deck"
)

// Placeholder cards carry a fixed sentinel suit/rank and a zero value so a
// leaked placeholder can never be scored as a real card. IDs are prefixed so
// they can never collide with real card IDs ("deck1-", "extraN-").
const (
	hiddenSuit  = deck.Spades
	hiddenRank  = deck.Ace
	hiddenValue = 0
)

// SanitizedFor returns a deep copy of the state safe to send to playerID:
// deck contents and opponents' hands are replaced by placeholders that
// preserve only the count. During scoring and when the game is finished all
// hands are revealed for the score breakdown. The recipient's own hand is
// always real.
func (s *State) SanitizedFor(playerID string) *State {
	showAllHands := s.RoundPhase == PhaseScoring || s.RoundPhase == PhaseFinished

	out := *s

	out.Deck = make([]deck.Card, len(s.Deck))
	for i := range s.Deck {
		out.Deck[i] = hiddenCard(fmt.Sprintf("deck-hidden-%d", i))
	}

	out.DiscardPile = append([]deck.Card(nil), s.DiscardPile...)
	out.LastPlayedCards = append([]deck.Card(nil), s.LastPlayedCards...)

	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		if p.ID == playerID || showAllHands {
			cp.Hand = append([]deck.Card(nil), p.Hand...)
		} else {
			cp.Hand = make([]deck.Card, len(p.Hand))
			for j := range p.Hand {
				cp.Hand[j] = hiddenCard(fmt.Sprintf("hidden-%s-%d", p.ID, j))
			}
		}
		out.Players[i] = &cp
	}

	if s.GameWinner != nil {
		for i, p := range s.Players {
			if p.ID == s.GameWinner.ID {
				out.GameWinner = out.Players[i]
				break
			}
		}
	}

	return &out
}

func hiddenCard(id string) deck.Card {
	return deck.Card{ID: id, Suit: hiddenSuit, Rank: hiddenRank, Value: hiddenValue}
}
