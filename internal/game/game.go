package game

import (
	rand "math/rand/v2"

	"github.com/Anshuman71/salute/internal/deck"
)

// Join seats a player in the room, or reconnects an existing seat.
//
// If playerID already has a seat this is a rejoin: it is allowed in any
// phase, flips the seat back to connected and refreshes the display name.
// New players are only admitted while the room is waiting and below the
// player cap. The returned bool reports whether this was a rejoin.
func (s *State) Join(playerName, playerID string) (*Player, bool, error) {
	if existing := s.FindPlayer(playerID); existing != nil {
		existing.IsConnected = true
		existing.Name = playerName
		return existing, true, nil
	}

	if s.RoundPhase != PhaseWaiting {
		return nil, false, ErrAlreadyStarted
	}
	if len(s.Players) >= s.Settings.MaxPlayers {
		return nil, false, ErrRoomFull
	}

	player := &Player{
		ID:          playerID,
		Name:        playerName,
		Hand:        []deck.Card{},
		IsConnected: true,
	}
	s.Players = append(s.Players, player)
	return player, false, nil
}

// UpdateSettings replaces the room settings. Host only, waiting phase only.
func (s *State) UpdateSettings(playerID string, settings RoomSettings) error {
	if playerID != s.HostPlayerID {
		return ErrNotHost
	}
	if s.RoundPhase != PhaseWaiting {
		return ErrAlreadyStarted
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	s.Settings = settings
	s.TotalRounds = settings.TotalRounds
	s.CardsPerRound = settings.TotalRounds
	return nil
}

// Start begins round 1. Host only, at least two players required.
func (s *State) Start(playerID string, rng *rand.Rand) error {
	if playerID != s.HostPlayerID {
		return ErrNotHost
	}
	if s.RoundPhase != PhaseWaiting {
		return ErrAlreadyStarted
	}
	if len(s.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	s.dealRound(1, rng)
	return nil
}

// dealRound builds a fresh shuffled deck sized for the player count, deals
// the round's hands plus the face-up card, and resets the turn machine.
func (s *State) dealRound(round int, rng *rand.Rand) {
	cardsPerRound := deck.RoundSequence(s.TotalRounds)[round-1]
	cards := deck.Shuffle(deck.NewGameDeck(len(s.Players), rng), rng)
	remaining, hands, faceUp := deck.Deal(cards, len(s.Players), cardsPerRound)

	for i, p := range s.Players {
		p.Hand = hands[i]
	}
	s.Deck = remaining
	s.DiscardPile = []deck.Card{}
	if faceUp != nil {
		s.DiscardPile = append(s.DiscardPile, *faceUp)
	}
	s.CurrentRound = round
	s.CardsPerRound = cardsPerRound
	s.RoundPhase = PhasePlaying
	s.TurnPhase = TurnPlay
	s.CurrentPlayerIndex = 0
	s.TurnsPlayedThisRound = 0
	s.LastPlayerWhoPlayed = ""
	s.LastPlayedCards = []deck.Card{}
}

// PlayCards removes the selected cards from the current player's hand and
// holds them as the pending play. The cards stay visible in
// LastPlayedCards until the draw step merges them into the discard pile.
// Multi-card plays must all share one rank.
func (s *State) PlayCards(playerID string, cardIDs []string) error {
	player := s.FindPlayer(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	if s.RoundPhase != PhasePlaying {
		return ErrNotPlaying
	}
	if s.CurrentPlayer().ID != playerID {
		return ErrNotYourTurn
	}
	if s.TurnPhase != TurnPlay {
		return ErrNotPlayPhase
	}
	if len(cardIDs) == 0 {
		return ErrNoCardsSelected
	}

	wanted := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		wanted[id] = true
	}

	toPlay := make([]deck.Card, 0, len(cardIDs))
	for _, c := range player.Hand {
		if wanted[c.ID] {
			toPlay = append(toPlay, c)
		}
	}
	if len(toPlay) != len(wanted) {
		return ErrCardsNotInHand
	}
	for _, c := range toPlay[1:] {
		if c.Rank != toPlay[0].Rank {
			return ErrMismatchedRanks
		}
	}

	kept := make([]deck.Card, 0, len(player.Hand)-len(toPlay))
	for _, c := range player.Hand {
		if !wanted[c.ID] {
			kept = append(kept, c)
		}
	}
	player.Hand = kept
	s.LastPlayedCards = toPlay
	s.TurnPhase = TurnDraw
	return nil
}

// Draw completes the current player's turn: draw exactly one card from the
// chosen source, merge the pending play onto the discard pile, and pass the
// turn to the next seat.
func (s *State) Draw(playerID string, source DrawSource) error {
	player := s.FindPlayer(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	if s.RoundPhase != PhasePlaying {
		return ErrNotPlaying
	}
	if s.CurrentPlayer().ID != playerID {
		return ErrNotYourTurn
	}
	if s.TurnPhase != TurnDraw {
		return ErrNotDrawPhase
	}

	var drawn deck.Card
	switch source {
	case DrawDeck:
		if len(s.Deck) == 0 {
			return ErrDeckEmpty
		}
		drawn = s.Deck[0]
		s.Deck = s.Deck[1:]
	case DrawDiscard:
		if len(s.DiscardPile) == 0 {
			return ErrDiscardEmpty
		}
		drawn = s.DiscardPile[len(s.DiscardPile)-1]
		s.DiscardPile = s.DiscardPile[:len(s.DiscardPile)-1]
	default:
		return ErrInvalidDrawSource
	}

	player.Hand = append(player.Hand, drawn)
	s.DiscardPile = append(s.DiscardPile, s.LastPlayedCards...)
	s.LastPlayedCards = []deck.Card{}

	s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % len(s.Players)
	s.TurnPhase = TurnPlay
	s.TurnsPlayedThisRound++
	s.LastPlayerWhoPlayed = playerID
	return nil
}

// CallWin ends the round and scores all hands. A call is only valid once
// every player has completed at least one full turn this round, and never by
// the player who just finished the most recent turn. The lowest hand score
// wins the round; tieBreak decides shared minimums.
func (s *State) CallWin(playerID string, tieBreak TieBreak) error {
	caller := s.FindPlayer(playerID)
	if caller == nil {
		return ErrPlayerNotFound
	}
	if s.RoundPhase != PhasePlaying {
		return ErrNotPlaying
	}
	if s.TurnsPlayedThisRound < len(s.Players) {
		return ErrCallTooEarly
	}
	if playerID == s.LastPlayerWhoPlayed {
		return ErrCallAfterOwnTurn
	}

	minScore := deck.HandScore(s.Players[0].Hand)
	for _, p := range s.Players[1:] {
		if score := deck.HandScore(p.Hand); score < minScore {
			minScore = score
		}
	}

	var tied []*Player
	for _, p := range s.Players {
		if deck.HandScore(p.Hand) == minScore {
			tied = append(tied, p)
		}
	}

	winner := tied[0]
	if len(tied) > 1 && tieBreak == TieBreakOpponent {
		for _, p := range tied {
			if p.ID != caller.ID {
				winner = p
				break
			}
		}
	}
	if len(tied) > 1 && tieBreak == TieBreakCaller {
		for _, p := range tied {
			if p.ID == caller.ID {
				winner = p
				break
			}
		}
	}
	winner.RoundsWon++

	if s.CurrentRound >= len(deck.RoundSequence(s.TotalRounds)) {
		s.finish()
		return nil
	}
	s.RoundPhase = PhaseScoring
	return nil
}

// NextRound advances from scoring to the next round, or finishes the game
// when the round sequence is exhausted.
func (s *State) NextRound(rng *rand.Rand) error {
	if s.RoundPhase != PhaseScoring {
		return ErrNotScoringPhase
	}

	next := s.CurrentRound + 1
	if next > len(deck.RoundSequence(s.TotalRounds)) {
		s.finish()
		return nil
	}
	s.dealRound(next, rng)
	return nil
}

// finish marks the game over and picks the overall winner: most rounds won,
// ties broken by seat order.
func (s *State) finish() {
	winner := s.Players[0]
	for _, p := range s.Players[1:] {
		if p.RoundsWon > winner.RoundsWon {
			winner = p
		}
	}
	s.GameWinner = winner
	s.RoundPhase = PhaseFinished
}

// MarkDisconnected flags a seat as disconnected without vacating it, so the
// player can rejoin later with the same ID. The turn is deliberately not
// advanced when the disconnected player was current; see DESIGN.md.
func (s *State) MarkDisconnected(playerID string) bool {
	player := s.FindPlayer(playerID)
	if player == nil {
		return false
	}
	player.IsConnected = false
	return true
}
