package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anshuman71/salute/internal/deck"
	"github.com/Anshuman71/salute/internal/randutil"
)

func testSettings() RoomSettings {
	return RoomSettings{TotalRounds: 3, MaxPlayers: MaxPlayers}
}

// newStartedGame returns a two-player game in round 1 (3 cards each).
func newStartedGame(t *testing.T) *State {
	t.Helper()
	s := NewState("ABC234", "Alice", "p1", testSettings(), time.Unix(1700000000, 0))
	_, _, err := s.Join("Bob", "p2")
	require.NoError(t, err)
	require.NoError(t, s.Start("p1", randutil.New(1)))
	return s
}

// totalCards counts every card in play for the conservation invariant.
func totalCards(s *State) int {
	n := len(s.Deck) + len(s.DiscardPile) + len(s.LastPlayedCards)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

func TestNewState(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := NewState("ABC234", "Alice", "p1", testSettings(), now)

	assert.Equal(t, PhaseWaiting, s.RoundPhase)
	assert.Equal(t, TurnPlay, s.TurnPhase)
	assert.Equal(t, "p1", s.HostPlayerID)
	assert.Equal(t, now, s.CreatedAt)
	require.Len(t, s.Players, 1)
	assert.Equal(t, "Alice", s.Players[0].Name)
	assert.True(t, s.Players[0].IsConnected)
	assert.Equal(t, 3, s.TotalRounds)
}

func TestJoinNewPlayer(t *testing.T) {
	s := NewState("ABC234", "Alice", "p1", testSettings(), time.Unix(0, 0))

	player, rejoined, err := s.Join("Bob", "p2")
	require.NoError(t, err)
	assert.False(t, rejoined)
	assert.Equal(t, "p2", player.ID)
	assert.Len(t, s.Players, 2)
}

func TestJoinAfterStartRejected(t *testing.T) {
	s := newStartedGame(t)

	_, _, err := s.Join("Carol", "p3")
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Len(t, s.Players, 2)
}

func TestRejoinAllowedInAnyPhase(t *testing.T) {
	s := newStartedGame(t)
	s.Players[1].IsConnected = false

	player, rejoined, err := s.Join("Bobby", "p2")
	require.NoError(t, err)
	assert.True(t, rejoined)
	assert.True(t, player.IsConnected)
	assert.Equal(t, "Bobby", player.Name, "rejoin refreshes the display name")
	assert.Len(t, s.Players, 2, "rejoin must not add a seat")
}

func TestJoinRoomFull(t *testing.T) {
	s := NewState("ABC234", "Alice", "p1", testSettings(), time.Unix(0, 0))
	for i := 2; i <= MaxPlayers; i++ {
		_, _, err := s.Join("Player", fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}

	_, _, err := s.Join("Late", "late")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestUpdateSettings(t *testing.T) {
	s := NewState("ABC234", "Alice", "p1", testSettings(), time.Unix(0, 0))
	s.Join("Bob", "p2")

	t.Run("non-host rejected", func(t *testing.T) {
		err := s.UpdateSettings("p2", RoomSettings{TotalRounds: 7, MaxPlayers: MaxPlayers})
		assert.ErrorIs(t, err, ErrNotHost)
	})

	t.Run("invalid rounds rejected", func(t *testing.T) {
		err := s.UpdateSettings("p1", RoomSettings{TotalRounds: 13, MaxPlayers: MaxPlayers})
		assert.ErrorIs(t, err, ErrInvalidSettings)
	})

	t.Run("host updates while waiting", func(t *testing.T) {
		err := s.UpdateSettings("p1", RoomSettings{TotalRounds: 7, MaxPlayers: MaxPlayers})
		require.NoError(t, err)
		assert.Equal(t, 7, s.TotalRounds)
		assert.Equal(t, 7, s.CardsPerRound)
	})

	t.Run("rejected after start", func(t *testing.T) {
		require.NoError(t, s.UpdateSettings("p1", testSettings()))
		require.NoError(t, s.Start("p1", randutil.New(1)))
		err := s.UpdateSettings("p1", RoomSettings{TotalRounds: 5, MaxPlayers: MaxPlayers})
		assert.ErrorIs(t, err, ErrAlreadyStarted)
	})
}

func TestStartValidation(t *testing.T) {
	s := NewState("ABC234", "Alice", "p1", testSettings(), time.Unix(0, 0))

	assert.ErrorIs(t, s.Start("p1", randutil.New(1)), ErrNotEnoughPlayers)

	s.Join("Bob", "p2")
	assert.ErrorIs(t, s.Start("p2", randutil.New(1)), ErrNotHost)

	require.NoError(t, s.Start("p1", randutil.New(1)))
	assert.ErrorIs(t, s.Start("p1", randutil.New(1)), ErrAlreadyStarted)
}

func TestStartDealsFirstRound(t *testing.T) {
	s := newStartedGame(t)

	assert.Equal(t, PhasePlaying, s.RoundPhase)
	assert.Equal(t, TurnPlay, s.TurnPhase)
	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, 3, s.CardsPerRound, "round 1 of a 3-round game deals 3 cards")
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	assert.Equal(t, 0, s.TurnsPlayedThisRound)
	assert.Empty(t, s.LastPlayerWhoPlayed)

	for _, p := range s.Players {
		assert.Len(t, p.Hand, 3)
	}
	assert.Len(t, s.DiscardPile, 1, "one face-up card seeds the discard pile")
	assert.Len(t, s.Deck, 52-2*3-1)
	assert.Equal(t, 52, totalCards(s))
}

func TestPlayCardsValidation(t *testing.T) {
	s := newStartedGame(t)
	alice := s.Players[0]
	bob := s.Players[1]

	t.Run("not your turn", func(t *testing.T) {
		err := s.PlayCards("p2", []string{bob.Hand[0].ID})
		assert.ErrorIs(t, err, ErrNotYourTurn)
	})

	t.Run("unknown player", func(t *testing.T) {
		err := s.PlayCards("ghost", []string{"whatever"})
		assert.ErrorIs(t, err, ErrPlayerNotFound)
	})

	t.Run("empty selection", func(t *testing.T) {
		err := s.PlayCards("p1", nil)
		assert.ErrorIs(t, err, ErrNoCardsSelected)
	})

	t.Run("card not in hand", func(t *testing.T) {
		err := s.PlayCards("p1", []string{bob.Hand[0].ID})
		assert.ErrorIs(t, err, ErrCardsNotInHand)
	})

	t.Run("mismatched ranks", func(t *testing.T) {
		// Force a known hand to guarantee a rank mismatch.
		alice.Hand = []deck.Card{
			{ID: "a", Rank: deck.Two, Value: 2},
			{ID: "b", Rank: deck.Three, Value: 3},
		}
		err := s.PlayCards("p1", []string{"a", "b"})
		assert.ErrorIs(t, err, ErrMismatchedRanks)
	})

	t.Run("wrong turn phase", func(t *testing.T) {
		require.NoError(t, s.PlayCards("p1", []string{"a"}))
		err := s.PlayCards("p1", []string{"b"})
		assert.ErrorIs(t, err, ErrNotPlayPhase)
	})
}

func TestPlayCardsMovesToPending(t *testing.T) {
	s := newStartedGame(t)
	alice := s.Players[0]
	alice.Hand = []deck.Card{
		{ID: "a", Rank: deck.Five, Value: 5},
		{ID: "b", Rank: deck.Five, Value: 5},
		{ID: "c", Rank: deck.King, Value: 13},
	}

	require.NoError(t, s.PlayCards("p1", []string{"a", "b"}))

	assert.Equal(t, TurnDraw, s.TurnPhase)
	assert.Len(t, alice.Hand, 1)
	require.Len(t, s.LastPlayedCards, 2)
	assert.Equal(t, "a", s.LastPlayedCards[0].ID)
	assert.Equal(t, "b", s.LastPlayedCards[1].ID)
}

func TestDrawValidation(t *testing.T) {
	s := newStartedGame(t)

	t.Run("wrong phase", func(t *testing.T) {
		err := s.Draw("p1", DrawDeck)
		assert.ErrorIs(t, err, ErrNotDrawPhase)
	})

	require.NoError(t, s.PlayCards("p1", []string{s.Players[0].Hand[0].ID}))

	t.Run("not your turn", func(t *testing.T) {
		err := s.Draw("p2", DrawDeck)
		assert.ErrorIs(t, err, ErrNotYourTurn)
	})

	t.Run("invalid source", func(t *testing.T) {
		err := s.Draw("p1", DrawSource("pocket"))
		assert.ErrorIs(t, err, ErrInvalidDrawSource)
	})

	t.Run("empty discard", func(t *testing.T) {
		saved := s.DiscardPile
		s.DiscardPile = nil
		err := s.Draw("p1", DrawDiscard)
		assert.ErrorIs(t, err, ErrDiscardEmpty)
		s.DiscardPile = saved
	})

	t.Run("empty deck", func(t *testing.T) {
		saved := s.Deck
		s.Deck = nil
		err := s.Draw("p1", DrawDeck)
		assert.ErrorIs(t, err, ErrDeckEmpty)
		s.Deck = saved
	})
}

func TestDrawFromDeckCompletesTurn(t *testing.T) {
	s := newStartedGame(t)
	alice := s.Players[0]
	played := alice.Hand[0]
	topOfDeck := s.Deck[0]

	require.NoError(t, s.PlayCards("p1", []string{played.ID}))
	require.NoError(t, s.Draw("p1", DrawDeck))

	assert.Equal(t, 1, s.CurrentPlayerIndex, "turn passes to the next player")
	assert.Equal(t, TurnPlay, s.TurnPhase)
	assert.Equal(t, 1, s.TurnsPlayedThisRound)
	assert.Equal(t, "p1", s.LastPlayerWhoPlayed)
	assert.Empty(t, s.LastPlayedCards, "pending play merged into discard")

	assert.Equal(t, topOfDeck.ID, alice.Hand[len(alice.Hand)-1].ID, "drawn card appended to hand")
	assert.Equal(t, played.ID, s.DiscardPile[len(s.DiscardPile)-1].ID, "played card on top of discard")
	assert.Equal(t, 52, totalCards(s), "no card created or destroyed")
}

func TestDrawFromDiscardReplacesTop(t *testing.T) {
	s := newStartedGame(t)
	alice := s.Players[0]
	faceUp := s.DiscardPile[0]
	played := alice.Hand[0]

	require.NoError(t, s.PlayCards("p1", []string{played.ID}))
	require.NoError(t, s.Draw("p1", DrawDiscard))

	assert.Equal(t, faceUp.ID, alice.Hand[len(alice.Hand)-1].ID, "took the face-up card")
	require.Len(t, s.DiscardPile, 1)
	assert.Equal(t, played.ID, s.DiscardPile[0].ID, "played card replaces what was taken")
	assert.Equal(t, 52, totalCards(s))
}

func TestFullTurnCycleWrapsAround(t *testing.T) {
	s := newStartedGame(t)

	require.NoError(t, s.PlayCards("p1", []string{s.Players[0].Hand[0].ID}))
	require.NoError(t, s.Draw("p1", DrawDeck))
	require.NoError(t, s.PlayCards("p2", []string{s.Players[1].Hand[0].ID}))
	require.NoError(t, s.Draw("p2", DrawDeck))

	assert.Equal(t, 0, s.CurrentPlayerIndex, "index wraps mod player count")
	assert.Equal(t, TurnPlay, s.TurnPhase)
	assert.Equal(t, 2, s.TurnsPlayedThisRound)
}

// callWinFixture builds a playing-phase state with fixed hands so scores are
// deterministic. Every player has completed a turn; p2 played last.
func callWinFixture(hands map[string][]deck.Card) *State {
	players := []*Player{
		{ID: "p1", Name: "Alice", Hand: hands["p1"], IsConnected: true},
		{ID: "p2", Name: "Bob", Hand: hands["p2"], IsConnected: true},
	}
	return &State{
		RoomCode:             "ABC234",
		Players:              players,
		RoundPhase:           PhasePlaying,
		TurnPhase:            TurnPlay,
		CurrentRound:         1,
		TotalRounds:          3,
		TurnsPlayedThisRound: 2,
		LastPlayerWhoPlayed:  "p2",
		HostPlayerID:         "p1",
		Settings:             RoomSettings{TotalRounds: 3, MaxPlayers: MaxPlayers},
		LastPlayedCards:      []deck.Card{},
	}
}

func TestCallWinGating(t *testing.T) {
	s := newStartedGame(t)

	t.Run("too early", func(t *testing.T) {
		err := s.CallWin("p1", TieBreakOpponent)
		assert.ErrorIs(t, err, ErrCallTooEarly)
	})

	require.NoError(t, s.PlayCards("p1", []string{s.Players[0].Hand[0].ID}))
	require.NoError(t, s.Draw("p1", DrawDeck))
	require.NoError(t, s.PlayCards("p2", []string{s.Players[1].Hand[0].ID}))
	require.NoError(t, s.Draw("p2", DrawDeck))

	t.Run("not right after own turn", func(t *testing.T) {
		err := s.CallWin("p2", TieBreakOpponent)
		assert.ErrorIs(t, err, ErrCallAfterOwnTurn)
	})

	t.Run("allowed for the other player", func(t *testing.T) {
		require.NoError(t, s.CallWin("p1", TieBreakOpponent))
		assert.Equal(t, PhaseScoring, s.RoundPhase)
	})
}

func TestCallWinLowestScoreWins(t *testing.T) {
	s := callWinFixture(map[string][]deck.Card{
		"p1": {{ID: "x", Rank: deck.Nine, Value: 9}, {ID: "y", Rank: deck.Two, Value: 2}}, // 2
		"p2": {{ID: "z", Rank: deck.King, Value: 13}},                                     // 13
	})

	require.NoError(t, s.CallWin("p1", TieBreakOpponent))

	assert.Equal(t, 1, s.Players[0].RoundsWon, "lowest score wins the round")
	assert.Equal(t, 0, s.Players[1].RoundsWon)
	assert.Equal(t, PhaseScoring, s.RoundPhase)
}

func TestCallWinTieBreakOpponent(t *testing.T) {
	s := callWinFixture(map[string][]deck.Card{
		"p1": {{ID: "x", Rank: deck.Five, Value: 5}},
		"p2": {{ID: "y", Rank: deck.Five, Value: 5}},
	})

	require.NoError(t, s.CallWin("p1", TieBreakOpponent))

	assert.Equal(t, 0, s.Players[0].RoundsWon, "caller loses ties under opponent policy")
	assert.Equal(t, 1, s.Players[1].RoundsWon)
}

func TestCallWinTieBreakCaller(t *testing.T) {
	s := callWinFixture(map[string][]deck.Card{
		"p1": {{ID: "x", Rank: deck.Five, Value: 5}},
		"p2": {{ID: "y", Rank: deck.Five, Value: 5}},
	})

	require.NoError(t, s.CallWin("p1", TieBreakCaller))

	assert.Equal(t, 1, s.Players[0].RoundsWon, "caller wins ties under caller policy")
	assert.Equal(t, 0, s.Players[1].RoundsWon)
}

func TestCallWinFinalRoundFinishesGame(t *testing.T) {
	s := callWinFixture(map[string][]deck.Card{
		"p1": {{ID: "x", Rank: deck.Two, Value: 2}},
		"p2": {{ID: "y", Rank: deck.King, Value: 13}},
	})
	s.CurrentRound = 3 // last round of the [3 2 3] sequence
	s.Players[0].RoundsWon = 1
	s.Players[1].RoundsWon = 1

	require.NoError(t, s.CallWin("p1", TieBreakOpponent))

	assert.Equal(t, PhaseFinished, s.RoundPhase)
	require.NotNil(t, s.GameWinner)
	assert.Equal(t, "p1", s.GameWinner.ID, "most rounds won takes the game")
}

func TestGameWinnerTieBrokenBySeatOrder(t *testing.T) {
	s := callWinFixture(map[string][]deck.Card{
		"p1": {{ID: "x", Rank: deck.King, Value: 13}},
		"p2": {{ID: "y", Rank: deck.Two, Value: 2}},
	})
	s.CurrentRound = 3
	s.Players[0].RoundsWon = 1
	s.Players[1].RoundsWon = 0 // wins this round, ending 1-1

	require.NoError(t, s.CallWin("p1", TieBreakOpponent))

	require.NotNil(t, s.GameWinner)
	assert.Equal(t, "p1", s.GameWinner.ID, "first seat wins overall ties")
}

func TestNextRound(t *testing.T) {
	s := newStartedGame(t)

	t.Run("rejected outside scoring", func(t *testing.T) {
		assert.ErrorIs(t, s.NextRound(randutil.New(2)), ErrNotScoringPhase)
	})

	s.RoundPhase = PhaseScoring

	t.Run("deals the next round", func(t *testing.T) {
		require.NoError(t, s.NextRound(randutil.New(2)))
		assert.Equal(t, 2, s.CurrentRound)
		assert.Equal(t, 2, s.CardsPerRound, "round 2 of [3 2 3] deals 2 cards")
		assert.Equal(t, PhasePlaying, s.RoundPhase)
		assert.Equal(t, TurnPlay, s.TurnPhase)
		assert.Equal(t, 0, s.CurrentPlayerIndex)
		assert.Equal(t, 0, s.TurnsPlayedThisRound)
		for _, p := range s.Players {
			assert.Len(t, p.Hand, 2)
		}
		assert.Equal(t, 52, totalCards(s))
	})

	t.Run("finishes after the last round", func(t *testing.T) {
		s.CurrentRound = 3
		s.RoundPhase = PhaseScoring
		s.Players[0].RoundsWon = 2
		require.NoError(t, s.NextRound(randutil.New(3)))
		assert.Equal(t, PhaseFinished, s.RoundPhase)
		require.NotNil(t, s.GameWinner)
		assert.Equal(t, "p1", s.GameWinner.ID)
	})
}

func TestMarkDisconnectedKeepsSeat(t *testing.T) {
	s := newStartedGame(t)

	assert.True(t, s.MarkDisconnected("p2"))
	assert.False(t, s.Players[1].IsConnected)
	assert.Len(t, s.Players, 2, "disconnect never vacates a seat")

	assert.False(t, s.MarkDisconnected("ghost"))
}

func TestFullRoundScenario(t *testing.T) {
	// Two players, three total rounds: play a complete first round through
	// the public operations and verify the score path end to end.
	s := newStartedGame(t)

	require.NoError(t, s.PlayCards("p1", []string{s.Players[0].Hand[0].ID}))
	require.NoError(t, s.Draw("p1", DrawDeck))
	require.NoError(t, s.PlayCards("p2", []string{s.Players[1].Hand[0].ID}))
	require.NoError(t, s.Draw("p2", DrawDeck))

	require.Equal(t, 2, s.TurnsPlayedThisRound)

	scoreA := deck.HandScore(s.Players[0].Hand)
	scoreB := deck.HandScore(s.Players[1].Hand)

	require.NoError(t, s.CallWin("p1", TieBreakOpponent))
	assert.Equal(t, PhaseScoring, s.RoundPhase)

	switch {
	case scoreA < scoreB:
		assert.Equal(t, 1, s.Players[0].RoundsWon)
	case scoreB < scoreA:
		assert.Equal(t, 1, s.Players[1].RoundsWon)
	default:
		assert.Equal(t, 1, s.Players[1].RoundsWon, "ties favour the opponent")
	}
	assert.Equal(t, 1, s.Players[0].RoundsWon+s.Players[1].RoundsWon)
}
