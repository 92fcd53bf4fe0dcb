package game

import "errors"

// Validation errors returned by room operations. The server maps these onto
// error messages for the requesting connection; state is never partially
// mutated when one of these is returned.
var (
	ErrPlayerNotFound   = errors.New("player not found in room")
	ErrNotHost          = errors.New("only the host can do that")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
	ErrRoomFull         = errors.New("room is full")
	ErrInvalidSettings  = errors.New("invalid room settings")

	ErrNotPlaying   = errors.New("no round in progress")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrNotPlayPhase = errors.New("you already played: draw a card to finish your turn")
	ErrNotDrawPhase = errors.New("you must play cards before drawing")

	ErrNoCardsSelected = errors.New("no cards selected")
	ErrCardsNotInHand  = errors.New("selected cards are not in your hand")
	ErrMismatchedRanks = errors.New("all played cards must share the same rank")

	ErrDeckEmpty         = errors.New("deck is empty")
	ErrDiscardEmpty      = errors.New("discard pile is empty")
	ErrInvalidDrawSource = errors.New("draw source must be deck or discard")

	ErrCallTooEarly     = errors.New("every player must complete a turn before a win can be called")
	ErrCallAfterOwnTurn = errors.New("cannot call a win right after your own turn")

	ErrNotScoringPhase = errors.New("round is not in the scoring phase")
)
