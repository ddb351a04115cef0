package game

import "errors"

// Sentinel errors for rejected actions. Every rejection is a synchronous,
// single-action failure: validation precedes mutation, so a returned error
// means no state changed. The engine never retries on the caller's behalf.
var (
	ErrInvalidConfiguration = errors.New("invalid game configuration")
	ErrCapacityExceeded     = errors.New("player capacity exceeded")
	ErrWrongTurn            = errors.New("not this player's turn")
	ErrCardsNotInHand       = errors.New("cards not in player's hand")
	ErrIllegalPlay          = errors.New("illegal hit")
	ErrExchangeRejected     = errors.New("exchange submission rejected")
	ErrGameNotFound         = errors.New("game not found")
)
