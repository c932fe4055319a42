package turn

import "errors"

var (
	ErrBusy               = errors.New("a turn is already in progress")
	ErrNotYourTurn        = errors.New("it is not the human player's turn")
	ErrTerminal           = errors.New("the game is over; reset to play again")
	ErrCellOutOfRange     = errors.New("cell is outside the board")
	ErrPlayerNameRequired = errors.New("player name is required")
	ErrInvalidTransition  = errors.New("invalid turn transition")
)
