package domain

import (
	"errors"
	"fmt"
)

// BoardSize is the fixed dimension of the Othello board.
const BoardSize = 8

var ErrMalformedSnapshot = errors.New("malformed game snapshot")

// Player identifies a side. Values match the remote wire encoding.
type Player int

const (
	Black Player = 1 // human
	White Player = 2 // remote AI
)

// Human is the side this client plays.
const Human = Black

func (p Player) Valid() bool { return p == Black || p == White }

func (p Player) String() string {
	switch p {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "Unknown"
	}
}

// Cell is the occupancy of one board square.
type Cell int

const (
	Empty     Cell = 0
	BlackDisc Cell = 1
	WhiteDisc Cell = 2
)

type Board [BoardSize][BoardSize]Cell

// Winner is only meaningful once the remote engine declares the game over.
type Winner int

const (
	NoWinner Winner = iota
	WinnerBlack
	WinnerWhite
	WinnerTie
)

func (w Winner) Decided() bool { return w != NoWinner }

func (w Winner) String() string {
	switch w {
	case WinnerBlack:
		return "black"
	case WinnerWhite:
		return "white"
	case WinnerTie:
		return "tie"
	default:
		return "none"
	}
}

// WinnerFromWire maps the remote winner field. Nil means the game is still
// running; 1 and 2 are the players and every other value is the draw sentinel.
func WinnerFromWire(v *int) Winner {
	if v == nil {
		return NoWinner
	}
	switch *v {
	case int(Black):
		return WinnerBlack
	case int(White):
		return WinnerWhite
	default:
		return WinnerTie
	}
}

// Point is a zero-indexed (row, col) board coordinate.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Point) InBounds() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// Display renders the coordinate 1-indexed, the way the move log shows it.
func (p Point) Display() string { return fmt.Sprintf("(%d, %d)", p.Row+1, p.Col+1) }

// Snapshot is a complete, authoritative game state as last observed from the
// remote service. It always replaces the previous one wholesale.
type Snapshot struct {
	Board         Board
	CurrentPlayer Player
	LastMove      *Point
	Winner        Winner

	PlayerName string
	History    []string
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.LastMove != nil {
		lm := *s.LastMove
		out.LastMove = &lm
	}
	out.History = append([]string(nil), s.History...)
	return out
}

// Count returns the number of discs of each colour.
func (b Board) Count() (black, white int) {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			switch b[r][c] {
			case BlackDisc:
				black++
			case WhiteDisc:
				white++
			}
		}
	}
	return black, white
}

// InitialBoard is the standard four-disc opening position.
func InitialBoard() Board {
	var b Board
	b[3][3], b[4][4] = WhiteDisc, WhiteDisc
	b[3][4], b[4][3] = BlackDisc, BlackDisc
	return b
}
