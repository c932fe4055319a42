package view

import (
	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/msgcat"
)

// Frame is everything a display shows. It is a full replacement of the previous frame.
type Frame struct {
	Seq uint64 `json:"seq"`

	Cells         domain.Board  `json:"cells"`
	CurrentPlayer domain.Player `json:"currentPlayer"`
	LastMove      *domain.Point `json:"lastMove,omitempty"`
	Highlight     *domain.Point `json:"highlight,omitempty"`

	Header   string `json:"header"`
	TurnText string `json:"turnText"`
	Score    Score  `json:"score"`

	OverlayVisible bool   `json:"overlayVisible"`
	Overlay        string `json:"overlay,omitempty"`
	Winner         string `json:"winner,omitempty"`

	CodeEnabled bool     `json:"codeEnabled"`
	MoveLog     []string `json:"moveLog"`
}

type Score struct {
	Black int `json:"black"`
	White int `json:"white"`
}

// Input is what a frame is projected from.
type Input struct {
	Snapshot domain.Snapshot
	Moves    []domain.Point
	CodeBusy bool
}

// Projector turns inputs into frames. Project has no side effects.
type Projector struct {
	cat *msgcat.Catalog
}

func NewProjector(cat *msgcat.Catalog) *Projector {
	if cat == nil {
		cat = msgcat.Default()
	}
	return &Projector{cat: cat}
}

func (p *Projector) Project(in Input) Frame {
	snap := in.Snapshot
	f := Frame{
		Cells:         snap.Board,
		CurrentPlayer: snap.CurrentPlayer,
		MoveLog:       make([]string, 0, len(in.Moves)),
		CodeEnabled:   snap.CurrentPlayer == domain.Human && !in.CodeBusy,
	}
	if snap.LastMove != nil {
		lm := *snap.LastMove
		f.LastMove = &lm
	}
	for _, m := range in.Moves {
		f.MoveLog = append(f.MoveLog, m.Display())
	}

	f.TurnText = p.cat.Text("turn.current", map[string]any{"Player": p.playerLabel(snap.CurrentPlayer)})
	if snap.PlayerName != "" {
		f.Header = p.cat.Text("hud.header", map[string]any{"Player": snap.PlayerName})
	} else {
		f.Header = p.cat.Text("hud.header_anonymous", nil)
	}
	f.Score.Black, f.Score.White = snap.Board.Count()

	if snap.Winner.Decided() {
		f.OverlayVisible = true
		f.Winner = snap.Winner.String()
		f.Overlay = p.OverlayText(snap.Winner)
	}
	return f
}

// OverlayText is the end-of-game message for w, empty while undecided.
func (p *Projector) OverlayText(w domain.Winner) string {
	switch w {
	case domain.WinnerBlack:
		return p.cat.Text("overlay.black_wins", nil)
	case domain.WinnerWhite:
		return p.cat.Text("overlay.white_wins", nil)
	case domain.WinnerTie:
		return p.cat.Text("overlay.tie", nil)
	default:
		return ""
	}
}

func (p *Projector) playerLabel(pl domain.Player) string {
	if pl == domain.White {
		return p.cat.Text("turn.player_white", nil)
	}
	return p.cat.Text("turn.player_black", nil)
}
