package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/msgcat"
)

// TextDisplay draws frames as a terminal board.
type TextDisplay struct {
	mu  sync.Mutex
	w   io.Writer
	cat *msgcat.Catalog
}

func NewTextDisplay(w io.Writer, cat *msgcat.Catalog) *TextDisplay {
	if cat == nil {
		cat = msgcat.Default()
	}
	return &TextDisplay{w: w, cat: cat}
}

func (d *TextDisplay) Name() string { return "text" }

func (d *TextDisplay) Show(f Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := io.WriteString(d.w, d.Format(f))
	return err
}

// Format renders f without writing it.
func (d *TextDisplay) Format(f Frame) string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(f.Header)
	sb.WriteString("\n\n    ")
	for c := 0; c < domain.BoardSize; c++ {
		sb.WriteString(fmt.Sprintf(" %d", c+1))
	}
	sb.WriteString("\n")
	for r := 0; r < domain.BoardSize; r++ {
		sb.WriteString(fmt.Sprintf("  %d ", r+1))
		for c := 0; c < domain.BoardSize; c++ {
			p := domain.Point{Row: r, Col: c}
			switch {
			case f.Highlight != nil && *f.Highlight == p:
				sb.WriteString(">")
			case f.LastMove != nil && *f.LastMove == p:
				sb.WriteString("'")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(cellGlyph(f.Cells[r][c]))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(f.TurnText)
	sb.WriteString("   ")
	sb.WriteString(d.cat.Text("hud.score", map[string]any{"Black": f.Score.Black, "White": f.Score.White}))
	sb.WriteString("   ")
	if f.CodeEnabled {
		sb.WriteString(d.cat.Text("hud.code_enabled", nil))
	} else {
		sb.WriteString(d.cat.Text("hud.code_disabled", nil))
	}
	sb.WriteString("\n")
	if f.OverlayVisible {
		sb.WriteString("\n  ")
		sb.WriteString(f.Overlay)
		sb.WriteString("\n")
	}
	return sb.String()
}

func cellGlyph(c domain.Cell) string {
	switch c {
	case domain.BlackDisc:
		return "●"
	case domain.WhiteDisc:
		return "○"
	default:
		return "·"
	}
}
