package render

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() view.Frame {
	p := view.NewProjector(nil)
	lm := domain.Point{Row: 2, Col: 3}
	snap := domain.Snapshot{Board: domain.InitialBoard(), CurrentPlayer: domain.White, LastMove: &lm}
	snap.Board[2][3] = domain.BlackDisc
	return p.Project(view.Input{Snapshot: snap})
}

func TestRenderPNG_Decodes(t *testing.T) {
	r := NewRenderer()
	raw, err := r.RenderPNG(context.Background(), sampleFrame())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, boardPixels+sideMargin*2, b.Dx())
	assert.Equal(t, boardPixels+topMargin+bottomMargin, b.Dy())
}

func TestDraw_DiscColours(t *testing.T) {
	r := NewRenderer()
	img, err := r.Draw(sampleFrame())
	require.NoError(t, err)

	white := CellRect(domain.Point{Row: 3, Col: 3})
	black := CellRect(domain.Point{Row: 4, Col: 3})
	empty := CellRect(domain.Point{Row: 0, Col: 0})

	luma := func(c color.RGBA) int { return int(c.R) + int(c.G) + int(c.B) }
	center := func(x0, y0 int) (int, int) { return x0 + squareSize/2 + 4, y0 + squareSize/2 + 4 }

	wx, wy := center(white.Min.X, white.Min.Y)
	bx, by := center(black.Min.X, black.Min.Y)
	ex, ey := center(empty.Min.X, empty.Min.Y)

	assert.Greater(t, luma(img.RGBAAt(wx, wy)), 600)
	assert.Less(t, luma(img.RGBAAt(bx, by)), 150)
	assert.Equal(t, feltColor, img.RGBAAt(ex, ey))
}

func TestDraw_HighlightLayer(t *testing.T) {
	r := NewRenderer()
	f := sampleFrame()
	base, err := r.Draw(f)
	require.NoError(t, err)

	hl := domain.Point{Row: 0, Col: 0}
	f.Highlight = &hl
	lit, err := r.Draw(f)
	require.NoError(t, err)

	rect := CellRect(hl)
	x, y := rect.Min.X+8, rect.Min.Y+8
	assert.NotEqual(t, base.RGBAAt(x, y), lit.RGBAAt(x, y))

	other := CellRect(domain.Point{Row: 7, Col: 7})
	assert.Equal(t, base.RGBAAt(other.Min.X+8, other.Min.Y+8), lit.RGBAAt(other.Min.X+8, other.Min.Y+8))
}

func TestRenderPNG_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRenderer().RenderPNG(ctx, sampleFrame())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenderPNG_WinnerBanner(t *testing.T) {
	p := view.NewProjector(nil)
	f := p.Project(view.Input{Snapshot: domain.Snapshot{Board: domain.InitialBoard(), CurrentPlayer: domain.Black, Winner: domain.WinnerTie}})
	require.True(t, f.OverlayVisible)
	_, err := NewRenderer().RenderPNG(context.Background(), f)
	require.NoError(t, err)
}

func TestDiscCache(t *testing.T) {
	a, err := renderDiscImage(domain.BlackDisc, 32)
	require.NoError(t, err)
	b, err := renderDiscImage(domain.BlackDisc, 32)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = renderDiscImage(domain.Empty, 32)
	require.Error(t, err)
}

func TestSanitizeSVG(t *testing.T) {
	in := []byte(`style="fill: #fff; stroke: #000"`)
	assert.Equal(t, `style="fill:#fff; stroke:#000"`, string(sanitizeSVG(in)))
}

func TestFileDisplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "board.png")
	d := NewFileDisplay(path, nil)

	require.NoError(t, d.Show(sampleFrame()))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
