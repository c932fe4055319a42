package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"
	"strings"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/park285/othello-turn-client/internal/view"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize    = 64
	boardPixels   = squareSize * domain.BoardSize
	sideMargin    = 36
	topMargin     = 110
	bottomMargin  = 36
	titleHeight   = 36
	panelHeight   = 28
	panelGap      = 12
	gapToBoard    = 18
	panelRadius   = 10
	panelPaddingX = 20
	titleMinWidth = 260
	scoreMinWidth = 120
	turnMinWidth  = 160
	shadowOffsetY = 5
	gridLine      = 2
)

var (
	feltColor           = color.RGBA{R: 32, G: 122, B: 74, A: 255}
	gridColor           = color.RGBA{R: 18, G: 76, B: 44, A: 255}
	backgroundColor     = color.RGBA{R: 20, G: 22, B: 32, A: 255}
	highlightFill       = color.NRGBA{R: 255, G: 228, B: 120, A: 150}
	lastMoveMarker      = color.NRGBA{R: 230, G: 64, B: 64, A: 230}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor   = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	bannerColor         = color.NRGBA{R: 12, G: 14, B: 24, A: 215}
	coordinateTextColor = color.NRGBA{R: 180, G: 214, B: 190, A: 255}
)

// Renderer draws frames as PNG board images.
type Renderer struct {
	face font.Face
}

func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

// CellRect is the pixel rectangle of board cell p.
func CellRect(p domain.Point) image.Rectangle {
	x := sideMargin + p.Col*squareSize
	y := topMargin + p.Row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func (r *Renderer) RenderPNG(ctx context.Context, f view.Frame) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img, err := r.Draw(f)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Draw paints f onto a new RGBA image.
func (r *Renderer) Draw(f view.Frame) (*image.RGBA, error) {
	totalWidth := boardPixels + sideMargin*2
	totalHeight := boardPixels + topMargin + bottomMargin
	boardRect := image.Rect(sideMargin, topMargin, sideMargin+boardPixels, topMargin+boardPixels)

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, f, boardRect)
	drawSquares(img, boardRect)
	if f.Highlight != nil && f.Highlight.InBounds() {
		imagedraw.Draw(img, CellRect(*f.Highlight), image.NewUniform(highlightFill), image.Point{}, imagedraw.Over)
	}
	if err := drawDiscs(img, f.Cells); err != nil {
		return nil, err
	}
	if f.LastMove != nil && f.LastMove.InBounds() {
		rect := CellRect(*f.LastMove)
		center := image.Pt(rect.Min.X+squareSize/2, rect.Min.Y+squareSize/2)
		drawDisc(img, center, squareSize/10, lastMoveMarker)
	}
	r.drawCoordinates(img, boardRect)
	if f.OverlayVisible {
		r.drawBanner(img, boardRect, f.Overlay)
	}
	return img, nil
}

func drawSquares(img *image.RGBA, boardRect image.Rectangle) {
	imagedraw.Draw(img, boardRect, image.NewUniform(feltColor), image.Point{}, imagedraw.Src)
	line := image.NewUniform(gridColor)
	for i := 0; i <= domain.BoardSize; i++ {
		off := i * squareSize
		v := image.Rect(boardRect.Min.X+off-gridLine/2, boardRect.Min.Y, boardRect.Min.X+off+gridLine/2, boardRect.Max.Y)
		h := image.Rect(boardRect.Min.X, boardRect.Min.Y+off-gridLine/2, boardRect.Max.X, boardRect.Min.Y+off+gridLine/2)
		imagedraw.Draw(img, v, line, image.Point{}, imagedraw.Src)
		imagedraw.Draw(img, h, line, image.Point{}, imagedraw.Src)
	}
}

func drawDiscs(dst imagedraw.Image, cells domain.Board) error {
	for row := 0; row < domain.BoardSize; row++ {
		for col := 0; col < domain.BoardSize; col++ {
			cell := cells[row][col]
			if cell == domain.Empty {
				continue
			}
			disc, err := renderDiscImage(cell, squareSize)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, CellRect(domain.Point{Row: row, Col: col}), disc, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func (r *Renderer) drawHUD(img *image.RGBA, f view.Frame, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(f.Header)
	if title == "" {
		title = "Othello"
	}
	scoreText := fmt.Sprintf("B %d : %d W", f.Score.Black, f.Score.White)
	turnText := strings.TrimSpace(f.TurnText)

	turnBottom := boardRect.Min.Y - gapToBoard
	turnTop := turnBottom - panelHeight
	titleBottom := turnTop - panelGap
	titleTop := titleBottom - titleHeight

	titleWidth := max(titleMinWidth, drawer.MeasureString(title).Round()+panelPaddingX*2)
	scoreWidth := max(scoreMinWidth, drawer.MeasureString(scoreText).Round()+panelPaddingX*2)
	turnWidth := max(turnMinWidth, drawer.MeasureString(turnText).Round()+panelPaddingX*2)

	if maxTitle := boardRect.Dx() - scoreWidth - 24; titleWidth > maxTitle {
		titleWidth = max(maxTitle, titleMinWidth)
	}
	if maxTurn := boardRect.Dx() - 40; turnWidth > maxTurn {
		turnWidth = maxTurn
	}

	titleRect := image.Rect(boardRect.Min.X, titleTop, boardRect.Min.X+titleWidth, titleBottom)
	scoreRect := image.Rect(boardRect.Max.X-scoreWidth, titleTop, boardRect.Max.X, titleTop+titleHeight)
	turnLeft := boardRect.Min.X + (boardRect.Dx()-turnWidth)/2
	turnRect := image.Rect(turnLeft, turnTop, turnLeft+turnWidth, turnBottom)

	for _, rect := range []image.Rectangle{titleRect, scoreRect, turnRect} {
		drawRoundedPanel(img, rect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	}
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, scoreRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, turnRect, panelRadius, hudTurnPanelColor)

	title = truncateWithEllipsis(r.face, title, titleRect.Dx()-panelPaddingX*2)
	turnText = truncateWithEllipsis(r.face, turnText, turnRect.Dx()-panelPaddingX*2)

	drawCenteredString(drawer, titleRect, title, hudTextPrimary)
	drawCenteredString(drawer, scoreRect, scoreText, hudTextPrimary)
	drawCenteredString(drawer, turnRect, turnText, hudTurnTextColor)
}

func (r *Renderer) drawBanner(img *image.RGBA, boardRect image.Rectangle, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	// basicfont has no emoji glyphs
	text = strings.TrimSpace(strings.TrimLeft(text, "🏆🤝 "))

	drawer := &font.Drawer{Dst: img, Face: r.face}
	width := max(boardRect.Dx()/2, drawer.MeasureString(text).Round()+panelPaddingX*2)
	height := squareSize
	left := boardRect.Min.X + (boardRect.Dx()-width)/2
	top := boardRect.Min.Y + (boardRect.Dy()-height)/2
	banner := image.Rect(left, top, left+width, top+height)

	drawRoundedPanel(img, banner, panelRadius, bannerColor)
	drawCenteredString(drawer, banner, text, hudTextPrimary)
}

func (r *Renderer) drawCoordinates(img *image.RGBA, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	for i := 0; i < domain.BoardSize; i++ {
		label := strconv.Itoa(i + 1)
		center := i*squareSize + squareSize/2
		drawCenteredText(drawer, label, boardRect.Min.X-sideMargin/2, boardRect.Min.Y+center+ascent/2)
		drawCenteredText(drawer, label, boardRect.Min.X+center, boardRect.Max.Y+ascent+6)
	}
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}

	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}

	ellipsis := "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}

	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if img == nil || rect.Empty() {
		return
	}
	if radius < 0 {
		radius = 0
	}
	maxRadius := rect.Dx() / 2
	if r := rect.Dy() / 2; r < maxRadius {
		maxRadius = r
	}
	if radius > maxRadius {
		radius = maxRadius
	}
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}

	core := image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y)
	if core.Dx() > 0 {
		imagedraw.Draw(img, core, fill, image.Point{}, imagedraw.Over)
	}
	leftRect := image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius)
	if leftRect.Dx() > 0 && leftRect.Dy() > 0 {
		imagedraw.Draw(img, leftRect, fill, image.Point{}, imagedraw.Over)
	}
	rightRect := image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius)
	if rightRect.Dx() > 0 && rightRect.Dy() > 0 {
		imagedraw.Draw(img, rightRect, fill, image.Point{}, imagedraw.Over)
	}

	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, center := range corners {
		drawQuarter(img, center, radius, clr, rect)
	}
}

// drawQuarter fills the part of the disc at center that lies in the corner
// region of rect not already covered by the panel body.
func drawQuarter(img *image.RGBA, center image.Point, radius int, clr color.Color, rect image.Rectangle) {
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			px, py := center.X+x, center.Y+y
			inCore := px >= rect.Min.X+radius && px < rect.Max.X-radius
			inSides := py >= rect.Min.Y+radius && py < rect.Max.Y-radius
			if inCore || inSides {
				continue
			}
			blendPixel(img, px, py, clr)
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if drawer == nil {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	if radius <= 0 {
		blendPixel(img, center.X, center.Y, clr)
		return
	}
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			blendPixel(img, center.X+x, center.Y+y, clr)
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if img == nil {
		return
	}
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}

	sr, sg, sb, sa := clr.RGBA()
	srcA := float64(sa) / 65535.0
	if srcA <= 0 {
		return
	}
	// RGBA() is alpha-premultiplied
	srcR := float64(sr) / 65535.0
	srcG := float64(sg) / 65535.0
	srcB := float64(sb) / 65535.0

	dst := img.RGBAAt(x, y)
	dstR := float64(dst.R) / 255.0
	dstG := float64(dst.G) / 255.0
	dstB := float64(dst.B) / 255.0
	dstA := float64(dst.A) / 255.0

	inv := 1 - srcA
	img.SetRGBA(x, y, color.RGBA{
		R: floatToUint8((srcR + dstR*inv) * 255.0),
		G: floatToUint8((srcG + dstG*inv) * 255.0),
		B: floatToUint8((srcB + dstB*inv) * 255.0),
		A: floatToUint8((srcA + dstA*inv) * 255.0),
	})
}

func floatToUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
