package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/park285/othello-turn-client/internal/domain"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/discs/*.svg
var discFiles embed.FS

type discCacheKey struct {
	cell domain.Cell
	size int
}

var (
	discCache   = map[discCacheKey]image.Image{}
	discCacheMu sync.RWMutex
)

func renderDiscImage(cell domain.Cell, size int) (image.Image, error) {
	key := discCacheKey{cell: cell, size: size}

	discCacheMu.RLock()
	if img, ok := discCache[key]; ok {
		discCacheMu.RUnlock()
		return img, nil
	}
	discCacheMu.RUnlock()

	name, err := discAssetName(cell)
	if err != nil {
		return nil, err
	}
	data, err := discFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read disc asset %s: %w", name, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(data)))
	if err != nil {
		return nil, fmt.Errorf("parse disc svg: %w", err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	discCacheMu.Lock()
	discCache[key] = img
	discCacheMu.Unlock()

	return img, nil
}

func discAssetName(cell domain.Cell) (string, error) {
	switch cell {
	case domain.BlackDisc:
		return "assets/discs/black.svg", nil
	case domain.WhiteDisc:
		return "assets/discs/white.svg", nil
	default:
		return "", fmt.Errorf("no disc asset for cell %d", cell)
	}
}

// sanitizeSVG normalises style declarations oksvg does not parse.
func sanitizeSVG(svg []byte) []byte {
	fixed := bytes.ReplaceAll(svg, []byte("fill:000000"), []byte("fill:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("fill: #"), []byte("fill:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: #"), []byte("stroke:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stop-color: #"), []byte("stop-color:#"))
	return fixed
}
