package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

const (
	defaultFontSize = 14
	fontDPI         = 72
)

// Sentinel kinds for render errors.
var (
	ErrEncode   = errors.New("encode png")
	ErrFontLoad = errors.New("load font")
	ErrTooLarge = errors.New("image too large")
	ErrColor    = errors.New("invalid color")
)

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithTitle sets the title drawn at the top-left corner.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		if title != "" {
			r.title = title
		}
	}
}

// WithFontFile loads a TrueType or OpenType font at sizePt points. An empty
// path keeps the built-in font. Load failures are recorded as a font notice
// and the built-in font stays in use.
func WithFontFile(path string, sizePt float64) Option {
	return func(r *Renderer) {
		if path == "" {
			return
		}
		face, err := loadFace(path, sizePt)
		if err != nil {
			r.notice = err.Error()
			return
		}
		r.face = face
		r.notice = ""
	}
}

// WithPadding sets the horizontal space after each column.
func WithPadding(px int) Option {
	return func(r *Renderer) {
		if px >= 0 {
			r.padding = px
		}
	}
}

// WithMargin sets the blank border around the image.
func WithMargin(px int) Option {
	return func(r *Renderer) {
		if px > boxPad {
			r.margin = px
		}
	}
}

// WithGap sets the vertical space between the title line and the header.
func WithGap(px int) Option {
	return func(r *Renderer) {
		if px >= 0 {
			r.gap = px
		}
	}
}

// WithColors sets the text and background colors. Nil keeps the default.
func WithColors(ink, paper color.Color) Option {
	return func(r *Renderer) {
		if ink != nil {
			r.ink = ink
		}
		if paper != nil {
			r.paper = paper
		}
	}
}

// WithLogger sets a custom logger for the renderer.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// ParseColor reads a "#rgb" or "#rrggbb" hex color. An empty string yields
// nil, which WithColors treats as the default.
func ParseColor(s string) (color.Color, error) {
	if s == "" {
		return nil, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("%w: %q", ErrColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func loadFace(path string, sizePt float64) (font.Face, error) {
	if sizePt <= 0 {
		sizePt = defaultFontSize
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontLoad, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrFontLoad, path, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: face %s: %w", ErrFontLoad, path, err)
	}
	return face, nil
}
