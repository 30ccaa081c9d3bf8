// Package render draws a session table as a PNG image with a title and a
// boxed date label above column-aligned header and rows.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/metrics"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ContentType is the MIME type of rendered images.
const ContentType = "image/png"

// Default layout values in pixels.
const (
	DefaultTitle   = "Badminton Koun"
	defaultPadding = 12
	defaultMargin  = 20
	defaultGap     = 10
	labelGap       = 16
	boxPad         = 3
)

// Size limits of a drawn image.
const (
	MaxRows   = 1000
	MaxPixels = 1 << 25
)

// FileName returns the download name of an image for the given label.
func FileName(label string) string {
	if label == "" {
		label = "koun"
	}
	return label + ".png"
}

// Renderer draws tables. It is safe for concurrent use; drawing is
// serialized because font faces keep internal caches.
type Renderer struct {
	mu      sync.Mutex
	face    font.Face
	notice  string
	title   string
	padding int
	margin  int
	gap     int
	ink     color.Color
	paper   color.Color
	logger  logger.Logger
}

// New creates a renderer. Without WithFontFile, or when the font cannot be
// loaded, the built-in 7x13 face is used.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		face:    basicfont.Face7x13,
		title:   DefaultTitle,
		padding: defaultPadding,
		margin:  defaultMargin,
		gap:     defaultGap,
		ink:     color.Black,
		paper:   color.White,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notice != "" {
		metrics.RecordFontFallback()
		if r.logger != nil {
			r.logger.Warn(context.Background(), "using built-in font", logger.String("reason", r.notice))
		}
	}
	return r
}

// FontNotice returns a non-empty message when a configured font could not
// be loaded and the built-in font is used instead.
func (r *Renderer) FontNotice() string { return r.notice }

// Title returns the title drawn above the table.
func (r *Renderer) Title() string { return r.title }

// Layout holds the computed geometry of an image.
type Layout struct {
	Widths     []int
	Offsets    []int
	Width      int
	Height     int
	LineHeight int
	TitleWidth int
	LabelWidth int
	HeaderTop  int
}

// Layout computes the geometry for drawing t with label.
func (r *Renderer) Layout(t model.Table, label string) Layout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layout(t, label)
}

func (r *Renderer) layout(t model.Table, label string) Layout {
	headers := columnHeaders(t)
	l := Layout{
		Widths:     make([]int, len(headers)),
		Offsets:    make([]int, len(headers)),
		LineHeight: r.face.Metrics().Height.Ceil(),
		TitleWidth: r.measure(r.title),
		LabelWidth: r.measure(label),
	}

	for c, h := range headers {
		w := r.measure(h)
		for _, row := range t.Rows {
			if cw := r.measure(row.At(c).String()); cw > w {
				w = cw
			}
		}
		l.Widths[c] = w
	}

	x := r.margin
	for c, w := range l.Widths {
		l.Offsets[c] = x
		x += w + r.padding
	}
	l.Width = x + r.margin

	if label != "" {
		need := r.margin + l.TitleWidth + labelGap + l.LabelWidth + boxPad + 1 + r.margin
		if need > l.Width {
			l.Width = need
		}
	}

	l.HeaderTop = r.margin + l.LineHeight + r.gap
	l.Height = l.HeaderTop + l.LineHeight*(1+t.Len()) + r.margin
	return l
}

// Draw paints t and label onto a new image. Tables above MaxRows rows or
// images above MaxPixels pixels are rejected with ErrTooLarge.
func (r *Renderer) Draw(t model.Table, label string) (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draw(t, label)
}

func (r *Renderer) draw(t model.Table, label string) (*image.RGBA, error) {
	if t.Len() > MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrTooLarge, t.Len(), MaxRows)
	}
	l := r.layout(t, label)
	if px := int64(l.Width) * int64(l.Height); px > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d pixels, limit %d", ErrTooLarge, l.Width, l.Height, MaxPixels)
	}
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: r.paper}, image.Point{}, draw.Src)

	ascent := r.face.Metrics().Ascent.Ceil()
	d := &font.Drawer{Dst: img, Src: image.NewUniform(r.ink), Face: r.face}

	r.text(d, r.title, r.margin, r.margin+ascent)
	if label != "" {
		r.drawLabel(img, d, label, r.margin+l.TitleWidth+labelGap, l.LineHeight)
	}

	headers := columnHeaders(t)
	y := l.HeaderTop + ascent
	for c, h := range headers {
		r.text(d, h, l.Offsets[c], y)
	}
	for _, row := range t.Rows {
		y += l.LineHeight
		for c := range headers {
			r.text(d, row.At(c).String(), l.Offsets[c], y)
		}
	}
	return img, nil
}

// drawLabel draws label at x, vertically centred on the title line, and
// outlines its bounding box.
func (r *Renderer) drawLabel(img *image.RGBA, d *font.Drawer, label string, x, lineHeight int) {
	b, _ := font.BoundString(r.face, label)
	centre := fixed.I(r.margin) + fixed.I(lineHeight)/2
	baseline := centre - (b.Min.Y+b.Max.Y)/2

	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: baseline}
	d.DrawString(label)

	box := image.Rect(
		x+b.Min.X.Floor()-boxPad,
		(baseline+b.Min.Y).Floor()-boxPad,
		x+b.Max.X.Ceil()+boxPad,
		(baseline+b.Max.Y).Ceil()+boxPad,
	)
	outline(img, box, r.ink)
}

func (r *Renderer) text(d *font.Drawer, s string, x, baseline int) {
	if s == "" {
		return
	}
	d.Dot = fixed.P(x, baseline)
	d.DrawString(s)
}

func (r *Renderer) measure(s string) int {
	if s == "" {
		return 0
	}
	return font.MeasureString(r.face, s).Ceil()
}

// Render draws t with label and returns the PNG encoding.
func (r *Renderer) Render(ctx context.Context, t model.Table, label string) ([]byte, error) {
	start := time.Now()

	r.mu.Lock()
	img, err := r.draw(t, label)
	r.mu.Unlock()
	if err != nil {
		metrics.RecordErrorByComponent("render", "too_large")
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		metrics.RecordErrorByComponent("render", "encode")
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	metrics.RecordRender(float64(time.Since(start).Microseconds())/1000, buf.Len())
	if r.logger != nil {
		r.logger.Debug(ctx, "table rendered",
			logger.Int("rows", t.Len()),
			logger.Int("bytes", buf.Len()),
			logger.String("label", label),
		)
	}
	return buf.Bytes(), nil
}

// columnHeaders returns the schema headers, extended with blank headers for
// any extra cells a row carries.
func columnHeaders(t model.Table) []string {
	h := model.Headers()
	for len(h) < t.Width() {
		h = append(h, "")
	}
	return h
}

// outline draws a one pixel rectangle border clipped to img.
func outline(img *image.RGBA, rect image.Rectangle, c color.Color) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.Set(x, rect.Min.Y, c)
		img.Set(x, rect.Max.Y-1, c)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.Set(rect.Min.X, y, c)
		img.Set(rect.Max.X-1, y, c)
	}
}
