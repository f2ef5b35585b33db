// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/gogpu/compose/internal/blend"
	"github.com/gogpu/compose/internal/filter"
	"github.com/gogpu/compose/internal/parallel"
	"github.com/gogpu/gputypes"
)

// Quality selects the resampling kernel used when a pass stretches an input
// to a viewport of a different size.
type Quality = filter.Quality

// Resampling kernels.
const (
	QualityNearest  = filter.QualityNearest
	QualityBilinear = filter.QualityBilinear
	QualityBest     = filter.QualityBest
)

// SoftwareOption configures a SoftwareBackend.
type SoftwareOption func(*softwareOptions)

type softwareOptions struct {
	presenter   Presenter
	maxTextures int
	quality     Quality
	workers     int
}

// WithPresenter sets where Present delivers finished frames.
// Without a presenter Present only counts frames.
func WithPresenter(p Presenter) SoftwareOption {
	return func(o *softwareOptions) {
		o.presenter = p
	}
}

// WithMaxTextures limits the number of live textures. NewTexture returns
// ErrOutOfMemory once the limit is reached. Zero means unlimited.
func WithMaxTextures(n int) SoftwareOption {
	return func(o *softwareOptions) {
		if n >= 0 {
			o.maxTextures = n
		}
	}
}

// WithQuality sets the resampling kernel. Default is QualityBilinear.
func WithQuality(q Quality) SoftwareOption {
	return func(o *softwareOptions) {
		o.quality = q
	}
}

// WithWorkers blends row bands on n worker goroutines. Values below 2 keep
// every pass on the calling goroutine, which is the default.
func WithWorkers(n int) SoftwareOption {
	return func(o *softwareOptions) {
		o.workers = n
	}
}

// SoftwareStats counts backend activity since creation.
type SoftwareStats struct {
	Passes          int
	TexturesCreated int
	TexturesLive    int
	Presents        int
}

// SoftwareBackend executes passes on the CPU over RGBA8 images.
//
// It is the reference backend: every pass kind, blend operator and filter
// program has an exact CPU rendition, so compositions can be rendered
// headless and compared pixel by pixel in tests.
//
// Example:
//
//	backend := render.NewSoftwareBackend(render.WithPresenter(
//	    render.PresenterFunc(func(img *image.RGBA) error {
//	        return png.Encode(f, img)
//	    })))
//	defer backend.Destroy()
type SoftwareBackend struct {
	opts      softwareOptions
	workers   *parallel.WorkerPool
	live      map[*softwareTexture]struct{}
	scratch   []byte
	snapshot  []byte
	stats     SoftwareStats
	destroyed bool
}

// NewSoftwareBackend creates a CPU backend.
func NewSoftwareBackend(opts ...SoftwareOption) *SoftwareBackend {
	o := softwareOptions{quality: QualityBilinear}
	for _, opt := range opts {
		opt(&o)
	}
	b := &SoftwareBackend{
		opts: o,
		live: make(map[*softwareTexture]struct{}),
	}
	if o.workers > 1 {
		b.workers = parallel.NewWorkerPool(o.workers)
	}
	return b
}

// SetLogger sets the logger for the render package.
func (b *SoftwareBackend) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// softwareTexture is an image owned by a SoftwareBackend.
type softwareTexture struct {
	owner     *SoftwareBackend
	img       *image.RGBA
	label     string
	format    gputypes.TextureFormat
	destroyed bool
}

func (t *softwareTexture) Width() uint32                  { return uint32(t.img.Rect.Dx()) }
func (t *softwareTexture) Height() uint32                 { return uint32(t.img.Rect.Dy()) }
func (t *softwareTexture) Format() gputypes.TextureFormat { return t.format }
func (t *softwareTexture) Label() string                  { return t.label }

// Destroy releases the texture. Destroy is idempotent.
func (t *softwareTexture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	if t.owner != nil {
		delete(t.owner.live, t)
		t.owner.stats.TexturesLive = len(t.owner.live)
	}
	t.img = &image.RGBA{}
}

// NewTexture allocates a zeroed RGBA8 texture.
func (b *SoftwareBackend) NewTexture(desc TextureDescriptor) (Texture, error) {
	if b.destroyed {
		return nil, ErrBackendDestroyed
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = DefaultFormat
	}
	if format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if b.opts.maxTextures > 0 && len(b.live) >= b.opts.maxTextures {
		return nil, fmt.Errorf("%w: %d live textures", ErrOutOfMemory, len(b.live))
	}

	t := &softwareTexture{
		owner:  b,
		img:    image.NewRGBA(image.Rect(0, 0, int(desc.Width), int(desc.Height))),
		label:  desc.Label,
		format: format,
	}
	b.live[t] = struct{}{}
	b.stats.TexturesCreated++
	b.stats.TexturesLive = len(b.live)
	slogger().Debug("render: texture created",
		"label", desc.Label, "width", desc.Width, "height", desc.Height)
	return t, nil
}

// own resolves tex to a live texture of this backend.
func (b *SoftwareBackend) own(tex Texture) (*softwareTexture, error) {
	if b.destroyed {
		return nil, ErrBackendDestroyed
	}
	if tex == nil {
		return nil, fmt.Errorf("%w: nil texture", ErrForeignTexture)
	}
	t, ok := tex.(*softwareTexture)
	if !ok || t.owner != b {
		return nil, ErrForeignTexture
	}
	if t.destroyed {
		return nil, fmt.Errorf("%w: %q", ErrTextureDestroyed, t.label)
	}
	return t, nil
}

// WriteTexture uploads img into tex.
func (b *SoftwareBackend) WriteTexture(tex Texture, img *image.RGBA) error {
	t, err := b.own(tex)
	if err != nil {
		return err
	}
	if img == nil || img.Rect.Size() != t.img.Rect.Size() {
		var got image.Point
		if img != nil {
			got = img.Rect.Size()
		}
		return fmt.Errorf("%w: got %v, texture %v", ErrSizeMismatch, got, t.img.Rect.Size())
	}
	filter.Stretch(t.img, t.img.Rect, img, QualityNearest)
	return nil
}

// ReadTexture returns a copy of the texture contents.
func (b *SoftwareBackend) ReadTexture(tex Texture) (*image.RGBA, error) {
	t, err := b.own(tex)
	if err != nil {
		return nil, err
	}
	return filter.Region(t.img, t.img.Rect), nil
}

// Clear fills tex with c, which must be premultiplied.
func (b *SoftwareBackend) Clear(tex Texture, c color.RGBA) error {
	t, err := b.own(tex)
	if err != nil {
		return err
	}
	fill(t.img, c)
	return nil
}

// Execute runs one pass.
func (b *SoftwareBackend) Execute(pass Pass) error {
	if b.destroyed {
		return ErrBackendDestroyed
	}
	if err := pass.Validate(); err != nil {
		return err
	}
	in, err := b.own(pass.Input)
	if err != nil {
		return fmt.Errorf("render: pass %q input: %w", pass.Label, err)
	}
	out, err := b.own(pass.Output)
	if err != nil {
		return fmt.Errorf("render: pass %q output: %w", pass.Label, err)
	}

	vp := pass.Viewport
	if vp.Empty() {
		vp = out.img.Rect
	}

	switch pass.Kind {
	case PassSingleInput:
		b.executeSingle(pass.Program, in, out, vp)
	case PassTwoInput:
		second, err := b.own(pass.Second)
		if err != nil {
			return fmt.Errorf("render: pass %q second input: %w", pass.Label, err)
		}
		b.executeTwo(pass.Program.(BlendProgram), in, second, out, vp)
	}

	b.stats.Passes++
	slogger().Debug("render: pass executed",
		"label", pass.Label, "kind", pass.Kind, "viewport", vp)
	return nil
}

func (b *SoftwareBackend) executeSingle(p Program, in, out *softwareTexture, vp image.Rectangle) {
	src := in.img
	if in == out {
		src = b.copyOf(in.img, &b.snapshot)
	}

	filter.Clear(out.img, out.img.Rect)
	if s, ok := p.(SamplerProgram); ok {
		s.Sample(out.img, vp, src)
	} else {
		filter.Stretch(out.img, vp, src, b.opts.quality)
	}
	if f, ok := p.(FilterProgram); ok {
		if r := vp.Intersect(out.img.Rect); !r.Empty() {
			f.Process(out.img, r)
		}
	}
}

func (b *SoftwareBackend) executeTwo(p BlendProgram, in, second, out *softwareTexture, vp image.Rectangle) {
	srcImg := second.img
	if second == out {
		srcImg = b.copyOf(second.img, &b.snapshot)
	}

	if in != out {
		filter.Clear(out.img, out.img.Rect)
		filter.Stretch(out.img, vp, in.img, b.opts.quality)
	}

	// The second input is resampled once into a viewport-sized buffer.
	src := b.scratchImage(vp.Dx(), vp.Dy())
	filter.Stretch(src, src.Rect, srcImg, b.opts.quality)

	clip := vp.Intersect(out.img.Rect)
	if clip.Empty() {
		return
	}
	fn := blend.Func(p.Blend())
	strength := strengthByte(p.Strength())
	n := clip.Dx()
	b.workers.Rows(clip, func(minY, maxY int) {
		for y := minY; y < maxY; y++ {
			row := out.img.Pix[out.img.PixOffset(clip.Min.X, y):]
			srow := src.Pix[src.PixOffset(clip.Min.X-vp.Min.X, y-vp.Min.Y):]
			blend.Row(row, row, srow, n, fn, strength)
		}
	})
}

// scratchImage returns a zero-origin image backed by the reusable scratch
// buffer. Its contents are undefined.
func (b *SoftwareBackend) scratchImage(w, h int) *image.RGBA {
	n := w * h * 4
	if cap(b.scratch) < n {
		b.scratch = make([]byte, n)
	}
	return &image.RGBA{Pix: b.scratch[:n], Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}

// copyOf snapshots img into buf so a pass can read it while writing img.
func (b *SoftwareBackend) copyOf(img *image.RGBA, buf *[]byte) *image.RGBA {
	n := len(img.Pix)
	if cap(*buf) < n {
		*buf = make([]byte, n)
	}
	pix := (*buf)[:n]
	copy(pix, img.Pix)
	return &image.RGBA{Pix: pix, Stride: img.Stride, Rect: img.Rect}
}

// Present delivers tex to the configured presenter.
func (b *SoftwareBackend) Present(tex Texture) error {
	t, err := b.own(tex)
	if err != nil {
		return err
	}
	b.stats.Presents++
	if b.opts.presenter == nil {
		return nil
	}
	if err := b.opts.presenter.Present(t.img); err != nil {
		return fmt.Errorf("render: present: %w", err)
	}
	return nil
}

// Capabilities reports the limits of the software backend.
func (b *SoftwareBackend) Capabilities() Capabilities {
	return Capabilities{MaxTextures: b.opts.maxTextures}
}

// Stats returns activity counters.
func (b *SoftwareBackend) Stats() SoftwareStats {
	return b.stats
}

// Destroy releases every live texture. Further calls fail with
// ErrBackendDestroyed.
func (b *SoftwareBackend) Destroy() {
	if b.destroyed {
		return
	}
	if n := len(b.live); n > 0 {
		slogger().Debug("render: destroying live textures", "count", n)
	}
	for t := range b.live {
		t.Destroy()
	}
	b.workers.Close()
	b.scratch, b.snapshot = nil, nil
	b.destroyed = true
}

func fill(img *image.RGBA, c color.RGBA) {
	if c == (color.RGBA{}) {
		clear(img.Pix)
		return
	}
	w := img.Rect.Dx()
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			row[x], row[x+1], row[x+2], row[x+3] = c.R, c.G, c.B, c.A
		}
	}
}

func strengthByte(s float32) byte {
	switch {
	case s <= 0:
		return 0
	case s >= 1:
		return 255
	default:
		return byte(s*255 + 0.5)
	}
}

// Ensure SoftwareBackend implements Backend.
var _ Backend = (*SoftwareBackend)(nil)
