// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package source

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/framebuffer"
	"github.com/gogpu/compose/internal/cache"
)

// ErrUnknownFit is returned by ParseFit.
var ErrUnknownFit = errors.New("source: unknown fit mode")

// Image is a static image source. The image is uploaded on the first frame
// and again only after SetImage.
type Image struct {
	img   *image.RGBA
	dirty bool
	up    upload
}

// NewImage returns a source for img. The pixels are copied.
func NewImage(img image.Image) *Image {
	return &Image{img: clone.AsRGBA(img), dirty: true}
}

// SetImage replaces the image; it is uploaded on the next frame.
func (s *Image) SetImage(img image.Image) {
	s.img = clone.AsRGBA(img)
	s.dirty = true
}

// Bounds returns the image bounds.
func (s *Image) Bounds() image.Rectangle { return s.img.Rect }

// Render uploads the image if it changed and returns its buffer.
func (s *Image) Render(ctx *compose.FrameContext) (*framebuffer.FrameBuffer, error) {
	if !s.dirty && s.up.fb != nil && s.up.pool == ctx.Pool {
		return s.up.fb, nil
	}
	fb, err := s.up.write(ctx, s.img)
	if err != nil {
		return nil, err
	}
	s.dirty = false
	return fb, nil
}

// Output returns the uploaded buffer.
func (s *Image) Output() *framebuffer.FrameBuffer { return s.up.fb }

// Release returns the buffer to its pool. The next Render uploads again.
func (s *Image) Release() { s.up.release() }

// Resize scales img to w x h with linear filtering.
func Resize(img image.Image, w, h int) *image.RGBA {
	return transform.Resize(img, w, h, transform.Linear)
}

// Fit selects how a loaded image is fitted to a target size.
type Fit uint8

const (
	// FitNone keeps the image size.
	FitNone Fit = iota
	// FitStretch scales to the target size ignoring aspect ratio.
	FitStretch
	// FitFill scales and center-crops to cover the target.
	FitFill
	// FitContain scales to fit inside the target and centers the result
	// on a transparent background.
	FitContain
)

var fitNames = [...]string{"none", "stretch", "fill", "contain"}

func (f Fit) String() string {
	if int(f) < len(fitNames) {
		return fitNames[f]
	}
	return fmt.Sprintf("Fit(%d)", f)
}

// ParseFit parses a fit mode name. The empty string is FitNone.
func ParseFit(s string) (Fit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FitNone, nil
	}
	for i, n := range fitNames {
		if n == s {
			return Fit(i), nil
		}
	}
	return FitNone, fmt.Errorf("%w: %q", ErrUnknownFit, s)
}

// Apply fits img to w x h. Non-positive sizes return img unchanged.
func (f Fit) Apply(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return img
	}
	switch f {
	case FitStretch:
		return imaging.Resize(img, w, h, imaging.Lanczos)
	case FitFill:
		return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	case FitContain:
		fitted := imaging.Fit(img, w, h, imaging.Lanczos)
		return imaging.PasteCenter(imaging.New(w, h, color.Transparent), fitted)
	default:
		return img
	}
}

// fileKey identifies a decoded and fitted file. A modified file gets a
// new key.
type fileKey struct {
	path    string
	modTime int64
	size    int64
	w, h    int
	fit     Fit
}

// files keeps recently opened images so that rebuilding a source from the
// same unchanged file skips decoding.
var files = cache.New[fileKey, image.Image](32)

// OpenFile decodes an image file, honoring EXIF orientation, and fits it
// to w x h. Decoded files are cached until they change on disk.
func OpenFile(path string, w, h int, fit Fit) (*Image, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	key := fileKey{path: path, modTime: fi.ModTime().UnixNano(), size: fi.Size(), w: w, h: h, fit: fit}
	img, err := files.GetOrLoad(key, func() (image.Image, error) {
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("source: open %s: %w", path, err)
		}
		compose.Logger().Debug("source: image decoded", "path", path, "bounds", img.Bounds(), "fit", fit)
		return fit.Apply(img, w, h), nil
	})
	if err != nil {
		return nil, err
	}
	return NewImage(img), nil
}

// NewGradient returns a static linear gradient from one color to another,
// left to right or top to bottom.
func NewGradient(w, h int, from, to color.Color, vertical bool) *Image {
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	a := color.RGBAModel.Convert(from).(color.RGBA)
	b := color.RGBAModel.Convert(to).(color.RGBA)
	n := img.Rect.Dx()
	if vertical {
		n = img.Rect.Dy()
	}
	for y := 0; y < img.Rect.Dy(); y++ {
		for x := 0; x < img.Rect.Dx(); x++ {
			i := x
			if vertical {
				i = y
			}
			t := 0.0
			if n > 1 {
				t = float64(i) / float64(n-1)
			}
			img.SetRGBA(x, y, mix(a, b, t))
		}
	}
	return &Image{img: img, dirty: true}
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	l := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return color.RGBA{l(a.R, b.R), l(a.G, b.G), l(a.B, b.B), l(a.A, b.A)}
}
