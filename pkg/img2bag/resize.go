package img2bag

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"
)

// Size is a resize target. A dimension <= 0 is derived from the other one,
// keeping the aspect ratio of the source.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

func (s Size) validate() error {
	if s.Width <= 0 && s.Height <= 0 {
		return errors.New("at least one of width and height must be positive")
	}
	return nil
}

// ParseSize parses "WIDTH", "WIDTHxHEIGHT" or "WIDTH,HEIGHT".
func ParseSize(s string) (*Size, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == 'x' || r == ',' })
	if len(parts) == 0 || len(parts) > 2 || strings.Count(s, "x")+strings.Count(s, ",") != len(parts)-1 {
		return nil, fmt.Errorf("image size %q: want WIDTH, WIDTHxHEIGHT or WIDTH,HEIGHT", s)
	}

	dims := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("image size %q: %w", s, err)
		}
		dims[i] = int(n)
	}

	sz := &Size{Width: dims[0]}
	if len(dims) == 2 {
		sz.Height = dims[1]
	}
	if err := sz.validate(); err != nil {
		return nil, fmt.Errorf("image size %q: %w", s, err)
	}
	return sz, nil
}

// For returns the concrete size for a w x h source.
func (s Size) For(w, h int) (int, int) {
	switch {
	case s.Width <= 0:
		return int(float64(w) * float64(s.Height) / float64(h)), s.Height
	case s.Height <= 0:
		return s.Width, int(float64(h) * float64(s.Width) / float64(w))
	}
	return s.Width, s.Height
}

func resize(img image.Image, s Size) (image.Image, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image %+v", b)
	}

	x, y := s.For(b.Dx(), b.Dy())
	if x <= 0 || y <= 0 {
		return nil, fmt.Errorf("cannot resize %dx%d to %dx%d", b.Dx(), b.Dy(), x, y)
	}

	klog.V(2).Infof("resizing %dx%d -> %dx%d", b.Dx(), b.Dy(), x, y)
	return transform.Resize(img, x, y, transform.CatmullRom), nil
}
