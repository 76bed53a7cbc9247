package img2bag

import (
	"fmt"
	"image"
	"image/color"
)

// Encoding is a pixel encoding that can be written to a bag.
type Encoding int

const (
	RGB8 Encoding = iota + 1
	RGBA8
	Mono8
)

func (e Encoding) String() string {
	switch e {
	case RGB8:
		return "rgb8"
	case RGBA8:
		return "rgba8"
	case Mono8:
		return "mono8"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// Channels returns the bytes per pixel.
func (e Encoding) Channels() int {
	switch e {
	case RGB8:
		return 3
	case RGBA8:
		return 4
	case Mono8:
		return 1
	}
	return 0
}

// UnsupportedModeError is returned for decoded images with no matching Encoding.
type UnsupportedModeError struct {
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("unsupported image mode '%s'", e.Mode)
}

// encodingOf maps the decoder's in-memory representation to an Encoding.
func encodingOf(img image.Image) (Encoding, error) {
	switch img.(type) {
	case *image.YCbCr, *image.RGBA:
		return RGB8, nil
	case *image.NRGBA, *image.NYCbCrA:
		return RGBA8, nil
	case *image.Gray:
		return Mono8, nil
	}
	return 0, &UnsupportedModeError{Mode: modeName(img)}
}

func modeName(img image.Image) string {
	switch img.(type) {
	case *image.Paletted:
		return "P"
	case *image.CMYK:
		return "CMYK"
	case *image.Gray16:
		return "I;16"
	case *image.RGBA64, *image.NRGBA64:
		return "RGBA;16"
	case *image.Alpha, *image.Alpha16:
		return "A"
	}
	return fmt.Sprintf("%T", img)
}

// pixels packs img row by row in the layout of e.
func pixels(img image.Image, e Encoding) []byte {
	b := img.Bounds()
	n := e.Channels()
	out := make([]byte, 0, b.Dx()*b.Dy()*n)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			switch e {
			case RGB8:
				rgba := color.RGBAModel.Convert(c).(color.RGBA)
				out = append(out, rgba.R, rgba.G, rgba.B)
			case RGBA8:
				nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
				out = append(out, nrgba.R, nrgba.G, nrgba.B, nrgba.A)
			case Mono8:
				out = append(out, color.GrayModel.Convert(c).(color.Gray).Y)
			}
		}
	}
	return out
}
