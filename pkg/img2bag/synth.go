package img2bag

import (
	"bytes"
	"image"
	"io"
	"os"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/tstromberg/img2bag/pkg/rosmsg"
)

// Frame is an image message and its camera info.
type Frame struct {
	Image *rosmsg.Image
	Info  *rosmsg.CameraInfo
}

// Stamp sets the header of both messages.
func (f *Frame) Stamp(ts Timestamp, frameID string) {
	h := rosmsg.Header{Stamp: ts.Msg(), FrameID: frameID}
	f.Image.Header = h
	f.Info.Header = h
}

// Calibration returns flattened D, K, R and P for an ideal pinhole camera of
// the given size. Nothing is measured.
func Calibration(width, height int) (d []float64, k [9]float64, r [9]float64, p [12]float64) {
	w := float64(width)
	h := float64(height)
	aspect := h / w

	d = make([]float64, 5)

	//     [fx  0 cx]
	// K = [ 0 fy cy]
	//     [ 0  0  1]
	k = [9]float64{
		w, 0, w / 2,
		0, h / aspect, h / 2,
		0, 0, 1,
	}

	r = [9]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}

	// P = [K | 0]
	p = [12]float64{
		k[0], k[1], k[2], 0,
		k[3], k[4], k[5], 0,
		k[6], k[7], k[8], 0,
	}
	return d, k, r, p
}

// Synthesize builds the message pair for img. Headers are left empty.
func Synthesize(img image.Image, size *Size) (*Frame, error) {
	enc, err := encodingOf(img)
	if err != nil {
		return nil, err
	}

	if size != nil {
		img, err = resize(img, *size)
		if err != nil {
			return nil, err
		}
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	d, k, r, p := Calibration(w, h)

	return &Frame{
		Image: &rosmsg.Image{
			Height:      uint32(h),
			Width:       uint32(w),
			Encoding:    enc.String(),
			IsBigendian: false,
			Step:        uint32(w * enc.Channels()),
			Data:        pixels(img, enc),
		},
		Info: &rosmsg.CameraInfo{
			Height:          uint32(h),
			Width:           uint32(w),
			DistortionModel: rosmsg.DistortionPlumbBob,
			D:               d,
			K:               k,
			R:               r,
			P:               p,
		},
	}, nil
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// pngColorGrayAlpha is the IHDR colour type for grayscale with alpha.
const pngColorGrayAlpha = 4

// isGrayAlphaPNG reports whether path is a grayscale+alpha PNG. image/png
// widens those to NRGBA, which would otherwise pass as rgba8.
func isGrayAlphaPNG(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	// signature, chunk length, "IHDR", width, height, bit depth, colour type
	var hdr [26]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return false
	}
	return bytes.Equal(hdr[:8], pngSignature) && string(hdr[12:16]) == "IHDR" && hdr[25] == pngColorGrayAlpha
}

// load decodes and converts one file. Every failure is a *SkipError.
func load(path string, size *Size) (*Frame, error) {
	if isGrayAlphaPNG(path) {
		return nil, &SkipError{Path: path, Err: &UnsupportedModeError{Mode: "LA"}}
	}

	img, err := imgio.Open(path)
	if err != nil {
		return nil, &SkipError{Path: path, Err: err}
	}

	f, err := Synthesize(img, size)
	if err != nil {
		return nil, &SkipError{Path: path, Err: err}
	}
	return f, nil
}
