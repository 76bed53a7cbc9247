package rosmsg

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// decoder reads back what encoder writes.
type decoder struct {
	buf []byte
	off int
	t   *testing.T
}

func newDecoder(t *testing.T, b []byte) *decoder {
	t.Helper()
	if len(b) < 4 || [4]byte(b[:4]) != cdrLE {
		t.Fatalf("bad encapsulation header: % x", b)
	}
	return &decoder{buf: b[4:], t: t}
}

func (d *decoder) align(n int) {
	for d.off%n != 0 {
		d.off++
	}
}

func (d *decoder) uint8() uint8 {
	v := d.buf[d.off]
	d.off++
	return v
}

func (d *decoder) uint32() uint32 {
	d.align(4)
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *decoder) float64() float64 {
	d.align(8)
	v := math.Float64frombits(binary.LittleEndian.Uint64(d.buf[d.off:]))
	d.off += 8
	return v
}

func (d *decoder) string() string {
	n := int(d.uint32())
	s := d.buf[d.off : d.off+n]
	d.off += n
	if s[n-1] != 0 {
		d.t.Fatalf("string %q is not NUL terminated", s)
	}
	return string(s[:n-1])
}

func (d *decoder) bytes() []byte {
	n := int(d.uint32())
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) header() Header {
	sec := int32(d.uint32())
	nsec := d.uint32()
	return Header{Stamp: Time{Sec: sec, Nanosec: nsec}, FrameID: d.string()}
}

func TestImageMarshalCDR(t *testing.T) {
	in := &Image{
		Header:   Header{Stamp: Time{Sec: 1700000000, Nanosec: 500000000}, FrameID: "cam"},
		Height:   1,
		Width:    2,
		Encoding: "rgb8",
		Step:     6,
		Data:     []byte{1, 2, 3, 4, 5, 6},
	}

	b := in.MarshalCDR()
	if len(b) != 54 {
		t.Errorf("len = %d, want 54", len(b))
	}

	d := newDecoder(t, b)
	got := &Image{
		Header:      d.header(),
		Height:      d.uint32(),
		Width:       d.uint32(),
		Encoding:    d.string(),
		IsBigendian: d.uint8() == 1,
		Step:        d.uint32(),
		Data:        d.bytes(),
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("decoded image mismatch (-want +got):\n%s", diff)
	}
	if d.off != len(d.buf) {
		t.Errorf("%d trailing bytes", len(d.buf)-d.off)
	}
}

func TestCameraInfoMarshalCDR(t *testing.T) {
	in := &CameraInfo{
		Header:          Header{Stamp: Time{Sec: 10, Nanosec: 1}, FrameID: "front"},
		Height:          480,
		Width:           640,
		DistortionModel: DistortionPlumbBob,
		D:               make([]float64, 5),
		K:               [9]float64{640, 0, 320, 0, 640, 240, 0, 0, 1},
		R:               [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		P:               [12]float64{640, 0, 320, 0, 0, 640, 240, 0, 0, 0, 1, 0},
	}

	d := newDecoder(t, in.MarshalCDR())
	got := &CameraInfo{
		Header:          d.header(),
		Height:          d.uint32(),
		Width:           d.uint32(),
		DistortionModel: d.string(),
	}
	got.D = make([]float64, d.uint32())
	for i := range got.D {
		got.D[i] = d.float64()
	}
	for i := range got.K {
		got.K[i] = d.float64()
	}
	for i := range got.R {
		got.R[i] = d.float64()
	}
	for i := range got.P {
		got.P[i] = d.float64()
	}
	got.BinningX = d.uint32()
	got.BinningY = d.uint32()
	got.ROI = RegionOfInterest{
		XOffset:   d.uint32(),
		YOffset:   d.uint32(),
		Height:    d.uint32(),
		Width:     d.uint32(),
		DoRectify: d.uint8() == 1,
	}

	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("decoded camera info mismatch (-want +got):\n%s", diff)
	}
	if d.off != len(d.buf) {
		t.Errorf("%d trailing bytes", len(d.buf)-d.off)
	}
}

func TestDefinition(t *testing.T) {
	for _, mt := range []string{ImageType, CameraInfoType} {
		def := Definition(mt)
		if !strings.Contains(def, "MSG: std_msgs/Header") {
			t.Errorf("%s definition lacks std_msgs/Header: %q", mt, def)
		}
	}
	if got := Definition("std_msgs/msg/String"); got != "" {
		t.Errorf("Definition(unknown) = %q, want empty", got)
	}
}
