package rosmsg

import (
	"encoding/binary"
	"math"
)

// encapsulation header for little-endian plain CDR (XCDR1)
var cdrLE = [4]byte{0x00, 0x01, 0x00, 0x00}

// encoder appends CDR primitives. Alignment is relative to the end of the
// encapsulation header.
type encoder struct {
	buf []byte
}

func newEncoder(hint int) *encoder {
	e := &encoder{buf: make([]byte, 0, hint+len(cdrLE))}
	e.buf = append(e.buf, cdrLE[:]...)
	return e
}

func (e *encoder) align(n int) {
	for (len(e.buf)-len(cdrLE))%n != 0 {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) uint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) bool(v bool) {
	if v {
		e.uint8(1)
		return
	}
	e.uint8(0)
}

func (e *encoder) uint32(v uint32) {
	e.align(4)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) int32(v int32) {
	e.uint32(uint32(v))
}

func (e *encoder) float64(v float64) {
	e.align(8)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// string writes a length that includes the trailing NUL.
func (e *encoder) string(s string) {
	e.uint32(uint32(len(s) + 1))
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
}

func (e *encoder) bytes(b []byte) {
	e.uint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) float64Seq(vs []float64) {
	e.uint32(uint32(len(vs)))
	e.float64Array(vs)
}

func (e *encoder) float64Array(vs []float64) {
	for _, v := range vs {
		e.float64(v)
	}
}

func (e *encoder) header(h Header) {
	e.int32(h.Stamp.Sec)
	e.uint32(h.Stamp.Nanosec)
	e.string(h.FrameID)
}
