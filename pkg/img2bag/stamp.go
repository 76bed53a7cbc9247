package img2bag

import (
	"errors"
	"math"

	"github.com/tstromberg/img2bag/pkg/rosmsg"
)

const nsPerSec = 1_000_000_000

// Timestamp is a point in time split into whole seconds and nanoseconds.
// Nsec is always in [0, 1e9).
type Timestamp struct {
	Sec  int64
	Nsec int64
}

// SplitUnix splits a floating point Unix time. Nanoseconds come from the
// fractional part rather than from (t*1e9) mod 1e9, which loses precision at
// current epochs and can disagree with the seconds by a few hundred ns.
func SplitUnix(t float64) Timestamp {
	sec := math.Floor(t)
	ts := Timestamp{Sec: int64(sec), Nsec: int64(math.Floor((t - sec) * nsPerSec))}
	if ts.Nsec >= nsPerSec {
		ts.Sec++
		ts.Nsec -= nsPerSec
	}
	return ts
}

// UnixNano returns the timestamp as nanoseconds since the epoch.
func (t Timestamp) UnixNano() int64 {
	return t.Sec*nsPerSec + t.Nsec
}

// Msg returns the timestamp as builtin_interfaces/Time.
func (t Timestamp) Msg() rosmsg.Time {
	return rosmsg.Time{Sec: int32(t.Sec), Nanosec: uint32(t.Nsec)}
}

// Sequencer hands out timestamps spaced 1/rate seconds apart. Repeated
// float addition drifts slightly, as real playback would.
type Sequencer struct {
	cursor float64
	step   float64
}

// NewSequencer starts at start (Unix seconds). The sign of rate is ignored.
func NewSequencer(start float64, rate float64) (*Sequencer, error) {
	r := math.Abs(rate)
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, errors.New("rate must be a finite non-zero number")
	}
	return &Sequencer{cursor: start, step: 1 / r}, nil
}

// Next returns the current timestamp and advances the cursor.
func (s *Sequencer) Next() Timestamp {
	ts := SplitUnix(s.cursor)
	s.cursor += s.step
	return ts
}
