package audio

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
)

// Clip is decoded audio held in memory.
type Clip struct {
	Format  beep.Format
	Samples [][2]float64
}

func (c *Clip) Len() int {
	return len(c.Samples)
}

func (c *Clip) Duration() time.Duration {
	return c.Format.SampleRate.D(len(c.Samples))
}

// Index converts seconds to a sample index clamped to the clip.
func (c *Clip) Index(seconds float64) int {
	i := c.Format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if i < 0 {
		return 0
	}
	if i > len(c.Samples) {
		return len(c.Samples)
	}
	return i
}

// Window returns the part of the clip within duration/2 seconds of
// position, clamped to the clip. The samples are shared.
func (c *Clip) Window(position, duration float64) *Clip {
	from, to := c.Index(position-duration/2), c.Index(position+duration/2)
	return &Clip{Format: c.Format, Samples: c.Samples[from:to]}
}

// Streamer plays the clip from the start.
func (c *Clip) Streamer() beep.StreamSeeker {
	return &clipStreamer{samples: c.Samples}
}

type clipStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *clipStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := copy(samples, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *clipStreamer) Err() error {
	return nil
}

func (s *clipStreamer) Len() int {
	return len(s.samples)
}

func (s *clipStreamer) Position() int {
	return s.pos
}

func (s *clipStreamer) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("seek position %d is outside 0-%d", p, len(s.samples))
	}
	s.pos = p
	return nil
}
