package live

import (
	"sync"
	"time"
)

// Clock reports the playback clock in seconds
type Clock interface {
	Now() float64
}

// Player plays scheduled fragments on the output device
type Player interface {
	// Play schedules samples to start at start seconds on the playback clock
	Play(samples []float32, sampleRate int, start float64) error

	// StopAll stops and discards every scheduled or playing fragment
	StopAll()
}

// WallClock counts seconds since it was created
type WallClock struct {
	origin time.Time
}

// NewWallClock creates a clock starting at zero
func NewWallClock() *WallClock {
	return &WallClock{origin: time.Now()}
}

func (c *WallClock) Now() float64 {
	return time.Since(c.origin).Seconds()
}

// Scheduler lays inbound fragments back to back on the playback clock.
// next only moves forward until Reset sets it back to zero.
type Scheduler struct {
	clock      Clock
	player     Player
	sampleRate int

	mu   sync.Mutex
	next float64
}

// NewScheduler creates a scheduler for fragments at sampleRate
func NewScheduler(clock Clock, player Player, sampleRate int) *Scheduler {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	return &Scheduler{clock: clock, player: player, sampleRate: sampleRate}
}

// Schedule decodes a PCM fragment and plays it at max(next, now).
// It returns the chosen start time.
func (s *Scheduler) Schedule(pcm []byte) (float64, error) {
	samples := DecodePCM16(pcm)
	if len(samples) == 0 {
		return 0, nil
	}
	duration := float64(len(samples)) / float64(s.sampleRate)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.next
	if now := s.clock.Now(); now > start {
		start = now
	}
	if err := s.player.Play(samples, s.sampleRate, start); err != nil {
		return 0, err
	}
	s.next = start + duration
	return start, nil
}

// Reset stops playback and clears the schedule. Used for interruptions and disconnects.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.StopAll()
	s.next = 0
}

// Next returns the time the next fragment would start at, ignoring the clock
func (s *Scheduler) Next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
