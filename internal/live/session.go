package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
)

// State is the connection state of a live session
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

var (
	// ErrQueueFull is returned when captured audio arrives faster than it can be sent
	ErrQueueFull = errors.New("live: outbound audio queue is full")
	// ErrAlreadyConnected is returned by Connect on an active session
	ErrAlreadyConnected = errors.New("live: session already active")
	// ErrClosed is returned by Connect when Close ran while it was dialing
	ErrClosed = errors.New("live: session closed while connecting")
)

const (
	statusConnecting   = "Connecting..."
	statusConnected    = "Connected"
	statusDisconnected = "Disconnected"
	statusError        = "Connection error with the server."
)

// Options configures a session
type Options struct {
	Model            string
	Voice            string
	InputSampleRate  int
	OutputSampleRate int
	QueueSize        int

	// OnStatus is called on every state change with a human-readable status.
	// It runs with the session lock held and must not call back into the session.
	OnStatus func(state State, status string)
}

// link is one open connection and the goroutines serving it. A failed link
// stays on the session until Close or the next Connect reaps it, so its
// goroutines are always waited for.
type link struct {
	conn   provider.LiveConn
	ctx    context.Context
	cancel context.CancelFunc
	queue  chan provider.Blob
	wg     sync.WaitGroup

	failed    bool // guarded by Session.mu
	closeOnce sync.Once
	closeErr  error
}

func (l *link) shutdown() error {
	l.closeOnce.Do(func() {
		l.cancel()
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

// Session is a bidirectional live audio session. Captured audio is queued
// and sent by a single writer goroutine; inbound audio is scheduled for
// gapless playback by a single receiver goroutine.
type Session struct {
	model      provider.Model
	classifier *apierror.Classifier
	opts       Options
	scheduler  *Scheduler

	mu     sync.Mutex
	state  State
	status string
	muted  bool
	link   *link
	// gen changes on every Connect and Close; a dial that finishes under
	// a different generation lost to a teardown
	gen uint64

	dropped atomic.Int64
}

// NewSession creates a disconnected session
func NewSession(model provider.Model, classifier *apierror.Classifier, player Player, clock Clock, opts Options) *Session {
	if opts.InputSampleRate <= 0 {
		opts.InputSampleRate = 16000
	}
	if opts.OutputSampleRate <= 0 {
		opts.OutputSampleRate = 24000
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Voice == "" {
		opts.Voice = "Zephyr"
	}
	return &Session{
		model:      model,
		classifier: classifier,
		opts:       opts,
		scheduler:  NewScheduler(clock, player, opts.OutputSampleRate),
		state:      StateDisconnected,
		status:     statusDisconnected,
	}
}

// Connect opens the session. ctx bounds the lifetime of the whole session.
// It is valid from the disconnected and error states.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateConnecting || s.state == StateConnected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	stale := s.link
	s.link = nil
	s.gen++
	gen := s.gen
	s.setStateLocked(StateConnecting, statusConnecting)
	s.mu.Unlock()

	if stale != nil {
		stale.shutdown()
		stale.wg.Wait()
	}

	conn, err := s.model.ConnectLive(ctx, provider.LiveRequest{Model: s.opts.Model, Voice: s.opts.Voice})
	if err != nil {
		err = s.classifier.Check(ctx, fmt.Errorf("connect live session: %w", err))
		s.mu.Lock()
		if s.gen == gen {
			s.setStateLocked(StateError, "Connection failed: "+apierror.UserMessage(err))
		}
		s.mu.Unlock()
		log.Error().Str("component", "live").Err(err).Msg("Live session connect failed")
		return err
	}

	lctx, cancel := context.WithCancel(ctx)
	l := &link{
		conn:   conn,
		ctx:    lctx,
		cancel: cancel,
		queue:  make(chan provider.Blob, s.opts.QueueSize),
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		l.shutdown()
		log.Info().Str("component", "live").Msg("Live session closed while connecting")
		return ErrClosed
	}
	l.wg.Add(2)
	s.link = l
	s.setStateLocked(StateConnected, statusConnected)
	s.mu.Unlock()

	go s.writer(l)
	go s.receiver(l)

	log.Info().Str("component", "live").Str("voice", s.opts.Voice).Msg("Live session connected")
	return nil
}

// PushCapture encodes one captured buffer and queues it for sending.
// Frames are dropped while muted or not connected.
func (s *Session) PushCapture(samples []float32) error {
	s.mu.Lock()
	l := s.link
	skip := s.muted || s.state != StateConnected || l == nil
	s.mu.Unlock()
	if skip || len(samples) == 0 {
		return nil
	}

	frame := provider.Blob{MIMEType: PCMMimeType(s.opts.InputSampleRate), Data: EncodePCM16(samples)}
	select {
	case l.queue <- frame:
		return nil
	case <-l.ctx.Done():
		return nil
	default:
		s.dropped.Add(1)
		return ErrQueueFull
	}
}

// SetMuted toggles the mute flag
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
}

// State returns the connection state, mute flag and status string
func (s *Session) State() (State, bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.muted, s.status
}

// Dropped returns how many frames were rejected because the queue was full
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

// Close tears the session down. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	l := s.link
	s.link = nil
	s.gen++
	s.mu.Unlock()

	var err error
	if l != nil {
		err = l.shutdown()
		l.wg.Wait()
	}
	s.scheduler.Reset()

	s.mu.Lock()
	if s.state != StateDisconnected {
		s.setStateLocked(StateDisconnected, statusDisconnected)
	}
	s.mu.Unlock()
	return err
}

func (s *Session) writer(l *link) {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case frame := <-l.queue:
			if err := l.conn.Send(l.ctx, frame); err != nil {
				s.fail(l, err)
				return
			}
		}
	}
}

func (s *Session) receiver(l *link) {
	defer l.wg.Done()
	for {
		msg, err := l.conn.Receive(l.ctx)
		if err != nil {
			s.fail(l, err)
			return
		}
		// an interruption discards stale audio before this message's fragments play
		if msg.Interrupted {
			s.scheduler.Reset()
		}
		for _, frag := range msg.Audio {
			if _, err := s.scheduler.Schedule(frag.Data); err != nil {
				log.Warn().Str("component", "live").Err(err).Msg("Failed to schedule audio fragment")
			}
		}
	}
}

// fail ends a link after a transport error. A clean close from the server
// disconnects; anything else moves to the error state. Never reconnects.
func (s *Session) fail(l *link, err error) {
	if l.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.link != l || l.failed {
		s.mu.Unlock()
		return
	}
	l.failed = true
	if errors.Is(err, io.EOF) {
		s.setStateLocked(StateDisconnected, statusDisconnected)
	} else {
		s.setStateLocked(StateError, statusError)
	}
	s.mu.Unlock()

	l.shutdown()
	s.scheduler.Reset()

	if !errors.Is(err, io.EOF) {
		log.Error().Str("component", "live").Err(err).Msg("Live session transport error")
	}
}

func (s *Session) setStateLocked(state State, status string) {
	s.state = state
	s.status = status
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(state, status)
	}
}
