package reconciliation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Saver debounces persistence of a working set. Every Touch restarts the
// delay; only one save runs at a time and a Touch during a save queues
// exactly one follow-up.
type Saver struct {
	save  func(ctx context.Context) error
	delay time.Duration
	log   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	pending bool
	stopped bool
	idle    chan struct{}
}

func NewSaver(delay time.Duration, save func(ctx context.Context) error, logger *slog.Logger) *Saver {
	ctx, cancel := context.WithCancel(context.Background())

	return &Saver{
		save:   save,
		delay:  delay,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Touch marks the working set dirty.
func (s *Saver) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if s.running {
		s.pending = true
		return
	}

	s.schedule(s.delay)
}

// schedule must be called with mu held.
func (s *Saver) schedule(d time.Duration) {
	if s.timer == nil {
		s.timer = time.AfterFunc(d, s.fire)
		return
	}

	s.timer.Reset(d)
}

// begin must be called with mu held and no save running.
func (s *Saver) begin() {
	s.running = true
	s.pending = false
	s.idle = make(chan struct{})
}

func (s *Saver) fire() {
	s.mu.Lock()

	if s.stopped {
		s.mu.Unlock()
		return
	}

	if s.running {
		s.pending = true
		s.mu.Unlock()

		return
	}

	s.begin()
	s.mu.Unlock()

	if err := s.save(s.ctx); err != nil && s.ctx.Err() == nil {
		s.log.Error("auto-save failed", "error", err)
	}

	s.finish()
}

func (s *Saver) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	close(s.idle)

	if s.pending && !s.stopped {
		s.pending = false
		s.schedule(0)
	}
}

// Flush waits for a running save, cancels the pending delay and saves now.
func (s *Saver) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()

		if !s.running {
			if s.timer != nil {
				s.timer.Stop()
			}

			s.begin()
			s.mu.Unlock()

			break
		}

		idle := s.idle
		s.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := s.save(ctx)
	s.finish()

	return err
}

// Stop cancels the pending delay and any save in flight, then waits for
// that save to return. A stopped saver ignores Touch; Flush still works.
func (s *Saver) Stop() {
	s.mu.Lock()

	s.stopped = true
	s.pending = false

	if s.timer != nil {
		s.timer.Stop()
	}

	s.cancel()

	running, idle := s.running, s.idle
	s.mu.Unlock()

	if running {
		<-idle
	}
}
