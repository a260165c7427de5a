package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNoCode is returned when the source ran out of frames without a
// readable code.
var ErrNoCode = errors.New("no code found")

// DefaultInterval is the pause between decode attempts.
const DefaultInterval = 300 * time.Millisecond

// Session owns a frame source for the duration of one scan. The stream is
// used and released only by the goroutine running Run, exactly once,
// whether the scan succeeds, fails, is cancelled or is stopped from another
// goroutine.
type Session struct {
	source   Source
	decoder  Decoder
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancelFn context.CancelFunc
	done     chan struct{}
}

// NewSession creates a session. A non-positive interval selects
// DefaultInterval.
func NewSession(source Source, decoder Decoder, interval time.Duration, logger *zap.Logger) *Session {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Session{source: source, decoder: decoder, interval: interval, logger: logger}
}

// Run opens the source and decodes frames until a code is read, the source
// is exhausted, ctx is done or Stop is called. Frame and decode failures are
// logged and skipped.
func (s *Session) Run(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return "", context.Canceled
	case s.started:
		s.mu.Unlock()
		return "", errors.New("scan session already used")
	}
	s.started = true
	s.cancelFn = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()
	defer close(s.done)

	stream, err := s.source.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open frame source: %w", err)
	}
	defer s.release(stream)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for frame := 1; ; frame++ {
		text, done, err := s.attempt(ctx, stream, frame)
		if done {
			return text, err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Session) attempt(ctx context.Context, stream Stream, frame int) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", true, err
	}

	img, err := stream.Next(ctx)
	switch {
	case errors.Is(err, io.EOF):
		return "", true, ErrNoCode
	case errors.Is(err, ErrNoFrame):
		return "", false, nil
	case err != nil:
		s.logger.Warn("frame skipped", zap.Int("frame", frame), zap.Error(err))
		return "", false, nil
	}

	text, ok := s.decoder.Decode(img)
	if !ok {
		s.logger.Debug("no code in frame", zap.Int("frame", frame))
		return "", false, nil
	}
	s.logger.Info("code decoded", zap.Int("frame", frame), zap.String("text", text))
	return text, true, nil
}

func (s *Session) release(stream Stream) {
	if err := stream.Close(); err != nil {
		s.logger.Warn("failed to release frame source", zap.Error(err))
	}
}

// Stop ends a running scan and waits until Run has released the source. A
// session stopped before Run starts never opens the source. Stop is safe to
// call from any goroutine other than the one running Run, and more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel, done := s.cancelFn, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
