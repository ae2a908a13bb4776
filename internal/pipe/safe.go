package pipe

import (
	"sync"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/event"
)

// SafeStream wraps a Readable and reports subscriptions that arrive too late.
// Once the wrapped stream has delivered any event, every further On call
// publishes ErrMissedEvents to the wrapper's error subscribers instead of
// subscribing.
//
// Error subscriptions are held by the wrapper, which relays the stream's own
// errors to them. All other subscriptions go straight to the stream.
type SafeStream struct {
	stream Readable
	errs   *event.Bus

	mu        sync.Mutex
	hadEvents bool
	paused    bool
}

// NewSafeStream wraps stream.
func NewSafeStream(stream Readable) *SafeStream {
	s := &SafeStream{stream: stream, errs: event.NewBus()}
	stream.On(event.TypeData, s.mark)
	stream.On(event.TypeEnd, s.mark)
	stream.On(event.TypeError, func(e event.Event) {
		s.mark(e)
		s.errs.Publish(e)
	})
	return s
}

func (s *SafeStream) mark(event.Event) {
	s.mu.Lock()
	s.hadEvents = true
	s.mu.Unlock()
}

// On subscribes handler. It returns an empty ID when the subscription was
// refused because events were already delivered.
func (s *SafeStream) On(eventType string, handler event.Handler) string {
	s.mu.Lock()
	late := s.hadEvents
	s.mu.Unlock()

	if late {
		err := errors.NewMisuseError("safestream", "on", errors.ErrMissedEvents).WithDetail(eventType)
		s.errs.Publish(event.NewErrorEvent(err))
		return ""
	}
	if eventType == event.TypeError {
		return s.errs.Subscribe(eventType, handler)
	}
	return s.stream.On(eventType, handler)
}

// Off removes a subscription made through On.
func (s *SafeStream) Off(id string) bool {
	if s.errs.Unsubscribe(id) {
		return true
	}
	return s.stream.Off(id)
}

// Pause pauses the wrapped stream.
func (s *SafeStream) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.stream.Pause()
}

// Resume resumes the wrapped stream.
func (s *SafeStream) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.stream.Resume()
}

// Paused reports whether Pause was called more recently than Resume.
func (s *SafeStream) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Write forwards to the wrapped stream when it is writable.
func (s *SafeStream) Write(b []byte) (int, error) {
	w, ok := s.stream.(Writable)
	if !ok {
		return 0, errors.NewMisuseError("safestream", "write", errors.ErrNotCallable).
			WithDetail("wrapped stream is not writable")
	}
	return w.Write(b)
}

// End forwards to the wrapped stream when it is writable.
func (s *SafeStream) End() error {
	w, ok := s.stream.(Writable)
	if !ok {
		return errors.NewMisuseError("safestream", "end", errors.ErrNotCallable).
			WithDetail("wrapped stream is not writable")
	}
	return w.End()
}
