// Package pipe provides an in-memory stream: bytes written to a Pipe are
// delivered to subscribers as pipe.data events, in order, and End delivers a
// final pipe.end. Delivery can be paused and resumed at any time; events
// produced while paused are queued and flushed on Resume.
//
// A Pipe can also record what is written to it. GetData switches recording
// on and returns a future that resolves with everything written from that
// point on once the pipe ends:
//
//	p := pipe.New()
//	data := p.GetData()
//	p.WriteString("hello ", textenc.UTF8)
//	p.EndString("world", textenc.UTF8)
//	b, _ := data.Await(ctx) // "hello world"
//
// Subscribers are called synchronously on the goroutine that writes, or on
// the goroutine that calls Resume. The pipe's lock is never held while a
// subscriber runs, so subscribers may write to, pause or resume the pipe
// they are attached to.
package pipe

import (
	"bytes"
	"sync"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/event"
	"github.com/capsela/capsela-util/internal/future"
	"github.com/capsela/capsela-util/internal/textenc"
)

// Readable is the subscriber side of a stream.
type Readable interface {
	On(eventType string, handler event.Handler) string
	Off(id string) bool
	Pause()
	Resume()
}

// Writable is the producer side of a stream.
type Writable interface {
	Write(p []byte) (int, error)
	End() error
}

// Option configures a Pipe.
type Option func(*Pipe)

// WithRecording records every chunk from construction on.
func WithRecording() Option {
	return func(p *Pipe) { p.recording = true }
}

// WithEncoding makes data events carry decoded text.
func WithEncoding(enc textenc.Encoding) Option {
	return func(p *Pipe) { p.encoding = enc }
}

// Pipe is an in-memory readable and writable stream.
type Pipe struct {
	bus  *event.Bus
	done *future.Future[[]byte]

	mu        sync.Mutex
	writable  bool
	ended     bool
	paused    bool
	firing    bool
	queue     []event.Event
	recording bool
	chunks    [][]byte
	encoding  textenc.Encoding
}

var (
	_ Readable = (*Pipe)(nil)
	_ Writable = (*Pipe)(nil)
)

// New creates a writable, flowing pipe.
func New(opts ...Option) *Pipe {
	p := &Pipe{
		bus:      event.NewBus(),
		done:     future.New[[]byte](),
		writable: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// On subscribes handler to an event type (event.TypeData, event.TypeEnd,
// event.TypeError or event.Wildcard) and returns the subscription ID.
func (p *Pipe) On(eventType string, handler event.Handler) string {
	return p.bus.Subscribe(eventType, handler)
}

// Once subscribes handler for a single delivery.
func (p *Pipe) Once(eventType string, handler event.Handler) string {
	return p.bus.SubscribeOnce(eventType, handler)
}

// Off removes a subscription.
func (p *Pipe) Off(id string) bool {
	return p.bus.Unsubscribe(id)
}

// Pause stops event delivery. Events keep queueing until Resume.
func (p *Pipe) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume restarts event delivery, flushing queued events first.
func (p *Pipe) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
	p.fire()
}

// Paused reports whether delivery is paused.
func (p *Pipe) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Writable reports whether the pipe still accepts writes.
func (p *Pipe) Writable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writable
}

func (p *Pipe) enqueue(e event.Event) {
	p.mu.Lock()
	p.queue = append(p.queue, e)
	p.mu.Unlock()
	p.fire()
}

// fire delivers queued events until the queue is empty or the pipe pauses.
// Only one caller drains at a time; a nested or concurrent call returns at
// once and leaves the events to the active drainer.
func (p *Pipe) fire() {
	p.mu.Lock()
	if p.firing {
		p.mu.Unlock()
		return
	}
	p.firing = true
	for len(p.queue) > 0 && !p.paused {
		e := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()
		p.bus.Publish(e)
		p.mu.Lock()
	}
	p.firing = false
	p.mu.Unlock()
}

// Write sends a chunk through the pipe. The chunk is copied.
func (p *Pipe) Write(b []byte) (int, error) {
	if err := p.write("write", append([]byte(nil), b...)); err != nil {
		return 0, err
	}
	return len(b), nil
}

// WriteString encodes s with enc and writes the result. An empty enc means
// UTF-8.
func (p *Pipe) WriteString(s string, enc textenc.Encoding) error {
	b, err := enc.Encode(s)
	if err != nil {
		return err
	}
	return p.write("write", b)
}

func (p *Pipe) write(op string, chunk []byte) error {
	p.mu.Lock()
	if !p.writable {
		p.mu.Unlock()
		return errors.NewMisuseError("pipe", op, errors.ErrWriteAfterEnd)
	}
	enc := p.encoding
	var ev event.DataEvent
	if enc != textenc.None {
		text, err := enc.Decode(chunk)
		if err != nil {
			p.mu.Unlock()
			return err
		}
		ev = event.NewTextEvent(chunk, text)
	} else {
		ev = event.NewDataEvent(chunk)
	}
	if p.recording {
		p.chunks = append(p.chunks, chunk)
	}
	p.mu.Unlock()

	p.enqueue(ev)
	return nil
}

// End closes the pipe for writing and delivers pipe.end. When recording, the
// data future resolves with the recorded bytes.
func (p *Pipe) End() error {
	return p.end()
}

// EndWith writes a final chunk, then ends the pipe.
func (p *Pipe) EndWith(chunk []byte) error {
	if len(chunk) > 0 {
		if _, err := p.Write(chunk); err != nil {
			return err
		}
	}
	return p.end()
}

// EndString writes a final string, then ends the pipe.
func (p *Pipe) EndString(s string, enc textenc.Encoding) error {
	if s != "" {
		if err := p.WriteString(s, enc); err != nil {
			return err
		}
	}
	return p.end()
}

func (p *Pipe) end() error {
	p.mu.Lock()
	if !p.writable {
		p.mu.Unlock()
		return errors.NewMisuseError("pipe", "end", errors.ErrWriteAfterEnd)
	}
	p.writable = false
	p.ended = true
	recording := p.recording
	var data []byte
	if recording {
		data = concat(p.chunks)
		p.chunks = nil
	}
	p.mu.Unlock()

	p.enqueue(event.NewEndEvent())
	if recording {
		p.done.Resolve(data)
	}
	return nil
}

// concat joins recorded chunks. A single chunk is returned as-is and no
// chunks yield an empty, non-nil slice.
func concat(chunks [][]byte) []byte {
	switch len(chunks) {
	case 0:
		return []byte{}
	case 1:
		return chunks[0]
	default:
		return bytes.Join(chunks, nil)
	}
}

// GetData switches recording on and returns the future for the pipe's data.
// Only chunks written after recording started are included. Asking for the
// data of a pipe that ended without recording yields ErrNoData.
func (p *Pipe) GetData() *future.Future[[]byte] {
	p.mu.Lock()
	lost := p.ended && !p.recording
	p.recording = true
	p.mu.Unlock()

	if lost {
		p.done.Reject(errors.NewMisuseError("pipe", "get data", errors.ErrNoData).
			WithDetail("pipe ended before recording started"))
	}
	return p.done
}

// GetText is GetData decoded with enc.
func (p *Pipe) GetText(enc textenc.Encoding) *future.Future[string] {
	return future.Then(p.GetData(), enc.Decode)
}

// SetEncoding makes subsequent data events carry text decoded with enc. The
// empty encoding switches back to raw bytes.
func (p *Pipe) SetEncoding(enc textenc.Encoding) error {
	canonical, err := textenc.Parse(string(enc))
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.encoding = canonical
	p.mu.Unlock()
	return nil
}

// Destroy closes the pipe for writing without delivering pipe.end.
func (p *Pipe) Destroy() {
	p.mu.Lock()
	p.writable = false
	p.mu.Unlock()
}

// Fail closes the pipe, delivers a stream.error event carrying err and
// rejects the data future with err.
func (p *Pipe) Fail(err error) {
	p.mu.Lock()
	p.writable = false
	p.chunks = nil
	p.mu.Unlock()

	p.enqueue(event.NewErrorEvent(err))
	p.done.Reject(err)
}

// Pipe forwards this pipe's data to dst and ends dst when this pipe ends.
// It returns dst.
func (p *Pipe) Pipe(dst Writable, opts ...PipeOption) Writable {
	Forward(p, dst, opts...)
	return dst
}
