package pipe

import (
	"context"
	"io"
	"log/slog"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/event"
	"github.com/capsela/capsela-util/internal/future"
	"github.com/capsela/capsela-util/internal/textenc"
)

const readChunkSize = 32 * 1024

type pipeConfig struct {
	end bool
}

// PipeOption configures Forward and (*Pipe).Pipe.
type PipeOption func(*pipeConfig)

// WithoutEnd leaves the destination open when the source ends.
func WithoutEnd() PipeOption {
	return func(c *pipeConfig) { c.end = false }
}

// Forward copies src's data events into dst. When src ends, dst is ended too
// unless WithoutEnd is given. Forwarding stops at the first write error or
// upstream error, and dst is left open in both cases.
func Forward(src Readable, dst Writable, opts ...PipeOption) {
	cfg := pipeConfig{end: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var ids []string
	stop := func() {
		for _, id := range ids {
			src.Off(id)
		}
	}

	ids = append(ids,
		src.On(event.TypeData, func(e event.Event) {
			data, ok := e.(event.DataEvent)
			if !ok {
				return
			}
			if _, err := dst.Write(data.Chunk); err != nil {
				slog.Debug("pipe forwarding stopped", "error", err)
				stop()
			}
		}),
		src.On(event.TypeEnd, func(event.Event) {
			stop()
			if !cfg.end {
				return
			}
			if err := dst.End(); err != nil {
				slog.Debug("pipe destination did not end", "error", err)
			}
		}),
		src.On(event.TypeError, func(event.Event) {
			stop()
		}),
	)
}

// Buffer collects everything src emits into a single byte slice. The future
// resolves when src ends, or rejects with src's error. A stream that ends
// without data resolves to an empty slice. src is resumed.
func Buffer(src Readable) *future.Future[[]byte] {
	p := New(WithRecording())
	data := p.GetData()

	src.On(event.TypeError, func(e event.Event) {
		if ee, ok := e.(event.ErrorEvent); ok {
			p.Fail(ee.Err)
		}
	})
	Forward(src, p)
	src.Resume()

	return data
}

// BufferText is Buffer decoded with enc.
func BufferText(src Readable, enc textenc.Encoding) *future.Future[string] {
	return future.Then(Buffer(src), enc.Decode)
}

// ReadFrom pumps r into a recording pipe on its own goroutine and returns the
// future for everything read. The future rejects if r fails or ctx is done
// before r reaches EOF.
func ReadFrom(ctx context.Context, r io.Reader) *future.Future[[]byte] {
	p := New(WithRecording())
	data := p.GetData()

	go func() {
		buf := make([]byte, readChunkSize)
		for {
			if err := ctx.Err(); err != nil {
				p.Fail(err)
				return
			}
			n, err := r.Read(buf)
			if n > 0 {
				if _, werr := p.Write(buf[:n]); werr != nil {
					return
				}
			}
			if err == io.EOF {
				_ = p.End()
				return
			}
			if err != nil {
				p.Fail(errors.NewStreamError("reader", err))
				return
			}
		}
	}()

	return data
}
