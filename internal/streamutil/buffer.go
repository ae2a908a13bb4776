package streamutil

import (
	"bytes"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/event"
	"github.com/capsela/capsela-util/internal/future"
	"github.com/capsela/capsela-util/internal/pipe"
)

// BufferStream collects src into one byte slice. Unlike pipe.Buffer it
// rejects with errors.ErrNoData when src ends without a single data event.
// src is resumed.
func BufferStream(src pipe.Readable) *future.Future[[]byte] {
	out := future.New[[]byte]()

	var chunks [][]byte
	var ids []string
	stop := func() {
		for _, id := range ids {
			src.Off(id)
		}
	}
	ids = append(ids,
		src.On(event.TypeData, func(e event.Event) {
			if data, ok := e.(event.DataEvent); ok {
				chunks = append(chunks, data.Chunk)
			}
		}),
		src.On(event.TypeEnd, func(event.Event) {
			stop()
			switch len(chunks) {
			case 0:
				out.Reject(errors.ErrNoData)
			case 1:
				out.Resolve(chunks[0])
			default:
				out.Resolve(bytes.Join(chunks, nil))
			}
		}),
		src.On(event.TypeError, func(e event.Event) {
			stop()
			if ee, ok := e.(event.ErrorEvent); ok {
				out.Reject(ee.Err)
				return
			}
			out.Reject(errors.NewStreamError("stream", nil))
		}),
	)
	src.Resume()

	return out
}
