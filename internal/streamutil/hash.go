// Package streamutil hashes and compares byte sources of any shape: byte
// slices, strings, io.Readers, pipes and futures for any of those.
package streamutil

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/event"
	"github.com/capsela/capsela-util/internal/future"
	"github.com/capsela/capsela-util/internal/pipe"
)

// Algorithm names a digest.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// Algorithms lists the supported digests.
var Algorithms = []Algorithm{MD5, SHA1, SHA256, SHA512}

// ParseAlgorithm resolves a case-insensitive algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if _, err := alg.New(); err != nil {
		return "", err
	}
	return alg, nil
}

// New returns a fresh hash for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownAlgorithm, "%q", string(a))
}

// HashAnything digests obj with alg. obj may be a []byte, a string, an
// io.Reader, a pipe.Readable, or a future of []byte, string or any of the
// above. Byte slices and strings settle immediately; readers are consumed on
// their own goroutine until EOF or until ctx is done; readables are resumed
// and settle on their end event, or reject on an error event.
func HashAnything(ctx context.Context, obj any, alg Algorithm) *future.Future[[]byte] {
	h, err := alg.New()
	if err != nil {
		return future.Rejected[[]byte](err)
	}

	switch v := obj.(type) {
	case []byte:
		h.Write(v)
		return future.Resolved(h.Sum(nil))
	case string:
		io.WriteString(h, v)
		return future.Resolved(h.Sum(nil))
	case *future.Future[[]byte]:
		return chain(ctx, v, alg)
	case *future.Future[string]:
		return chain(ctx, v, alg)
	case *future.Future[any]:
		return chain(ctx, v, alg)
	case pipe.Readable:
		return hashReadable(v, h)
	case io.Reader:
		return hashReader(ctx, v, h)
	case nil:
		return future.Rejected[[]byte](errors.NewValidationError("nothing to hash"))
	}
	return future.Rejected[[]byte](errors.NewValidationError(fmt.Sprintf("cannot hash a %T", obj)))
}

func chain[T any](ctx context.Context, f *future.Future[T], alg Algorithm) *future.Future[[]byte] {
	out := future.New[[]byte]()
	f.OnSettled(func(v T, err error) {
		if err != nil {
			out.Reject(err)
			return
		}
		future.Forward(HashAnything(ctx, v, alg), out)
	})
	return out
}

func hashReadable(src pipe.Readable, h hash.Hash) *future.Future[[]byte] {
	out := future.New[[]byte]()

	var ids []string
	stop := func() {
		for _, id := range ids {
			src.Off(id)
		}
	}
	ids = append(ids,
		src.On(event.TypeData, func(e event.Event) {
			if data, ok := e.(event.DataEvent); ok {
				h.Write(data.Chunk)
			}
		}),
		src.On(event.TypeEnd, func(event.Event) {
			stop()
			out.Resolve(h.Sum(nil))
		}),
		src.On(event.TypeError, func(e event.Event) {
			stop()
			var err error = errors.NewStreamError("stream", nil)
			if ee, ok := e.(event.ErrorEvent); ok {
				err = ee.Err
			}
			out.Reject(err)
		}),
	)
	src.Resume()

	return out
}

func hashReader(ctx context.Context, r io.Reader, h hash.Hash) *future.Future[[]byte] {
	out := future.New[[]byte]()
	go func() {
		if _, err := io.Copy(h, readerWithContext(ctx, r)); err != nil {
			if ctx.Err() == nil {
				err = errors.NewStreamError("reader", err)
			}
			out.Reject(err)
			return
		}
		out.Resolve(h.Sum(nil))
	}()
	return out
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
