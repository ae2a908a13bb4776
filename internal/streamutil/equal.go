package streamutil

import (
	"bytes"
	"context"

	"github.com/sourcegraph/conc/pool"
)

// Equal reports whether left and right hold the same bytes, comparing their
// SHA-1 digests. Each side may be anything HashAnything accepts. Both sides
// are hashed concurrently; the first failure cancels the other.
func Equal(ctx context.Context, left, right any) (bool, error) {
	sums, err := HashAll(ctx, SHA1, left, right)
	if err != nil {
		return false, err
	}
	return bytes.Equal(sums[0], sums[1]), nil
}

// HashAll digests every source concurrently and returns the sums in the
// order given.
func HashAll(ctx context.Context, alg Algorithm, sources ...any) ([][]byte, error) {
	if _, err := alg.New(); err != nil {
		return nil, err
	}

	sums := make([][]byte, len(sources))
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	for i, src := range sources {
		p.Go(func(ctx context.Context) error {
			sum, err := HashAnything(ctx, src, alg).Await(ctx)
			if err != nil {
				return err
			}
			sums[i] = sum
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return sums, nil
}

// BytesEqual reports whether a and b are byte-for-byte equal.
func BytesEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
