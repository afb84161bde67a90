// Package archive keeps durable copies of generated media. Upstream output
// URLs expire; archiving a completed generation pins the bytes to storage the
// platform controls.
package archive

import (
	"context"
	"io"
)

// Store persists a stream of bytes under a key and returns a URL addressing
// the stored copy.
type Store interface {
	Save(ctx context.Context, key string, data io.Reader) (url string, err error)
}
