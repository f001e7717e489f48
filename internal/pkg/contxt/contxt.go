package contxt

import (
	"context"
	"time"
)

// NewContext returns a context that expires after timeout. The cancel func
// is released once the deadline fires, so callers that only need a bounded
// context do not have to carry it around.
func NewContext(timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
