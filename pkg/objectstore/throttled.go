package objectstore

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Throttled bounds the upload rate of the wrapped store
type Throttled struct {
	Store
	limiter *rate.Limiter
}

// NewThrottled allows perSecond uploads per second with a burst of at least one
func NewThrottled(store Store, perSecond float64) *Throttled {
	burst := int(math.Max(1, math.Ceil(perSecond)))
	return &Throttled{
		Store:   store,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (t *Throttled) Put(ctx context.Context, obj Object) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Store.Put(ctx, obj)
}
