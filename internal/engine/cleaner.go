package engine

import (
	"context"
	"time"

	"github.com/coffersTech/nanosearch/internal/log"
)

// RunCleaner drops the sealed generation once its newest document is older
// than the retention window. It returns when ctx is done.
func (qe *QueryEngine) RunCleaner(ctx context.Context, interval time.Duration) {
	if qe.opts.Retention <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof(ctx, "cleaner started, retention %v, interval %v", qe.opts.Retention, interval)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			qe.purgeExpired(ctx, now)
		}
	}
}

func (qe *QueryEngine) purgeExpired(ctx context.Context, now time.Time) {
	threshold := now.Add(-qe.opts.Retention).UnixNano()

	qe.mu.Lock()
	sealed := qe.sealed
	if sealed == nil {
		qe.mu.Unlock()
		return
	}
	if _, maxTs := sealed.TimeRange(); maxTs >= threshold {
		qe.mu.Unlock()
		return
	}
	qe.sealed = nil
	qe.mu.Unlock()

	qe.drop(sealed)
	log.Infof(ctx, "expired generation dropped (%d documents)", sealed.Len())
}
