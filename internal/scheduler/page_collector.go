package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/marks/internal/index"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	// DefaultPageIdleTTL is how long a browser page may sit unused before it is torn down
	DefaultPageIdleTTL = 30 * time.Minute
	// DefaultCollectInterval is how often idle pages are looked for
	DefaultCollectInterval = time.Minute
)

// PageCollector periodically closes dashboard pages whose browser went away
type PageCollector struct {
	index         *index.PageIndex
	logger        logger.Logger
	interval      time.Duration
	ttl           time.Duration
	now           func() time.Time
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewPageCollector creates a new page collector.
// manualTrigger may be nil when no on-demand collection is wired.
func NewPageCollector(
	idx *index.PageIndex,
	log logger.Logger,
	interval time.Duration,
	ttl time.Duration,
	manualTrigger chan struct{},
) *PageCollector {
	if interval <= 0 {
		interval = DefaultCollectInterval
	}
	if ttl <= 0 {
		ttl = DefaultPageIdleTTL
	}

	return &PageCollector{
		index:         idx,
		logger:        log,
		interval:      interval,
		ttl:           ttl,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic collection loop
func (pc *PageCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(pc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pc.Collect()
			case <-pc.manualTrigger:
				pc.logger.Info("manual page collection triggered")
				pc.Collect()
			case <-pc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the collector
func (pc *PageCollector) Stop() {
	close(pc.stopCh)
}

// Collect closes idle pages and returns how many went away
func (pc *PageCollector) Collect() int {
	removed := pc.index.CollectIdle(pc.now(), pc.ttl)

	if removed > 0 {
		pc.logger.Info("collected idle pages",
			logger.Int("removed", removed),
			logger.Int("remaining", pc.index.Count()),
			logger.Duration("idle_ttl", pc.ttl))
	} else {
		pc.logger.Debug("no idle pages to collect")
	}

	return removed
}
