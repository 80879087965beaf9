package engine

import (
	"context"
	"time"

	"pulse/internal/logger"
	"pulse/pkg/protocol"
)

// DefaultPollInterval is the fallback cadence while the push stream is down.
const DefaultPollInterval = 5 * time.Second

// Poller is the pull-based fallback channel. While running it requests a
// full snapshot on a fixed interval and hands it to apply. A failed poll is
// logged and retried on the next tick; the Poller never terminates on its
// own. It stops only when its context is cancelled.
type Poller struct {
	source   SnapshotSource
	interval time.Duration
	apply    func(protocol.Snapshot)
	log      logger.Logger
}

// NewPoller creates a Poller. interval <= 0 selects DefaultPollInterval.
func NewPoller(source SnapshotSource, interval time.Duration, apply func(protocol.Snapshot), log logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{source: source, interval: interval, apply: apply, log: log}
}

// Run polls until ctx is cancelled. The first poll happens immediately so
// there is no coverage gap when the supervisor falls back to polling.
func (p *Poller) Run(ctx context.Context) {
	p.pollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	snap, err := p.source.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("poll failed, retrying next tick", logger.F("err", err))
		}
		return
	}
	p.apply(*snap)
}
