package core

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// SizingController periodically grows or shrinks a Pool's WorkerSlot set
// based on sustained overload or idleness. Its ticker loop runs as one
// goroutine with one timer, selecting on a stop channel between polls of
// pool load.
//
// The exponential backoff on the overload-growth threshold
// (grow_overload_min_ms .. grow_overload_max_ms, doubling by
// grow_overload_factor) is computed with backoff.ExponentialBackOff
// rather than hand-rolled multiply-and-cap arithmetic, configured with
// RandomizationFactor 0 so the threshold sequence is an exact
// deterministic doubling, with the library doing the capping at
// MaxInterval.
type SizingController struct {
	pool *Pool

	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}

	bo               *backoff.ExponentialBackOff
	currentThreshold time.Duration

	// overloadActive tracks whether the controller is inside an overload
	// observation window. It is deliberately separate from lastOverloadAt:
	// a successful grow zeroes lastOverloadAt to restart the persistence
	// timer, so that timestamp alone cannot distinguish "overload ended"
	// from "just grew, overload continuing", and the threshold reset below
	// must fire on the former but not the latter.
	overloadActive  bool
	lastOverloadAt  time.Time
	lastUnderloadAt time.Time
}

func newSizingController(pool *Pool) *SizingController {
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     pool.cfg.GrowOverloadMin,
		RandomizationFactor: 0,
		Multiplier:          pool.cfg.GrowOverloadFactor,
		MaxInterval:         pool.cfg.GrowOverloadMax,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	bo.Reset()

	return &SizingController{
		pool:             pool,
		bo:               bo,
		currentThreshold: bo.NextBackOff(),
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

func (s *SizingController) start() {
	s.ticker = time.NewTicker(s.pool.cfg.TickInterval)
	go s.loop()
}

func (s *SizingController) loop() {
	defer close(s.doneCh)
	defer s.ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.ticker.C:
			s.tick()
		}
	}
}

func (s *SizingController) stop() {
	close(s.stopCh)
	<-s.doneCh
}

// tick runs one observation. Growth is considered first; a single tick
// can never both grow and shrink the pool.
func (s *SizingController) tick() {
	count, anyIdle := s.pool.workerSnapshot()
	backlogLen := s.pool.BacklogLen()

	overloaded := count < s.pool.cfg.MaxWorkers && !anyIdle && backlogLen >= count
	if overloaded {
		s.overloadActive = true
		s.considerGrowth()
		return
	}

	// First tick observing non-overload: clear the persistence timer and
	// reset the growth threshold back to grow_overload_min_ms.
	if s.overloadActive {
		s.overloadActive = false
		s.lastOverloadAt = time.Time{}
		s.bo.Reset()
		s.currentThreshold = s.bo.NextBackOff()
	}

	s.considerShrink(count, anyIdle, backlogLen)
}

func (s *SizingController) considerGrowth() {
	if s.lastOverloadAt.IsZero() {
		s.lastOverloadAt = time.Now()
		return
	}
	if time.Since(s.lastOverloadAt) <= s.currentThreshold {
		return
	}

	if s.pool.growBy(1) > 0 {
		newCount, _ := s.pool.workerSnapshot()
		s.pool.cfg.Metrics.RecordGrow(s.pool.id, newCount)
		s.pool.log.Info("sizing: grew pool",
			F("workers", newCount),
			F("threshold_ms", s.currentThreshold.Milliseconds()))
	}
	s.lastOverloadAt = time.Time{}
	s.currentThreshold = s.bo.NextBackOff()
}

func (s *SizingController) considerShrink(count int, anyIdle bool, backlogLen int) {
	underloaded := count > s.pool.cfg.InitialWorkers && anyIdle && backlogLen == 0
	if !underloaded {
		s.lastUnderloadAt = time.Time{}
		return
	}
	if s.lastUnderloadAt.IsZero() {
		s.lastUnderloadAt = time.Now()
		return
	}
	if time.Since(s.lastUnderloadAt) <= s.pool.cfg.ShrinkIdle {
		return
	}

	if s.pool.shrinkOne() {
		newCount, _ := s.pool.workerSnapshot()
		s.pool.cfg.Metrics.RecordShrink(s.pool.id, newCount)
		s.pool.log.Info("sizing: shrank pool", F("workers", newCount))
	}
	s.lastUnderloadAt = time.Time{}
}
