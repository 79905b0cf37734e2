package logvault

import (
	"context"
	"time"
)

// retentionLoop deletes entries older than the effective retention period on
// a fixed schedule. It is independent of the write path; the two only meet
// at the store lock. The first sweep fires immediately on arm, later sweeps
// at the quantized check interval. Sweep failures are logged and the ticker
// keeps running.
func (s *Sink) retentionLoop() {
	defer s.wg.Done()

	period := effectiveRetentionPeriod(s.cfg.Retention.Period)
	interval := effectiveSweepInterval(s.cfg.Retention.CheckInterval)

	s.sweep(period)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closeCh:
			return
		case <-ticker.C:
			s.sweep(period)
		}
	}
}

// sweep deletes everything older than now minus the effective period in one
// statement.
func (s *Sink) sweep(period time.Duration) {
	cutoff := time.Now().Add(-period)

	deleted, err := s.store.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", "err", err)
		return
	}

	s.retentionDeleted.Add(uint64(deleted))
	if deleted > 0 {
		s.logger.Info("retention sweep complete", "deleted", deleted,
			"cutoff", cutoff.Format(TimestampLayout))
	}
}
