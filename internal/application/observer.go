package application

import (
	"time"

	"farm-voice/internal/domain"
)

// Observer receives per-stage and per-query outcomes, typically for metrics.
type Observer interface {
	StageCompleted(stage domain.Stage, fallback bool, elapsed time.Duration)
	QueryCompleted(success, degraded bool, elapsed time.Duration)
}

type NoopObserver struct{}

func (NoopObserver) StageCompleted(domain.Stage, bool, time.Duration) {}
func (NoopObserver) QueryCompleted(bool, bool, time.Duration)         {}
