package service

import (
	"context"
	"errors"
	"time"

	"memory-test-service/internal/apperr"
	"memory-test-service/internal/llm"
	"memory-test-service/internal/logger"
)

// ModelGateway sits in front of the language model backend for every
// generator. While a quota cooldown is open it answers with
// apperr.ErrQuotaExceeded without touching the network, and it opens the
// cooldown whenever the backend reports exhausted quota.
type ModelGateway struct {
	backend  llm.Backend
	quota    QuotaGate
	cooldown time.Duration
	log      *logger.Logger
}

// NewModelGateway accepts a nil backend (always unconfigured) and a nil
// quota gate (no cooldown tracking).
func NewModelGateway(backend llm.Backend, quota QuotaGate, cooldown time.Duration, log *logger.Logger) *ModelGateway {
	return &ModelGateway{
		backend:  backend,
		quota:    quota,
		cooldown: cooldown,
		log:      log,
	}
}

func (g *ModelGateway) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if g == nil || g.backend == nil {
		return "", apperr.New(apperr.KindUnconfigured, "ModelGateway", "no language model backend")
	}

	if g.quota != nil {
		cooling, err := g.quota.CoolingDown(ctx)
		if err != nil {
			g.log.Warn("Could not read quota cooldown, calling model anyway", "error", err)
		} else if cooling {
			return "", apperr.New(apperr.KindQuotaExceeded, "ModelGateway", "quota cooldown in effect")
		}
	}

	out, err := g.backend.Complete(ctx, req)
	if err != nil && errors.Is(err, apperr.ErrQuotaExceeded) && g.quota != nil && g.cooldown > 0 {
		if tripErr := g.quota.Trip(ctx, g.cooldown); tripErr != nil {
			g.log.Warn("Could not store quota cooldown", "error", tripErr)
		} else {
			g.log.Info("Language model quota exhausted, using fallbacks", "cooldown", g.cooldown)
		}
	}
	return out, err
}
