// Package jobs holds the background loops the portal runs alongside the
// HTTP server.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/divyesh007-delta/Placify-1/internal/analytics"
	"github.com/divyesh007-delta/Placify-1/internal/config"
	"github.com/divyesh007-delta/Placify-1/internal/model"
	"github.com/divyesh007-delta/Placify-1/internal/repository"
)

// StartInsightsRefreshJob periodically recomputes every company's insight
// document so dashboard loads hit a warm cache instead of aggregating on
// demand.
func StartInsightsRefreshJob(ctx context.Context, cfg config.Config, store *repository.Store, cache *analytics.Cache) {
	if !cfg.InsightsRefreshEnabled {
		return
	}
	interval := cfg.InsightsRefreshInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshAll(ctx, store, cache)
			}
		}
	}()
}

func refreshAll(ctx context.Context, store *repository.Store, cache *analytics.Cache) {
	tickCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	companies, _, err := store.ListCompanies(tickCtx, "", 10000, 0)
	if err != nil {
		log.Err(err).Msg("insights refresh: company list failed")
		return
	}

	refreshed := 0
	for _, co := range companies {
		exps, err := store.AllExperiencesByCompany(tickCtx, co.CompanyID)
		if err != nil {
			log.Err(err).Str("company", co.CompanyID).Msg("insights refresh: experience load failed")
			continue
		}
		verified := make([]model.Experience, 0, len(exps))
		for _, exp := range exps {
			if exp.IsVerified {
				verified = append(verified, exp)
			}
		}
		if len(verified) == 0 {
			continue
		}
		if err := cache.Put(tickCtx, co.CompanyID, analytics.BuildInsights(co.Name, verified)); err != nil {
			log.Err(err).Str("company", co.CompanyID).Msg("insights refresh: cache write failed")
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		log.Info().Int("companies", refreshed).Msg("insights refresh completed")
	}
}
