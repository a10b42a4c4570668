// cmd/render/main.go
//
// One-shot prompt renderer, meant to be run from a shell or crontab:
// builds the coaching context from the profile, the live plan and the
// Garmin metrics, prints the prompt and writes the artifact file.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/tkoehler/planner/garmin"
	"github.com/tkoehler/planner/internal/config"
	"github.com/tkoehler/planner/internal/profile"
	"github.com/tkoehler/planner/internal/prompt"
	"github.com/tkoehler/planner/internal/store"
)

func main() {
	cfg := config.Load()

	// stdout carries the prompt, everything else goes to stderr
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	ctx := context.Background()

	data, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load profile")
	}

	var metrics prompt.MetricsSource
	if client, err := garminClient(cfg); err != nil {
		logger.Warn().Err(err).Msg("garmin unavailable, rendering without metrics")
	} else {
		metrics = client
	}

	// Prefer the running API so the prompt sees the board as-is; fall
	// back to reading the database directly.
	var sources []prompt.PlanSource
	if cfg.APIBase != "" {
		sources = append(sources, &prompt.APISource{BaseURL: cfg.APIBase})
	}
	if pool, err := pgxpool.New(ctx, cfg.DatabaseURL); err != nil {
		logger.Warn().Err(err).Msg("database unavailable, relying on the api")
	} else {
		defer pool.Close()
		sources = append(sources, store.New(pool))
	}

	g, err := prompt.NewGenerator(prompt.GeneratorOptions{
		TemplatePath: cfg.TemplatePath,
		Metrics:      metrics,
		Plan:         sources,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build generator")
	}

	out, err := g.WriteArtifact(ctx, data, cfg.PromptOut)
	if err != nil {
		logger.Fatal().Err(err).Msg("render prompt")
	}

	fmt.Println(out)
	logger.Info().Str("path", cfg.PromptOut).Msg("prompt written")
}

func garminClient(cfg config.Config) (*garmin.Client, error) {
	ts, err := garmin.TokenSource(context.Background(), cfg.GarminTokenFile)
	if err != nil {
		return nil, err
	}
	cache, err := garmin.NewFileCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	opts := []garmin.Option{garmin.WithCache(cache, cfg.CacheTTL)}
	if cfg.GarminBaseURL != "" {
		opts = append(opts, garmin.WithBaseURL(cfg.GarminBaseURL))
	}
	return garmin.New(ts, opts...)
}
