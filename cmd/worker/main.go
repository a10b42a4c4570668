package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tkoehler/planner/garmin"
	"github.com/tkoehler/planner/internal/config"
	"github.com/tkoehler/planner/internal/email"
	"github.com/tkoehler/planner/internal/jobs"
	"github.com/tkoehler/planner/internal/profile"
	"github.com/tkoehler/planner/internal/prompt"
	"github.com/tkoehler/planner/internal/store"
)

func main() {
	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("unable to connect to database:", err)
	}
	defer pool.Close()
	st := store.New(pool)

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency:    8,
		StrictPriority: false,
		Queues: map[string]int{
			"render":  10, // higher priority
			"sync":    5,
			"default": 1,
		},
	})
	mux := asynq.NewServeMux()

	mux.HandleFunc(jobs.TaskRenderPrompt, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.RenderPromptPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			log.Printf("[asynq] bad payload: %v", err)
			return err
		}
		log.Printf("[render] start render=%s", p.RenderID)
		start := time.Now()
		err := renderPrompt(ctx, st, cfg, p)
		duration := time.Since(start)

		if err != nil {
			if isRetryableError(err) {
				log.Printf("[render] retryable error render=%s duration=%v: %v", p.RenderID, duration, err)
				return err // allow retry
			}
			log.Printf("[render] permanent error render=%s duration=%v: %v (dropping job)", p.RenderID, duration, err)
			return nil // don't retry permanent failures
		}
		log.Printf("[render] done render=%s duration=%v", p.RenderID, duration)
		return nil
	})

	mux.HandleFunc(jobs.TaskSyncGarmin, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.SyncGarminPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			log.Printf("[asynq] bad payload: %v", err)
			return err
		}
		client, err := garminClient(cfg)
		if err != nil {
			log.Printf("[sync] garmin not configured: %v (dropping job)", err)
			return nil
		}
		log.Println("[sync] start")
		start := time.Now()
		err = warmGarminCache(ctx, client, p)
		duration := time.Since(start)

		if err != nil {
			if isRetryableError(err) {
				log.Printf("[sync] retryable error duration=%v: %v", duration, err)
				return err
			}
			log.Printf("[sync] permanent error duration=%v: %v (dropping job)", duration, err)
			return nil
		}
		log.Printf("[sync] done duration=%v", duration)
		return nil
	})

	log.Println("Worker running...")
	log.Fatal(srv.Run(mux))
}

// isRetryableError determines if an error should trigger a job retry
func isRetryableError(err error) bool {
	if errors.Is(err, garmin.ErrRateLimited) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Network/connectivity issues - should retry
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "dns") {
		return true
	}

	// Garmin rate limiting - should retry later
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") {
		return true
	}

	// Temporary server errors - should retry
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") {
		return true
	}

	// Everything else (auth failures, bad data, etc.) - don't retry
	return false
}

// renderPrompt runs one render job end to end: mark the log row running,
// build the prompt, write the artifact, mark done or error, mail the
// result when asked to.
func renderPrompt(ctx context.Context, st store.Store, cfg config.Config, p jobs.RenderPromptPayload) error {
	id, err := uuid.Parse(p.RenderID)
	if err != nil {
		return fmt.Errorf("bad render id %q: %w", p.RenderID, err)
	}
	if err := st.StartRender(ctx, id); err != nil {
		return fmt.Errorf("start render: %w", err)
	}

	out, err := buildPrompt(ctx, st, cfg)
	if err != nil {
		if ferr := st.FinishRender(ctx, id, "", err); ferr != nil {
			log.Printf("[render] record failure: %v", ferr)
		}
		return err
	}
	if err := st.FinishRender(ctx, id, cfg.PromptOut, nil); err != nil {
		return fmt.Errorf("finish render: %w", err)
	}

	if p.Email && cfg.EmailTo != "" {
		sender := email.NewSMTPSender(cfg.SMTPAddr, cfg.EmailFrom)
		subject := "Trainingsplan-Prompt " + prompt.WeekLabel(time.Now())
		body := "<pre>" + html.EscapeString(out) + "</pre>"
		if err := sender.Send(cfg.EmailTo, subject, body); err != nil {
			log.Printf("[render] email failed: %v", err)
		}
	}
	return nil
}

func buildPrompt(ctx context.Context, st store.Store, cfg config.Config) (string, error) {
	data, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}

	var metrics prompt.MetricsSource
	if client, err := garminClient(cfg); err != nil {
		log.Printf("[render] garmin unavailable: %v", err)
	} else {
		metrics = client
	}

	g, err := prompt.NewGenerator(prompt.GeneratorOptions{
		TemplatePath: cfg.TemplatePath,
		Metrics:      metrics,
		Plan:         []prompt.PlanSource{st},
	})
	if err != nil {
		return "", err
	}
	return g.WriteArtifact(ctx, data, cfg.PromptOut)
}

// warmGarminCache pulls the three prompt fetches so the next render hits
// the file cache instead of the API.
func warmGarminCache(ctx context.Context, c *garmin.Client, p jobs.SyncGarminPayload) error {
	limit := p.ActivityLimit
	if limit <= 0 {
		limit = 30
	}
	nights := p.SleepDays
	if nights <= 0 {
		nights = 7
	}
	if _, err := c.RecentActivities(ctx, limit); err != nil {
		return fmt.Errorf("activities: %w", err)
	}
	if _, err := c.VO2MaxToday(ctx); err != nil {
		return fmt.Errorf("vo2max: %w", err)
	}
	if _, err := c.SleepLastNDays(ctx, nights); err != nil {
		return fmt.Errorf("sleep: %w", err)
	}
	return nil
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
