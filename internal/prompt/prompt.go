package prompt

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/tkoehler/planner/garmin"
)

// MetricsSource supplies the fitness data merged into the context.
// *garmin.Client satisfies it.
type MetricsSource interface {
	RecentActivities(ctx context.Context, limit int) ([]garmin.Activity, error)
	VO2MaxToday(ctx context.Context) (*float64, error)
	SleepLastNDays(ctx context.Context, ndays int) ([]garmin.SleepSummary, error)
}

// Generator renders the weekly coaching prompt.
type Generator struct {
	tmpl    *template.Template
	metrics MetricsSource
	plan    []PlanSource
	log     zerolog.Logger

	activityLimit int
	sleepDays     int
}

// GeneratorOptions configures a Generator. Zero values fall back to the
// built-in template, 30 activities and 7 nights of sleep.
type GeneratorOptions struct {
	TemplatePath  string
	Metrics       MetricsSource
	Plan          []PlanSource
	ActivityLimit int
	SleepDays     int
	Logger        *zerolog.Logger
}

// NewGenerator creates a new prompt generator
func NewGenerator(o GeneratorOptions) (*Generator, error) {
	tmpl, err := loadTemplate(o.TemplatePath)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		tmpl:          tmpl,
		metrics:       o.Metrics,
		plan:          o.Plan,
		log:           zerolog.Nop(),
		activityLimit: o.ActivityLimit,
		sleepDays:     o.SleepDays,
	}
	if o.Logger != nil {
		g.log = *o.Logger
	}
	if g.activityLimit <= 0 {
		g.activityLimit = 30
	}
	if g.sleepDays <= 0 {
		g.sleepDays = 7
	}
	return g, nil
}

func loadTemplate(path string) (*template.Template, error) {
	text := GetDefault()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", path, err)
		}
		text = string(raw)
	}
	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return tmpl, nil
}

// Generate fills data with the current plan and fitness metrics, then
// renders the template. A missing plan is fatal; VO2max and sleep fetch
// failures only log, the prompt then carries empty sections.
func (g *Generator) Generate(ctx context.Context, data Context) (string, error) {
	now := time.Now()
	data.Meta.NowISO = now.Format(time.RFC3339)

	lines, err := BuildPlan(ctx, g.plan...)
	if err != nil {
		return "", err
	}
	data.Plan = Plan{WeekLabel: WeekLabel(now), Days: lines}

	if g.metrics != nil {
		acts, err := g.metrics.RecentActivities(ctx, g.activityLimit)
		if err != nil {
			return "", err
		}
		vo2, err := g.metrics.VO2MaxToday(ctx)
		if err != nil {
			g.log.Warn().Err(err).Msg("vo2max fetch failed")
			vo2 = nil
		}
		sleep, err := g.metrics.SleepLastNDays(ctx, g.sleepDays)
		if err != nil {
			g.log.Warn().Err(err).Msg("sleep fetch failed")
			sleep = nil
		}
		data.Garmin = buildGarmin(vo2, sleep, acts)
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// WriteArtifact renders the prompt and writes it to path.
func (g *Generator) WriteArtifact(ctx context.Context, data Context, path string) (string, error) {
	out, err := g.Generate(ctx, data)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("write prompt %s: %w", path, err)
	}
	return out, nil
}

// buildGarmin aggregates the raw fetches into the context's garmin block:
// mean sleep score and duration over the window, activity rows trimmed to
// date / type / title / load.
func buildGarmin(vo2 *float64, sleep []garmin.SleepSummary, acts []garmin.Activity) Garmin {
	out := Garmin{
		VO2Max: VO2Max{Latest: vo2, Trend: "steigend"},
		Flags:  map[string]bool{"cycling_hr_maybe_inaccurate": true},
	}
	if len(sleep) > 0 {
		var score, durMin float64
		for _, s := range sleep {
			if s.SleepEfficiency != nil {
				score += *s.SleepEfficiency
			}
			if s.SleepDurationMin != nil {
				durMin += *s.SleepDurationMin
			}
		}
		n := float64(len(sleep))
		out.Sleep.AvgScore = ptr(math.Round(score/n*10) / 10)
		out.Sleep.AvgDurationH = ptr(math.Round(durMin/n/60*100) / 100)
	}
	out.Activities = make([]Activity, 0, len(acts))
	for _, a := range acts {
		date := a.StartTimeLocal
		if len(date) > 10 {
			date = date[:10]
		}
		out.Activities = append(out.Activities, Activity{
			Date:        date,
			Type:        a.Type,
			Title:       a.Name,
			DurationMin: a.DurationMin,
			DistanceKm:  a.DistanceKm,
			AvgHR:       a.AvgHR,
		})
	}
	return out
}

func ptr[T any](v T) *T { return &v }
