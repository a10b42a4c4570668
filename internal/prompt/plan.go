package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tkoehler/planner/internal/store"
)

// WorkoutLine formats one workout as a compact plan line, e.g.
//
//	"Di: Run/Walk Intervall 30' sehr locker (RPE 3)"
//
// followed by the notes and, for strength workouts, up to three exercise
// names.
func WorkoutLine(w store.Workout) string {
	day := "?"
	if w.Day >= 0 && w.Day < len(store.DayNames) {
		day = store.DayNames[w.Day]
	}

	var parts []string
	if t := strings.TrimSpace(w.Title); t != "" {
		parts = append(parts, t)
	}
	if w.DurationMin != nil && *w.DurationMin > 0 {
		parts = append(parts, fmt.Sprintf("%d'", *w.DurationMin))
	}
	if w.Intensity != nil {
		if in := strings.TrimSpace(*w.Intensity); in != "" {
			parts = append(parts, in)
		}
	}
	main := strings.Join(parts, " ")
	if main == "" {
		main = w.Type
	}

	var suffix string
	if w.Notes != nil {
		if n := strings.TrimSpace(*w.Notes); n != "" {
			suffix = " — " + n
		}
	}
	if w.Type == store.TypeStrength {
		var names []string
		for _, ex := range w.Exercises {
			if nm := strings.TrimSpace(ex.Name); nm != "" {
				names = append(names, nm)
			}
		}
		if len(names) > 0 {
			txt := strings.Join(names[:min(3, len(names))], ", ")
			if len(names) > 3 {
				txt += "…"
			}
			suffix += " (Ex: " + txt + ")"
		}
	}
	return day + ": " + main + suffix
}

// PlanLines renders the whole board as one line per workout, Monday first,
// ordered by position within each day.
func PlanLines(ws []store.Workout) []string {
	byDay := store.GroupByDay(ws)
	lines := make([]string, 0, len(ws))
	for d := range byDay {
		day := byDay[d]
		sort.SliceStable(day, func(i, j int) bool { return day[i].Position < day[j].Position })
		for _, w := range day {
			lines = append(lines, WorkoutLine(w))
		}
	}
	return lines
}

// WeekLabel returns the ISO calendar week label, e.g. "KW34".
func WeekLabel(now time.Time) string {
	_, week := now.ISOWeek()
	return fmt.Sprintf("KW%02d", week)
}

// PlanSource yields the current board. store.Store satisfies it; APISource
// reads from a running planner instead.
type PlanSource interface {
	ListWorkouts(ctx context.Context) ([]store.Workout, error)
}

// APISource fetches the plan over HTTP from the planner API.
type APISource struct {
	BaseURL string
	HTTP    *http.Client
}

func (s *APISource) ListWorkouts(ctx context.Context) ([]store.Workout, error) {
	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: 4 * time.Second}
	}
	url := strings.TrimRight(s.BaseURL, "/") + "/api/workouts"
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	var ws []store.Workout
	if err := json.NewDecoder(resp.Body).Decode(&ws); err != nil {
		return nil, fmt.Errorf("decode workouts: %w", err)
	}
	return ws, nil
}

// BuildPlan asks each source in order and formats the first non-empty
// board it gets. An empty board counts as absent so the next source can
// still provide the plan.
func BuildPlan(ctx context.Context, sources ...PlanSource) ([]string, error) {
	var lastErr error
	for _, src := range sources {
		if src == nil {
			continue
		}
		ws, err := src.ListWorkouts(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if len(ws) == 0 {
			continue
		}
		return PlanLines(ws), nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("no plan available: %w", lastErr)
	}
	return nil, errors.New("no plan available")
}
