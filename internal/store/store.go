// Package store holds the planner entities and their Postgres persistence.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an id does not exist in the store.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Workout types. "strength" workouts carry an exercise list, "cardio" a
// duration/intensity pair, "other" is free-form.
const (
	TypeCardio   = "cardio"
	TypeStrength = "strength"
	TypeOther    = "other"
)

// ValidType reports whether s is a known workout type.
func ValidType(s string) bool {
	return s == TypeCardio || s == TypeStrength || s == TypeOther
}

// Render statuses for the prompt render log.
const (
	RenderQueued  = "queued"
	RenderRunning = "running"
	RenderDone    = "done"
	RenderError   = "error"
)

// DayNames are the board's column labels, Monday first.
var DayNames = [7]string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}

// GroupByDay buckets workouts into the seven weekday columns, preserving
// input order within a day.
func GroupByDay(ws []Workout) [7][]Workout {
	var out [7][]Workout
	for _, w := range ws {
		if w.Day < 0 || w.Day > 6 {
			continue
		}
		out[w.Day] = append(out[w.Day], w)
	}
	return out
}

// Workout is one planned session on a day of the training week.
// Day is 0 (Monday) through 6 (Sunday); Position orders workouts within a day.
type Workout struct {
	ID          int64             `json:"id"`
	Day         int               `json:"day"`
	Position    int               `json:"position"`
	Type        string            `json:"wtype"`
	Title       string            `json:"title"`
	DurationMin *int              `json:"duration_min"`
	Intensity   *string           `json:"intensity"`
	Notes       *string           `json:"notes"`
	CreatedAt   time.Time         `json:"-"`
	Exercises   []WorkoutExercise `json:"exercises"`
}

// WorkoutExercise is one sets/reps line of a strength workout, joined with
// its catalog entry. The list is owned by the workout and replaced wholesale.
type WorkoutExercise struct {
	ID         int64  `json:"id"`
	ExerciseID int64  `json:"exercise_id"`
	Name       string `json:"name"`
	VideoURL   string `json:"video_url"`
	Sets       int    `json:"sets"`
	Reps       int    `json:"reps"`
}

// Exercise is an immutable catalog entry.
type Exercise struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	VideoURL string `json:"video_url"`
}

// ExerciseSet is the input triple for replacing a workout's exercise list.
type ExerciseSet struct {
	ExerciseID int64 `json:"exercise_id"`
	Sets       int   `json:"sets"`
	Reps       int   `json:"reps"`
}

// Render is one entry in the prompt render log.
type Render struct {
	ID           uuid.UUID  `json:"id"`
	Status       string     `json:"status"`
	ArtifactPath *string    `json:"artifact_path"`
	Error        *string    `json:"error"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}

// CreateWorkoutParams carries a new workout. A nil Position means "append at
// the end of the day". Exercises, when non-nil, is written in the same
// transaction as the workout row.
type CreateWorkoutParams struct {
	Day         int
	Type        string
	Title       string
	DurationMin *int
	Intensity   *string
	Notes       *string
	Position    *int
	Exercises   []ExerciseSet
}

// Validate checks the fields required on creation.
func (p CreateWorkoutParams) Validate() error {
	if p.Day < 0 || p.Day > 6 {
		return &ValidationError{Field: "day", Message: "must be between 0 and 6"}
	}
	if !ValidType(p.Type) {
		return &ValidationError{Field: "wtype", Message: "must be cardio, strength or other"}
	}
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	return nil
}

// UpdateWorkoutParams carries a partial update. Nil fields are left
// unchanged; empty strings and a zero duration clear the stored value.
// Exercises, when non-nil, replaces the workout's list in the same
// transaction.
type UpdateWorkoutParams struct {
	Day         *int
	Position    *int
	Type        *string
	Title       *string
	DurationMin *int
	Intensity   *string
	Notes       *string
	Exercises   []ExerciseSet
}

// Validate checks whichever fields the update supplies.
func (p UpdateWorkoutParams) Validate() error {
	if p.Day != nil && (*p.Day < 0 || *p.Day > 6) {
		return &ValidationError{Field: "day", Message: "must be between 0 and 6"}
	}
	if p.Type != nil && !ValidType(*p.Type) {
		return &ValidationError{Field: "wtype", Message: "must be cardio, strength or other"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	return nil
}

// Store is the persistence surface the handlers, worker and renderer share.
type Store interface {
	ListWorkouts(ctx context.Context) ([]Workout, error)
	GetWorkout(ctx context.Context, id int64) (*Workout, error)
	CreateWorkout(ctx context.Context, p CreateWorkoutParams) (*Workout, error)
	UpdateWorkout(ctx context.Context, id int64, p UpdateWorkoutParams) (*Workout, error)
	DeleteWorkout(ctx context.Context, id int64) error
	ReplaceExercises(ctx context.Context, workoutID int64, items []ExerciseSet) error
	Reorder(ctx context.Context, day int, ids []int64) error
	ListExercises(ctx context.Context) ([]Exercise, error)

	CreateRender(ctx context.Context) (*Render, error)
	GetRender(ctx context.Context, id uuid.UUID) (*Render, error)
	StartRender(ctx context.Context, id uuid.UUID) error
	FinishRender(ctx context.Context, id uuid.UUID, artifactPath string, renderErr error) error

	Reset(ctx context.Context) error
	Seed(ctx context.Context) error
}
