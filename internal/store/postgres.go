package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS exercise_catalog (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	video_url TEXT
);

CREATE TABLE IF NOT EXISTS workouts (
	id BIGSERIAL PRIMARY KEY,
	day INT NOT NULL CHECK (day BETWEEN 0 AND 6),
	position INT NOT NULL DEFAULT 0,
	wtype TEXT NOT NULL CHECK (wtype IN ('cardio', 'strength', 'other')),
	title TEXT NOT NULL,
	duration_min INT,
	intensity TEXT,
	notes TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS workouts_day_position_idx ON workouts (day, position);

CREATE TABLE IF NOT EXISTS workout_exercises (
	id BIGSERIAL PRIMARY KEY,
	workout_id BIGINT NOT NULL REFERENCES workouts (id) ON DELETE CASCADE,
	exercise_id BIGINT NOT NULL REFERENCES exercise_catalog (id),
	sets INT NOT NULL DEFAULT 3,
	reps INT NOT NULL DEFAULT 10
);

CREATE INDEX IF NOT EXISTS workout_exercises_workout_idx ON workout_exercises (workout_id);

CREATE TABLE IF NOT EXISTS renders (
	id UUID PRIMARY KEY,
	status TEXT NOT NULL CHECK (status IN ('queued', 'running', 'done', 'error')),
	artifact_path TEXT,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);
`

// dbtx is the subset of pgxpool.Pool and pgx.Tx the queries need.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB implements Store on a Postgres pool.
type DB struct {
	pool *pgxpool.Pool
}

var _ Store = (*DB)(nil)

func New(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Reset drops the plan tables and recreates them empty. The render log is
// left alone.
func (d *DB) Reset(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, `DROP TABLE IF EXISTS workout_exercises, workouts, exercise_catalog CASCADE`); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return d.Migrate(ctx)
}

func (d *DB) ListWorkouts(ctx context.Context) ([]Workout, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, day, position, wtype, title, duration_min, intensity, notes, created_at
		FROM workouts
		ORDER BY day, position, id`)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var out []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.Day, &w.Position, &w.Type, &w.Title, &w.DurationMin, &w.Intensity, &w.Notes, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		w.Exercises = []WorkoutExercise{}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	if err := attachExercises(ctx, d.pool, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) GetWorkout(ctx context.Context, id int64) (*Workout, error) {
	return getWorkout(ctx, d.pool, id)
}

func getWorkout(ctx context.Context, q dbtx, id int64) (*Workout, error) {
	var w Workout
	err := q.QueryRow(ctx, `
		SELECT id, day, position, wtype, title, duration_min, intensity, notes, created_at
		FROM workouts
		WHERE id = $1`, id).
		Scan(&w.ID, &w.Day, &w.Position, &w.Type, &w.Title, &w.DurationMin, &w.Intensity, &w.Notes, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workout %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get workout %d: %w", id, err)
	}
	w.Exercises = []WorkoutExercise{}
	ws := []Workout{w}
	if err := attachExercises(ctx, q, ws); err != nil {
		return nil, err
	}
	return &ws[0], nil
}

// attachExercises fills the Exercises slice of each workout with one joined
// query instead of one per workout.
func attachExercises(ctx context.Context, q dbtx, ws []Workout) error {
	if len(ws) == 0 {
		return nil
	}
	ids := make([]int64, len(ws))
	byID := make(map[int64]*Workout, len(ws))
	for i := range ws {
		ids[i] = ws[i].ID
		byID[ws[i].ID] = &ws[i]
	}
	rows, err := q.Query(ctx, `
		SELECT we.id, we.workout_id, we.exercise_id, ec.name, COALESCE(ec.video_url, ''), we.sets, we.reps
		FROM workout_exercises we
		JOIN exercise_catalog ec ON ec.id = we.exercise_id
		WHERE we.workout_id = ANY($1)
		ORDER BY we.workout_id, we.id`, ids)
	if err != nil {
		return fmt.Errorf("list workout exercises: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			we        WorkoutExercise
			workoutID int64
		)
		if err := rows.Scan(&we.ID, &workoutID, &we.ExerciseID, &we.Name, &we.VideoURL, &we.Sets, &we.Reps); err != nil {
			return fmt.Errorf("scan workout exercise: %w", err)
		}
		w := byID[workoutID]
		w.Exercises = append(w.Exercises, we)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list workout exercises: %w", err)
	}
	return nil
}

func (d *DB) CreateWorkout(ctx context.Context, p CreateWorkoutParams) (*Workout, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	pos := 0
	if p.Position != nil {
		pos = *p.Position
	} else {
		err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM workouts WHERE day = $1`, p.Day).Scan(&pos)
		if err != nil {
			return nil, fmt.Errorf("next position: %w", err)
		}
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO workouts (day, position, wtype, title, duration_min, intensity, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		p.Day, pos, p.Type, p.Title, normDuration(p.DurationMin), normText(p.Intensity), normText(p.Notes)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}
	if p.Exercises != nil {
		if err := replaceExercises(ctx, tx, id, p.Exercises); err != nil {
			return nil, err
		}
	}
	w, err := getWorkout(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return w, nil
}

func (d *DB) UpdateWorkout(ctx context.Context, id int64, p UpdateWorkoutParams) (*Workout, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		set  []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Day != nil {
		add("day", *p.Day)
	}
	if p.Position != nil {
		add("position", *p.Position)
	}
	if p.Type != nil {
		add("wtype", *p.Type)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.DurationMin != nil {
		add("duration_min", normDuration(p.DurationMin))
	}
	if p.Intensity != nil {
		add("intensity", normText(p.Intensity))
	}
	if p.Notes != nil {
		add("notes", normText(p.Notes))
	}
	if len(set) > 0 {
		args = append(args, id)
		q := fmt.Sprintf("UPDATE workouts SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
		tag, err := tx.Exec(ctx, q, args...)
		if err != nil {
			return nil, fmt.Errorf("update workout %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("workout %d: %w", id, ErrNotFound)
		}
	}
	if p.Exercises != nil {
		if err := replaceExercises(ctx, tx, id, p.Exercises); err != nil {
			return nil, err
		}
	}
	w, err := getWorkout(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return w, nil
}

func (d *DB) DeleteWorkout(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workout %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %d: %w", id, ErrNotFound)
	}
	return nil
}

func (d *DB) ReplaceExercises(ctx context.Context, workoutID int64, items []ExerciseSet) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := replaceExercises(ctx, tx, workoutID, items); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// replaceExercises swaps a workout's whole exercise list inside tx. Every
// referenced exercise must exist in the catalog or nothing is written.
func replaceExercises(ctx context.Context, tx pgx.Tx, workoutID int64, items []ExerciseSet) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM workouts WHERE id = $1)`, workoutID).Scan(&exists); err != nil {
		return fmt.Errorf("check workout %d: %w", workoutID, err)
	}
	if !exists {
		return fmt.Errorf("workout %d: %w", workoutID, ErrNotFound)
	}

	if len(items) > 0 {
		ids := make([]int64, len(items))
		for i, it := range items {
			ids[i] = it.ExerciseID
		}
		known := make(map[int64]bool, len(ids))
		rows, err := tx.Query(ctx, `SELECT id FROM exercise_catalog WHERE id = ANY($1)`, ids)
		if err != nil {
			return fmt.Errorf("check exercises: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan exercise id: %w", err)
			}
			known[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("check exercises: %w", err)
		}
		for _, it := range items {
			if !known[it.ExerciseID] {
				return fmt.Errorf("exercise %d: %w", it.ExerciseID, ErrNotFound)
			}
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM workout_exercises WHERE workout_id = $1`, workoutID); err != nil {
		return fmt.Errorf("clear exercises: %w", err)
	}
	for _, it := range items {
		sets, reps := it.Sets, it.Reps
		if sets <= 0 {
			sets = 3
		}
		if reps <= 0 {
			reps = 10
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO workout_exercises (workout_id, exercise_id, sets, reps)
			VALUES ($1, $2, $3, $4)`, workoutID, it.ExerciseID, sets, reps); err != nil {
			return fmt.Errorf("insert exercise %d: %w", it.ExerciseID, err)
		}
	}
	return nil
}

// Reorder rewrites position from the slice index for every known id and
// moves the workout to day. Unknown ids are skipped.
func (d *DB) Reorder(ctx context.Context, day int, ids []int64) error {
	if day < 0 || day > 6 {
		return &ValidationError{Field: "day", Message: "must be between 0 and 6"}
	}
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	for idx, id := range ids {
		if _, err := tx.Exec(ctx, `UPDATE workouts SET day = $1, position = $2 WHERE id = $3`, day, idx, id); err != nil {
			return fmt.Errorf("reorder workout %d: %w", id, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (d *DB) ListExercises(ctx context.Context) ([]Exercise, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, COALESCE(video_url, '')
		FROM exercise_catalog
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()
	var out []Exercise
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.VideoURL); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return out, nil
}

func (d *DB) CreateRender(ctx context.Context) (*Render, error) {
	r := Render{ID: uuid.New(), Status: RenderQueued}
	err := d.pool.QueryRow(ctx, `
		INSERT INTO renders (id, status)
		VALUES ($1, $2)
		RETURNING created_at`, r.ID, r.Status).Scan(&r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert render: %w", err)
	}
	return &r, nil
}

func (d *DB) GetRender(ctx context.Context, id uuid.UUID) (*Render, error) {
	var r Render
	err := d.pool.QueryRow(ctx, `
		SELECT id, status, artifact_path, error, created_at, finished_at
		FROM renders
		WHERE id = $1`, id).
		Scan(&r.ID, &r.Status, &r.ArtifactPath, &r.Error, &r.CreatedAt, &r.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("render %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get render %s: %w", id, err)
	}
	return &r, nil
}

func (d *DB) StartRender(ctx context.Context, id uuid.UUID) error {
	tag, err := d.pool.Exec(ctx, `UPDATE renders SET status = $2 WHERE id = $1`, id, RenderRunning)
	if err != nil {
		return fmt.Errorf("start render %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("render %s: %w", id, ErrNotFound)
	}
	return nil
}

func (d *DB) FinishRender(ctx context.Context, id uuid.UUID, artifactPath string, renderErr error) error {
	status := RenderDone
	var artifact, msg *string
	if renderErr != nil {
		status = RenderError
		s := renderErr.Error()
		msg = &s
	} else if artifactPath != "" {
		artifact = &artifactPath
	}
	tag, err := d.pool.Exec(ctx, `
		UPDATE renders
		SET status = $2, artifact_path = $3, error = $4, finished_at = now()
		WHERE id = $1`, id, status, artifact, msg)
	if err != nil {
		return fmt.Errorf("finish render %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("render %s: %w", id, ErrNotFound)
	}
	return nil
}

// normText maps empty or whitespace-only strings to NULL.
func normText(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

// normDuration maps zero and negative durations to NULL.
func normDuration(p *int) *int {
	if p == nil || *p <= 0 {
		return nil
	}
	return p
}
