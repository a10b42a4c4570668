package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// testDB connects to DATABASE_URL and resets the plan tables. Tests that use
// it run against a throwaway database only.
func testDB(t *testing.T) *DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping store integration test")
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	d := New(pool)
	require.NoError(t, d.Reset(context.Background()))
	return d
}

func seedTestCatalog(t *testing.T, d *DB, names ...string) map[string]int64 {
	t.Helper()
	out := make(map[string]int64, len(names))
	for _, n := range names {
		var id int64
		err := d.pool.QueryRow(context.Background(),
			`INSERT INTO exercise_catalog (name) VALUES ($1) RETURNING id`, n).Scan(&id)
		require.NoError(t, err)
		out[n] = id
	}
	return out
}

func TestCreateListGetWorkout(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	dur := 30
	intensity := "sehr locker (RPE 3)"
	notes := "5' gehen; 10×(1' laufen / 2' gehen); 5' gehen"
	w, err := d.CreateWorkout(ctx, CreateWorkoutParams{
		Day: 1, Type: TypeCardio, Title: "Run/Walk Intervall",
		DurationMin: &dur, Intensity: &intensity, Notes: &notes,
	})
	require.NoError(t, err)
	require.NotZero(t, w.ID)
	require.Equal(t, 0, w.Position)

	// No position given: appended after the existing day-1 workout.
	w2, err := d.CreateWorkout(ctx, CreateWorkoutParams{Day: 1, Type: TypeOther, Title: "Dehnen"})
	require.NoError(t, err)
	require.Equal(t, 1, w2.Position)

	got, err := d.GetWorkout(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "Run/Walk Intervall", got.Title)
	require.Equal(t, TypeCardio, got.Type)
	require.NotNil(t, got.DurationMin)
	require.Equal(t, 30, *got.DurationMin)
	require.NotNil(t, got.Intensity)
	require.Equal(t, intensity, *got.Intensity)
	require.NotNil(t, got.Notes)
	require.False(t, got.CreatedAt.IsZero())
	require.Empty(t, got.Exercises)

	ws, err := d.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, ws, 2)
	require.Equal(t, w.ID, ws[0].ID)
	require.Equal(t, w2.ID, ws[1].ID)

	_, err = d.GetWorkout(ctx, 99999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateWorkoutBlanksStoredAsNull(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	zero := 0
	blank := "  "
	w, err := d.CreateWorkout(ctx, CreateWorkoutParams{
		Day: 0, Type: TypeOther, Title: "Regeneration",
		DurationMin: &zero, Intensity: &blank, Notes: &blank,
	})
	require.NoError(t, err)

	got, err := d.GetWorkout(ctx, w.ID)
	require.NoError(t, err)
	require.Nil(t, got.DurationMin)
	require.Nil(t, got.Intensity)
	require.Nil(t, got.Notes)
}

func TestCreateWorkoutWithExercises(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	catalog := seedTestCatalog(t, d, "Clamshells", "Wadenheben")

	w, err := d.CreateWorkout(ctx, CreateWorkoutParams{
		Day: 0, Type: TypeStrength, Title: "Kraft & Physio",
		Exercises: []ExerciseSet{
			{ExerciseID: catalog["Clamshells"], Sets: 3, Reps: 12},
			{ExerciseID: catalog["Wadenheben"]}, // sets/reps default to 3x10
		},
	})
	require.NoError(t, err)
	require.Len(t, w.Exercises, 2)
	require.Equal(t, "Clamshells", w.Exercises[0].Name)
	require.Equal(t, 3, w.Exercises[1].Sets)
	require.Equal(t, 10, w.Exercises[1].Reps)

	// Unknown catalog id rolls back the whole create, workout row included.
	_, err = d.CreateWorkout(ctx, CreateWorkoutParams{
		Day: 2, Type: TypeStrength, Title: "Kaputt",
		Exercises: []ExerciseSet{{ExerciseID: 99999}},
	})
	require.ErrorIs(t, err, ErrNotFound)

	ws, err := d.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, ws, 1)
}

func TestUpdateWorkout(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	catalog := seedTestCatalog(t, d, "Bird Dog")

	dur := 40
	notes := "TF 85-95 rpm"
	w, err := d.CreateWorkout(ctx, CreateWorkoutParams{
		Day: 3, Type: TypeCardio, Title: "Rad locker", DurationMin: &dur, Notes: &notes,
	})
	require.NoError(t, err)

	// Partial update: only the title changes.
	title := "Rad GA1"
	got, err := d.UpdateWorkout(ctx, w.ID, UpdateWorkoutParams{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Rad GA1", got.Title)
	require.NotNil(t, got.DurationMin)
	require.NotNil(t, got.Notes)

	// Empty string and zero clear the stored values.
	empty := ""
	zero := 0
	got, err = d.UpdateWorkout(ctx, w.ID, UpdateWorkoutParams{Notes: &empty, DurationMin: &zero})
	require.NoError(t, err)
	require.Nil(t, got.Notes)
	require.Nil(t, got.DurationMin)
	require.Equal(t, "Rad GA1", got.Title)

	// Day move plus exercise replacement in one call.
	day := 5
	wtype := TypeStrength
	got, err = d.UpdateWorkout(ctx, w.ID, UpdateWorkoutParams{
		Day: &day, Type: &wtype,
		Exercises: []ExerciseSet{{ExerciseID: catalog["Bird Dog"], Sets: 3, Reps: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, 5, got.Day)
	require.Len(t, got.Exercises, 1)

	// Nil Exercises leaves the list untouched.
	title = "Kraft kurz"
	got, err = d.UpdateWorkout(ctx, w.ID, UpdateWorkoutParams{Title: &title})
	require.NoError(t, err)
	require.Len(t, got.Exercises, 1)

	_, err = d.UpdateWorkout(ctx, 99999, UpdateWorkoutParams{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)

	bad := " "
	_, err = d.UpdateWorkout(ctx, w.ID, UpdateWorkoutParams{Title: &bad})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "title", verr.Field)
}

func TestDeleteWorkoutCascades(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	catalog := seedTestCatalog(t, d, "Side Plank")

	w, err := d.CreateWorkout(ctx, CreateWorkoutParams{
		Day: 0, Type: TypeStrength, Title: "Core",
		Exercises: []ExerciseSet{{ExerciseID: catalog["Side Plank"], Sets: 3, Reps: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, d.DeleteWorkout(ctx, w.ID))

	var n int
	err = d.pool.QueryRow(ctx, `SELECT count(*) FROM workout_exercises WHERE workout_id = $1`, w.ID).Scan(&n)
	require.NoError(t, err)
	require.Zero(t, n)

	// Catalog entry survives the cascade.
	exs, err := d.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, exs, 1)

	require.ErrorIs(t, d.DeleteWorkout(ctx, w.ID), ErrNotFound)
}

func TestReplaceExercises(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	catalog := seedTestCatalog(t, d, "Clamshells", "Spanish Squat")

	w, err := d.CreateWorkout(ctx, CreateWorkoutParams{Day: 0, Type: TypeStrength, Title: "Kraft"})
	require.NoError(t, err)

	items := []ExerciseSet{
		{ExerciseID: catalog["Clamshells"], Sets: 3, Reps: 12},
		{ExerciseID: catalog["Spanish Squat"], Sets: 3, Reps: 10},
	}
	require.NoError(t, d.ReplaceExercises(ctx, w.ID, items))
	require.NoError(t, d.ReplaceExercises(ctx, w.ID, items))

	got, err := d.GetWorkout(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises, 2)
	require.Equal(t, "Clamshells", got.Exercises[0].Name)

	// Unknown exercise id fails the transaction and keeps the old list.
	err = d.ReplaceExercises(ctx, w.ID, []ExerciseSet{{ExerciseID: 99999}})
	require.ErrorIs(t, err, ErrNotFound)
	got, err = d.GetWorkout(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises, 2)

	// Empty list clears.
	require.NoError(t, d.ReplaceExercises(ctx, w.ID, nil))
	got, err = d.GetWorkout(ctx, w.ID)
	require.NoError(t, err)
	require.Empty(t, got.Exercises)

	require.ErrorIs(t, d.ReplaceExercises(ctx, 99999, items), ErrNotFound)
}

func TestReorderMovesAcrossDays(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	a, err := d.CreateWorkout(ctx, CreateWorkoutParams{Day: 1, Type: TypeCardio, Title: "A"})
	require.NoError(t, err)
	b, err := d.CreateWorkout(ctx, CreateWorkoutParams{Day: 1, Type: TypeCardio, Title: "B"})
	require.NoError(t, err)
	c, err := d.CreateWorkout(ctx, CreateWorkoutParams{Day: 2, Type: TypeOther, Title: "C"})
	require.NoError(t, err)

	// Drag A onto day 2, after C.
	require.NoError(t, d.Reorder(ctx, 2, []int64{c.ID, a.ID}))

	ws, err := d.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, ws, 3)
	byID := map[int64]Workout{}
	for _, w := range ws {
		byID[w.ID] = w
	}
	require.Equal(t, 1, byID[b.ID].Day)
	require.Equal(t, 2, byID[c.ID].Day)
	require.Equal(t, 0, byID[c.ID].Position)
	require.Equal(t, 2, byID[a.ID].Day)
	require.Equal(t, 1, byID[a.ID].Position)

	// Unknown ids are skipped, known ones still move.
	require.NoError(t, d.Reorder(ctx, 4, []int64{99999, b.ID}))
	got, err := d.GetWorkout(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 4, got.Day)
	require.Equal(t, 1, got.Position)

	var verr *ValidationError
	err = d.Reorder(ctx, 9, []int64{a.ID})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "day", verr.Field)
}

func TestSeedLoadsSampleWeek(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	require.NoError(t, d.Seed(ctx))

	ws, err := d.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, ws, 7)
	require.Equal(t, "Kraft & Physio (30–35 min)", ws[0].Title)
	require.Len(t, ws[0].Exercises, 5)
	require.Equal(t, "Clamshells", ws[0].Exercises[0].Name)
	require.Equal(t, 12, ws[0].Exercises[0].Reps)
	require.Equal(t, "Golf (9 Loch)", ws[6].Title)
	require.Nil(t, ws[6].DurationMin)

	exs, err := d.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, exs, 7)
	require.Equal(t, "Bird Dog", exs[0].Name)
	require.NotEmpty(t, exs[0].VideoURL)

	// Seeding again after a reset does not duplicate the catalog.
	require.NoError(t, d.Reset(ctx))
	require.NoError(t, d.Seed(ctx))
	exs, err = d.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, exs, 7)
}

func TestRenderLogTransitions(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	r, err := d.CreateRender(ctx)
	require.NoError(t, err)
	require.Equal(t, RenderQueued, r.Status)
	require.False(t, r.CreatedAt.IsZero())

	require.NoError(t, d.StartRender(ctx, r.ID))
	got, err := d.GetRender(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, RenderRunning, got.Status)
	require.Nil(t, got.FinishedAt)

	require.NoError(t, d.FinishRender(ctx, r.ID, "prompt.md", nil))
	got, err = d.GetRender(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, RenderDone, got.Status)
	require.NotNil(t, got.ArtifactPath)
	require.Equal(t, "prompt.md", *got.ArtifactPath)
	require.Nil(t, got.Error)
	require.NotNil(t, got.FinishedAt)

	// A failed render records the message and no artifact.
	r2, err := d.CreateRender(ctx)
	require.NoError(t, err)
	require.NoError(t, d.FinishRender(ctx, r2.ID, "ignored.md", errors.New("garmin: rate limited")))
	got, err = d.GetRender(ctx, r2.ID)
	require.NoError(t, err)
	require.Equal(t, RenderError, got.Status)
	require.Nil(t, got.ArtifactPath)
	require.NotNil(t, got.Error)
	require.Equal(t, "garmin: rate limited", *got.Error)

	// Render history survives a plan reset.
	require.NoError(t, d.Reset(ctx))
	_, err = d.GetRender(ctx, r.ID)
	require.NoError(t, err)

	_, err = d.GetRender(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
