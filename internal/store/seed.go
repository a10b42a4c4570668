package store

import (
	"context"
	"fmt"
)

type seedExercise struct {
	name string
	sets int
	reps int
}

type seedWorkout struct {
	day         int
	wtype       string
	title       string
	durationMin int
	intensity   string
	notes       string
	exercises   []seedExercise
}

var seedCatalog = []Exercise{
	{Name: "Wadenheben", VideoURL: "https://youtube.com/shorts/xr_bZ3hu_YI?si=b_J5rnAbs4c6_woI"},
	{Name: "Bird Dog", VideoURL: "https://youtube.com/shorts/Yap7kqAFHYo?si=dukxl34nlcIHcWwM"},
	{Name: "Clamshells"},
	{Name: "Monster Walks (Miniband)"},
	{Name: "Spanish Squat"},
	{Name: "Step-Down (10–15 cm)"},
	{Name: "Side Plank"},
}

// seedWeek is the recovery-week sample plan loaded by /init.
var seedWeek = []seedWorkout{
	{
		day: 0, wtype: TypeStrength, title: "Kraft & Physio (30–35 min)",
		notes: "Langsam, exzentrisch 3s",
		exercises: []seedExercise{
			{name: "Clamshells", sets: 3, reps: 12},
			{name: "Monster Walks (Miniband)", sets: 3, reps: 12},
			{name: "Spanish Squat", sets: 3, reps: 10},
			{name: "Step-Down (10–15 cm)", sets: 3, reps: 8},
			{name: "Side Plank", sets: 3, reps: 1},
		},
	},
	{
		day: 1, wtype: TypeCardio, title: "Run/Walk Intervall",
		durationMin: 30, intensity: "sehr locker (RPE 3)",
		notes: "5' gehen; 10×(1' laufen / 2' gehen); 5' gehen; Tempo 6:10–6:45/km",
	},
	{
		day: 2, wtype: TypeStrength, title: "Mobility + leichtes Kraft (25–30 min)",
		notes: "Hüftabduktion 3×12, Wadenheben 3×15, Dead Bug 3×10/Seite; 10–15' Gehen",
		exercises: []seedExercise{
			{name: "Wadenheben", sets: 3, reps: 15},
			{name: "Bird Dog", sets: 3, reps: 10},
		},
	},
	{
		day: 3, wtype: TypeCardio, title: "Rad locker",
		durationMin: 40, intensity: "RPE 3",
		notes: "TF 85–95 rpm, flach, kein Druck",
	},
	{
		day: 4, wtype: TypeCardio, title: "Run/Walk Progression",
		durationMin: 32, intensity: "RPE 3–4",
		notes: "5' gehen; 8×(2' laufen / 2' gehen); 5' gehen",
	},
	{
		day: 5, wtype: TypeOther, title: "Regeneration",
		durationMin: 40, intensity: "sehr locker",
		notes: "Spaziergang 30–40', Dehnen/Release 10–15'",
	},
	{
		day: 6, wtype: TypeOther, title: "Golf (9 Loch)",
		notes: "Warm-up 3–5'; optional 20–25' locker joggen oder 30–40' Recovery-Rad (nur schmerzfrei)",
	},
}

// Seed loads the exercise catalog and the sample week. Catalog entries are
// upserted by name so Seed can run on a non-empty database.
func (d *DB) Seed(ctx context.Context) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	catalog := make(map[string]int64, len(seedCatalog))
	for _, e := range seedCatalog {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO exercise_catalog (name, video_url)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET video_url = EXCLUDED.video_url
			RETURNING id`, e.Name, normText(&e.VideoURL)).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed exercise %q: %w", e.Name, err)
		}
		catalog[e.Name] = id
	}

	for _, sw := range seedWeek {
		dur := sw.durationMin
		var wid int64
		err := tx.QueryRow(ctx, `
			INSERT INTO workouts (day, position, wtype, title, duration_min, intensity, notes)
			VALUES ($1, 0, $2, $3, $4, $5, $6)
			RETURNING id`,
			sw.day, sw.wtype, sw.title, normDuration(&dur), normText(&sw.intensity), normText(&sw.notes)).Scan(&wid)
		if err != nil {
			return fmt.Errorf("seed workout %q: %w", sw.title, err)
		}
		for _, se := range sw.exercises {
			eid, ok := catalog[se.name]
			if !ok {
				continue
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO workout_exercises (workout_id, exercise_id, sets, reps)
				VALUES ($1, $2, $3, $4)`, wid, eid, se.sets, se.reps); err != nil {
				return fmt.Errorf("seed workout exercise %q: %w", se.name, err)
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
