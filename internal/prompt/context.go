// Package prompt assembles the weekly coaching context and renders it
// through a text template into a paste-ready prompt.
package prompt

import "time"

// Context is the full data tree handed to the prompt template. Field names
// follow the JSON profile format; numeric fields are pointers so an absent
// value renders distinctly from zero.
type Context struct {
	Meta         Meta         `json:"meta"`
	Athlete      Athlete      `json:"athlete"`
	Goals        Goals        `json:"goals"`
	Event        Event        `json:"event"`
	Availability Availability `json:"availability"`
	Injury       Injury       `json:"injury"`
	Plan         Plan         `json:"plan"`
	Diet         Diet         `json:"diet"`
	LastEval     LastEval     `json:"last_eval"`
	Garmin       Garmin       `json:"garmin"`
	Compliance   Compliance   `json:"compliance"`
}

type Meta struct {
	NowISO   string `json:"now_iso"`
	Timezone string `json:"timezone"`
	Units    string `json:"units"`
}

type Equipment struct {
	HRStrap    *bool `json:"hr_strap"`
	Treadmill  *bool `json:"treadmill"`
	IndoorBike *bool `json:"indoor_bike"`
}

type Athlete struct {
	Name             string    `json:"name"`
	Age              *int      `json:"age"`
	WeightKg         *float64  `json:"weight_kg"`
	HeightCm         *float64  `json:"height_cm"`
	TrainingAgeYears *float64  `json:"training_age_years"`
	Equipment        Equipment `json:"equipment"`
}

type Goals struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary"`
}

type Event struct {
	Name       string   `json:"name"`
	DateISO    string   `json:"date_iso"`
	DistanceKm *float64 `json:"distance_km"`
}

type Availability struct {
	WeeklyTimeBudgetMin *int     `json:"weekly_time_budget_min"`
	CannotTrainDays     []string `json:"cannot_train_days"`
	PreferredGolfDay    string   `json:"preferred_golf_day"`
}

type Constraints struct {
	MaxRunSessionsPerWeek *int   `json:"max_run_sessions_per_week"`
	RunProgressionRule    string `json:"run_progression_rule"`
	NoBackToBackIntensity *bool  `json:"no_back_to_back_intensity"`
}

type Injury struct {
	Phase       string      `json:"phase"`
	PhysioNotes string      `json:"physio_notes"`
	Constraints Constraints `json:"constraints"`
}

// Plan carries the week label and one formatted line per workout.
type Plan struct {
	WeekLabel string   `json:"week_label"`
	Days      []string `json:"days"`
}

type Diet struct {
	TotalProteinG        *int              `json:"total_protein_g"`
	ProteinDistributionG []int             `json:"protein_distribution_g"`
	Supplements          map[string]string `json:"supplements"`
	Notes                string            `json:"notes"`
}

type LastEval struct {
	Summary         string `json:"summary"`
	Recommendations string `json:"recommendations"`
}

type VO2Max struct {
	Latest *float64 `json:"latest"`
	Trend  string   `json:"trend"`
}

type Sleep struct {
	AvgScore     *float64 `json:"avg_score"`
	AvgDurationH *float64 `json:"avg_duration_h"`
	AvgRHR       *float64 `json:"avg_rhr"`
}

type Activity struct {
	Date        string   `json:"date"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	DurationMin *float64 `json:"duration_min"`
	DistanceKm  *float64 `json:"distance_km"`
	AvgHR       *float64 `json:"avg_hr"`
}

type Garmin struct {
	VO2Max     VO2Max          `json:"vo2max"`
	Sleep      Sleep           `json:"sleep"`
	Activities []Activity      `json:"activities"`
	Flags      map[string]bool `json:"flags"`
}

type Compliance struct {
	CompletionPct     *float64 `json:"completion_pct"`
	PainPeak          *int     `json:"pain_peak"`
	DOMSLevel         string   `json:"doms_level"`
	SubjectiveFatigue string   `json:"subjective_fatigue"`
}

// NewContext returns the skeleton with metadata defaults filled in.
func NewContext(now time.Time) Context {
	return Context{
		Meta: Meta{
			NowISO:   now.Format(time.RFC3339),
			Timezone: "Europe/Berlin",
			Units:    "metric",
		},
	}
}
