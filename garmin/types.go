package garmin

// rawActivity is the shape returned by the activity list endpoint.
type rawActivity struct {
	ActivityID     int64  `json:"activityId"`
	ActivityName   string `json:"activityName"`
	StartTimeLocal string `json:"startTimeLocal"`
	ActivityType   struct {
		TypeKey string `json:"typeKey"`
	} `json:"activityType"`
	Distance      *float64 `json:"distance"`
	Duration      *float64 `json:"duration"`
	AverageSpeed  *float64 `json:"averageSpeed"`
	AverageHR     *float64 `json:"averageHR"`
	MaxHR         *float64 `json:"maxHR"`
	ElevationGain *float64 `json:"elevationGain"`
}

// Activity is the slimmed structure the prompt context consumes. Distances
// are km, speeds km/h, durations minutes.
type Activity struct {
	ActivityID     int64    `json:"activityId"`
	StartTimeLocal string   `json:"startTimeLocal"`
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	DistanceKm     *float64 `json:"distance_km"`
	DurationMin    *float64 `json:"duration_min"`
	AvgHR          *float64 `json:"avg_hr"`
	MaxHR          *float64 `json:"max_hr"`
	AvgSpeedKmh    *float64 `json:"avg_speed_kmh"`
	ElevationGainM *float64 `json:"elevation_gain_m"`
}

type maxMetric struct {
	Generic struct {
		VO2MaxPreciseValue *float64 `json:"vo2MaxPreciseValue"`
		VO2MaxValue        *float64 `json:"vo2MaxValue"`
	} `json:"generic"`
}

// SleepSummary is one night, already normalized to minutes.
type SleepSummary struct {
	Date             string   `json:"date"`
	SleepDurationMin *float64 `json:"sleepDurationMin"`
	SleepEfficiency  *float64 `json:"sleepEfficiency"`
	DeepSleepMin     *float64 `json:"deepSleepMin"`
	LightSleepMin    *float64 `json:"lightSleepMin"`
	RemSleepMin      *float64 `json:"remSleepMin"`
	Awakenings       *float64 `json:"awakenings"`
	AvgHR            *float64 `json:"avgHr"`
}
