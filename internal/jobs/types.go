package jobs

const (
	TaskRenderPrompt = "render:prompt"
	TaskSyncGarmin   = "sync:garmin"
)

type RenderPromptPayload struct {
	RenderID string `json:"render_id"`
	Email    bool   `json:"email,omitempty"`
}

type SyncGarminPayload struct {
	ActivityLimit int `json:"activity_limit,omitempty"`
	SleepDays     int `json:"sleep_days,omitempty"`
}
