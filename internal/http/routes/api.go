package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/hlog"

	"github.com/tkoehler/planner/internal/jobs"
	"github.com/tkoehler/planner/internal/store"
)

// workoutRequest is the JSON body of create and patch. Every field is a
// pointer so a patch can tell "absent" from "clear".
type workoutRequest struct {
	Day         *int                `json:"day"`
	Position    *int                `json:"position"`
	Type        *string             `json:"wtype"`
	Title       *string             `json:"title"`
	DurationMin *int                `json:"duration_min"`
	Intensity   *string             `json:"intensity"`
	Notes       *string             `json:"notes"`
	Exercises   []store.ExerciseSet `json:"exercises"`
}

type reorderRequest struct {
	Day   *int    `json:"day"`
	Order []int64 `json:"order"`
}

type exercisesRequest struct {
	Exercises []store.ExerciseSet `json:"exercises"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("writing json response")
	}
}

func badRequest(w http.ResponseWriter, r *http.Request, field, msg string) {
	respondJSON(w, r, http.StatusBadRequest, map[string]string{"error": msg, "field": field})
}

// apiError maps store errors onto the wire: validation → 400 with the
// field, unknown id → 404, anything else → logged 500.
func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		badRequest(w, r, verr.Field, verr.Message)
	case errors.Is(err, store.ErrNotFound):
		respondJSON(w, r, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("api request failed")
		respondJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func workoutID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Store.ListWorkouts(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	if ws == nil {
		ws = []store.Workout{}
	}
	respondJSON(w, r, http.StatusOK, ws)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "", "invalid json")
		return
	}

	p := store.CreateWorkoutParams{
		Day:         -1,
		Position:    req.Position,
		DurationMin: req.DurationMin,
		Intensity:   req.Intensity,
		Notes:       req.Notes,
		Exercises:   req.Exercises,
	}
	if req.Day != nil {
		p.Day = *req.Day
	}
	if req.Type != nil {
		p.Type = *req.Type
	}
	if req.Title != nil {
		p.Title = *req.Title
	}

	created, err := s.Store.CreateWorkout(r.Context(), p)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := workoutID(r)
	if err != nil {
		badRequest(w, r, "id", "must be an integer")
		return
	}
	workout, err := s.Store.GetWorkout(r.Context(), id)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, workout)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := workoutID(r)
	if err != nil {
		badRequest(w, r, "id", "must be an integer")
		return
	}
	var req workoutRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "", "invalid json")
		return
	}

	updated, err := s.Store.UpdateWorkout(r.Context(), id, store.UpdateWorkoutParams{
		Day:         req.Day,
		Position:    req.Position,
		Type:        req.Type,
		Title:       req.Title,
		DurationMin: req.DurationMin,
		Intensity:   req.Intensity,
		Notes:       req.Notes,
		Exercises:   req.Exercises,
	})
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := workoutID(r)
	if err != nil {
		badRequest(w, r, "id", "must be an integer")
		return
	}
	if err := s.Store.DeleteWorkout(r.Context(), id); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplaceExercises(w http.ResponseWriter, r *http.Request) {
	id, err := workoutID(r)
	if err != nil {
		badRequest(w, r, "id", "must be an integer")
		return
	}
	var req exercisesRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "", "invalid json")
		return
	}
	if err := s.Store.ReplaceExercises(r.Context(), id, req.Exercises); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "", "invalid json")
		return
	}
	if req.Day == nil {
		badRequest(w, r, "day", "required")
		return
	}
	if err := s.Store.Reorder(r.Context(), *req.Day, req.Order); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exs, err := s.Store.ListExercises(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	if exs == nil {
		exs = []store.Exercise{}
	}
	respondJSON(w, r, http.StatusOK, exs)
}

func (s *Server) handleEnqueueRender(w http.ResponseWriter, r *http.Request) {
	rend, err := s.Store.CreateRender(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: s.RedisAddr})
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			hlog.FromRequest(r).Error().Err(closeErr).Msg("closing asynq client")
		}
	}()

	payload, _ := json.Marshal(jobs.RenderPromptPayload{RenderID: rend.ID.String(), Email: true})
	task := asynq.NewTask(jobs.TaskRenderPrompt, payload)

	info, err := client.Enqueue(task,
		asynq.Queue("render"),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		if ferr := s.Store.FinishRender(r.Context(), rend.ID, "", err); ferr != nil {
			hlog.FromRequest(r).Error().Err(ferr).Msg("marking render failed")
		}
		s.apiError(w, r, err)
		return
	}

	hlog.FromRequest(r).Info().
		Str("render_id", rend.ID.String()).
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("render queued")
	respondJSON(w, r, http.StatusAccepted, map[string]string{"render_id": rend.ID.String()})
}

func (s *Server) handleRenderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, r, "id", "must be a uuid")
		return
	}
	rend, err := s.Store.GetRender(r.Context(), id)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, rend)
}
