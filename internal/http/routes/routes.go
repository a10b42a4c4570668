// Package routes wires the chi router: the server-rendered plan board,
// the static assets and the JSON API the board's script talks to.
package routes

import (
	"html/template"
	"net/http"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"github.com/tkoehler/planner/internal/config"
	appmw "github.com/tkoehler/planner/internal/http/middleware"
	"github.com/tkoehler/planner/internal/store"
)

type Server struct {
	Router    *chi.Mux
	Sess      *scs.SessionManager
	Tmpl      *template.Template
	Store     store.Store
	RedisAddr string
	StaticDir string
}

type ServerOptions struct {
	Sess      *scs.SessionManager
	Tmpl      *template.Template
	Store     store.Store
	Cfg       config.Config
	StaticDir string // defaults to web/static
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.RequestLogger)
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, Sess: opts.Sess, Tmpl: opts.Tmpl, Store: opts.Store, RedisAddr: opts.Cfg.RedisAddr, StaticDir: opts.StaticDir}
	if s.StaticDir == "" {
		s.StaticDir = "web/static"
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("writing health check response")
		}
	})

	r.Get("/", s.handleBoard)
	r.Get("/init", s.handleInit)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.StaticDir))))

	r.Route("/api", func(api chi.Router) {
		api.Get("/workouts", s.handleListWorkouts)
		api.Post("/workouts", s.handleCreateWorkout)
		api.Get("/workout/{id}", s.handleGetWorkout)
		api.Patch("/workout/{id}", s.handleUpdateWorkout)
		api.Delete("/workout/{id}", s.handleDeleteWorkout)
		api.Put("/workout/{id}/exercises", s.handleReplaceExercises)
		api.Post("/reorder", s.handleReorder)
		api.Get("/exercises", s.handleListExercises)
		api.Post("/prompt/render", s.handleEnqueueRender)
		api.Get("/prompt/render/{id}", s.handleRenderStatus)
	})

	return s
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Tmpl.ExecuteTemplate(w, name, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("render template failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// dayColumn is one board column: weekday label plus its workouts in
// position order.
type dayColumn struct {
	Index    int
	Label    string
	Workouts []store.Workout
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Store.ListWorkouts(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list workouts failed")
		http.Error(w, "could not load plan", http.StatusInternalServerError)
		return
	}

	byDay := store.GroupByDay(ws)
	days := make([]dayColumn, len(byDay))
	for i := range byDay {
		days[i] = dayColumn{Index: i, Label: store.DayNames[i], Workouts: byDay[i]}
	}

	s.render(w, r, "index", map[string]any{
		"Title": "Trainingsplan",
		"Days":  days,
		"Flash": s.Sess.PopString(r.Context(), "flash"),
	})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Reset(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("reset failed")
		http.Error(w, "could not reset plan", http.StatusInternalServerError)
		return
	}
	if err := s.Store.Seed(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("seed failed")
		http.Error(w, "could not seed plan", http.StatusInternalServerError)
		return
	}

	s.Sess.Put(r.Context(), "flash", "Beispielwoche geladen")
	http.Redirect(w, r, "/", http.StatusFound)
}
