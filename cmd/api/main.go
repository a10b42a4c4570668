// cmd/api/main.go
package main

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"os"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/tkoehler/planner/internal/config"
	"github.com/tkoehler/planner/internal/http/routes"
	"github.com/tkoehler/planner/internal/store"
)

func main() {
	cfg := config.Load()

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Printf("starting planner on :%s", cfg.Port)

	// DB
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()
	st := store.New(pool)
	if err := st.Migrate(context.Background()); err != nil {
		log.Fatalf("migrate error: %v", err)
	}

	// Sessions, only used for the board's flash message
	sess := scs.New()
	sess.Lifetime = 12 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode
	sess.Cookie.Secure = false

	tmpl := template.Must(template.New("").ParseGlob("web/templates/*.tmpl"))

	// Router / server
	s := routes.New(routes.ServerOptions{
		Sess:  sess,
		Tmpl:  tmpl,
		Store: st,
		Cfg:   cfg,
	})
	h := hlog.NewHandler(logger)(s.Router)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: sess.LoadAndSave(h)}
	log.Fatal(srv.ListenAndServe())
}
