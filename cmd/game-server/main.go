package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pokerbeat/internal/beat"
	"pokerbeat/internal/bot"
	"pokerbeat/internal/broadcast"
	"pokerbeat/internal/config"
	"pokerbeat/internal/logging"
	"pokerbeat/internal/poker"
	"pokerbeat/internal/store"
	httptransport "pokerbeat/internal/transport/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logging.Close()

	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx, cfg, st)
	if cfg.Server.ResumeOpenTables {
		if err := a.resume(ctx); err != nil {
			log.Fatal().Err(err).Msg("resume open tables failed")
		}
	}
	a.start(ctx)
	httptransport.LogRoutes(a.router)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	a.wait()
	log.Info().Msg("shutdown complete")
}

type app struct {
	store  *store.Store
	hub    *broadcast.Hub
	sup    *beat.Supervisor
	bots   *beat.BotWorker
	router *chi.Mux

	wg sync.WaitGroup
}

func newApp(ctx context.Context, cfg config.AppConfig, st *store.Store) *app {
	beatCfg := beatConfig(cfg.Beat)
	hub := broadcast.NewHub(cfg.Server.BroadcastBuffer)
	deps := beat.Deps{
		Store:     st,
		Queue:     store.NewPGQueue(st),
		Bots:      store.NewPGBotQueue(st),
		Broadcast: hub,
		Now:       time.Now,
		NewID:     store.NewID,
	}
	sup := beat.NewSupervisor(ctx, beatCfg, deps)
	return &app{
		store: st,
		hub:   hub,
		sup:   sup,
		bots:  beat.NewBotWorker(beatCfg, deps, bot.NewSimple(beatCfg.Bot), sup),
		router: httptransport.NewRouter(httptransport.RouterDeps{
			Store:    st,
			Sup:      sup,
			Hub:      hub,
			AdminKey: cfg.Server.AdminAPIKey,
			NewID:    store.NewID,
		}),
	}
}

// resume starts a worker for every open table so timeouts and bot turns
// keep moving after a restart.
func (a *app) resume(ctx context.Context) error {
	ids, err := a.store.ListTableIDs(ctx, poker.TableOpen)
	if err != nil {
		return err
	}
	for _, id := range ids {
		a.sup.EnsureRunning(id)
	}
	log.Info().Int("tables", len(ids)).Msg("table workers resumed")
	return nil
}

func (a *app) start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.bots.Run(ctx); err != nil {
			log.Error().Err(err).Msg("bot worker stopped")
		}
	}()
}

func (a *app) wait() {
	a.wg.Wait()
	a.sup.Wait()
}
