package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shukalink/agrolink/agent/graph"
	"github.com/shukalink/agrolink/agent/llm"
	promptx "github.com/shukalink/agrolink/agent/prompt"
	"github.com/shukalink/agrolink/agent/router"
	"github.com/shukalink/agrolink/agent/specialist"
	toolx "github.com/shukalink/agrolink/agent/tool"
	configx "github.com/shukalink/agrolink/pkg/config"
	groqx "github.com/shukalink/agrolink/pkg/groq"
	_ "github.com/shukalink/agrolink/pkg/logger/autoload"
	"github.com/shukalink/agrolink/server"
	"github.com/shukalink/agrolink/session"
)

type AppConfig struct {
	DatabaseDSN string        `envconfig:"DATABASE_DSN" split_words:"true"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" split_words:"true" default:"720h"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llm.Config]("GROQ")
	groqCfg := configx.MustNew[groqx.Config]("GROQ")
	serverCfg := configx.MustNew[server.Config]("SERVER")

	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid model configuration")
	}

	groqClient := groqx.NewClient(*groqCfg)
	if groqClient == nil {
		log.Warn().Msg("GROQ_API_KEY not set, replies will degrade to the initializing message")
	}

	prompts := promptx.LoadPromptSet()
	supervisorModel, supervisorTemp := llmCfg.SupervisorModelName()
	supervisor := router.New(groqClient, prompts.Supervisor, supervisorModel, supervisorTemp)
	registry := specialist.NewRegistry(groqClient.API(), *llmCfg, prompts)
	catalog := toolx.NewCatalog()

	g := graph.New(supervisor, registry, catalog, graph.DefaultMaxSteps)
	agent := graph.NewService(g, groqClient != nil && llmCfg.Configured())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store session.Store
	if appCfg.DatabaseDSN != "" {
		pg, err := session.NewPostgresStore(ctx, appCfg.DatabaseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("database initialization failed")
		}
		defer pg.Close()
		store = pg
		log.Info().Msg("session store: postgres")
	} else {
		store = session.NewMemoryStore()
		log.Info().Msg("session store: in-memory")
	}
	session.StartPruner(ctx, store, appCfg.SessionTTL, time.Hour)

	deps := server.Deps{
		Agent:       agent,
		Store:       store,
		Directory:   server.NewMemoryDirectory(),
		Transcriber: groqClient,
		Verifier:    server.NewHMACVerifier(serverCfg.AuthSecret),
	}

	srv := server.NewHTTPServer(*serverCfg, server.NewRouter(*serverCfg, deps))

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
