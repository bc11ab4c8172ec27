// Package app wires the application together: configuration, tracing,
// the database pool, genkit, the stores, and the turn engine. Setup
// builds everything in dependency order; Close releases it in reverse.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/concierge/internal/config"
	"github.com/koopa0/concierge/internal/kb"
	"github.com/koopa0/concierge/internal/llm"
	"github.com/koopa0/concierge/internal/log"
	"github.com/koopa0/concierge/internal/session"
	"github.com/koopa0/concierge/internal/turn"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	KB       *kb.Store
	Sessions *session.Store
	LLM      *llm.Client
	Engine   *turn.Engine

	otelCleanup func()
}

// Close releases all resources. Safe to call on a partially built App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
