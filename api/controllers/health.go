package controllers

import (
	"context"
	"net/http"

	"github.com/trivenisilks/triveni-backend/api/responses"
	"github.com/trivenisilks/triveni-backend/pkg/config"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Triveni-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when the datasources answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Triveni-Env", cfg.App.Env)

		checks := map[string]string{}
		ready := true

		if dbP == nil {
			checks["db"] = "unconfigured"
			ready = false
		} else if err := dbP.Ping(r.Context()); err != nil {
			checks["db"] = "down"
			ready = false
		} else {
			checks["db"] = "ok"
		}

		if redisP == nil {
			checks["redis"] = "unconfigured"
			ready = false
		} else if err := redisP.Ping(r.Context()); err != nil {
			checks["redis"] = "down"
			ready = false
		} else {
			checks["redis"] = "ok"
		}

		if !ready {
			err := pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
