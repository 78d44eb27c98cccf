package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zonova/leadscout/internal/model"
	"github.com/zonova/leadscout/internal/pipeline"
	"github.com/zonova/leadscout/internal/search"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for search and pipeline management",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// leadView is a PipelineLead plus presentation fields.
type leadView struct {
	model.PipelineLead
	PromoImage string `json:"promo_image"`
}

// searchLeadView is a QualifiedLead plus whether it is already saved.
type searchLeadView struct {
	model.QualifiedLead
	Saved bool `json:"saved"`
}

// newRouter builds the API router over the shared environment.
func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := env.Orchestrator.Search(req.Context(), body.Query)
		if err != nil {
			switch {
			case eris.Is(err, search.ErrEmptyQuery):
				writeError(w, http.StatusBadRequest, "query is required")
			case eris.Is(err, search.ErrProviderUnavailable):
				writeError(w, http.StatusServiceUnavailable, "search provider not configured")
			default:
				zap.L().Error("search failed", zap.String("query", body.Query), zap.Error(err))
				writeError(w, http.StatusBadGateway, "search provider error")
			}
			return
		}

		saved := env.Adapter.SavedPlaceIDs()
		views := make([]searchLeadView, len(result.Leads))
		for i, lead := range result.Leads {
			views[i] = searchLeadView{QualifiedLead: lead, Saved: saved[lead.ID]}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"query":     result.Query,
			"raw_count": result.RawCount,
			"leads":     views,
			"notice":    result.Notice,
		})
	})

	r.Get("/leads", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("refresh") == "1" {
			if err := env.Adapter.Refresh(req.Context()); err != nil {
				zap.L().Error("pipeline refresh failed", zap.Error(err))
				writeError(w, http.StatusBadGateway, "pipeline store unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, leadViews(env.Adapter.Leads()))
	})

	r.Post("/leads", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			PlaceID string `json:"place_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.PlaceID == "" {
			writeError(w, http.StatusBadRequest, "place_id is required")
			return
		}

		latest := env.Orchestrator.Latest()
		if latest == nil {
			writeError(w, http.StatusNotFound, "no search results to save from")
			return
		}

		var lead *model.QualifiedLead
		for i := range latest.Leads {
			if latest.Leads[i].ID == body.PlaceID {
				lead = &latest.Leads[i]
				break
			}
		}
		if lead == nil {
			writeError(w, http.StatusNotFound, "place not in current search results")
			return
		}

		result, err := env.Coordinator.AddLead(req.Context(), *lead)
		if err != nil {
			zap.L().Error("add lead failed", zap.String("place_id", body.PlaceID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "failed to save lead")
			return
		}
		if result.Duplicate {
			writeJSON(w, http.StatusConflict, result)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	})

	r.Route("/leads/{id}", func(r chi.Router) {
		r.Patch("/status", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			status := model.Status(body.Status)
			if !model.ValidStatus(status) {
				writeError(w, http.StatusBadRequest, "unknown status: "+body.Status)
				return
			}
			patchLead(w, req, env, func(id string) error {
				return env.Adapter.UpdateStatus(req.Context(), id, status)
			})
		})

		r.Patch("/notes", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Notes string `json:"notes"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			patchLead(w, req, env, func(id string) error {
				return env.Adapter.UpdateNotes(req.Context(), id, body.Notes)
			})
		})

		r.Patch("/contact", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Field string `json:"field"`
				Value string `json:"value"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.Field != pipeline.ContactFieldEmail && body.Field != pipeline.ContactFieldWeb {
				writeError(w, http.StatusBadRequest, "field must be email or web_url")
				return
			}
			patchLead(w, req, env, func(id string) error {
				return env.Adapter.UpdateContact(req.Context(), id, body.Field, body.Value)
			})
		})

		r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			if err := env.Adapter.Delete(req.Context(), id); err != nil {
				writeError(w, http.StatusNotFound, "lead not found")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// patchLead runs a single-field update and responds with the updated lead.
func patchLead(w http.ResponseWriter, req *http.Request, env *appEnv, update func(id string) error) {
	id := chi.URLParam(req, "id")
	if err := update(id); err != nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	for _, lead := range env.Adapter.Leads() {
		if lead.ID == id {
			writeJSON(w, http.StatusOK, leadView{
				PipelineLead: lead,
				PromoImage:   model.PromoImageForCategory(lead.Category),
			})
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func leadViews(leads []model.PipelineLead) []leadView {
	views := make([]leadView, len(leads))
	for i, lead := range leads {
		views[i] = leadView{
			PipelineLead: lead,
			PromoImage:   model.PromoImageForCategory(lead.Category),
		}
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
