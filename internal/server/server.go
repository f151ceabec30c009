package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"habit-coach-backend/internal/analytics"
	"habit-coach-backend/internal/apperr"
	"habit-coach-backend/internal/auth"
	"habit-coach-backend/internal/coach"
	"habit-coach-backend/internal/tasks"
)

type Deps struct {
	Engine      *coach.Engine
	Store       tasks.Store
	Auth        auth.Middleware
	Log         *zap.Logger
	CORSOrigins []string
}

// New wires every route and wraps the mux in CORS.
func New(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /categories", CategoriesHandler())

	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return d.Auth.Wrap(withEnvelope(h))
	}

	mux.HandleFunc("POST /tasks/new", protect(CreateTaskHandler(d.Engine, d.Log)))
	mux.HandleFunc("GET /tasks", protect(ListTasksHandler(d.Store, d.Log)))
	mux.HandleFunc("GET /tasks/{id}", protect(GetTaskHandler(d.Store, d.Log)))
	mux.HandleFunc("PATCH /tasks/{id}", protect(UpdateTaskHandler(d.Store, d.Log)))
	mux.HandleFunc("DELETE /tasks/{id}", protect(DeleteTaskHandler(d.Store, d.Log)))
	mux.HandleFunc("POST /tasks/add-journal-entry", protect(AddJournalEntryHandler(d.Engine, d.Log)))

	mux.HandleFunc("POST /progress/generate-report", protect(GenerateReportHandler(d.Engine, d.Log)))

	mux.HandleFunc("GET /recommendations", protect(RecommendationsHandler(d.Engine, d.Log)))
	mux.HandleFunc("GET /recommendations/new-tasks", protect(NewTasksHandler(d.Engine, d.Log)))
	mux.HandleFunc("GET /recommendations/new-categories", protect(NewCategoriesHandler(d.Engine, d.Log)))

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type", "Authorization",
			"Idempotency-Key", "X-Source-Event-Key",
			"X-Platform", "X-App-Version", "X-Device-Locale", "X-Session-Id",
		},
		AllowCredentials: true,
	})

	return c.Handler(mux)
}

func withEnvelope(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := analytics.WithEnvelope(r.Context(), analytics.FromRequest(r))
		next(w, r.WithContext(ctx))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	body := map[string]any{
		"status": "success",
		"data":   data,
	}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

// writeError logs err once and answers with the status its kind maps to.
// Server-side failures expose only the kind name.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)

	fields := []zap.Field{
		zap.String("op", apperr.OpOf(err)),
		zap.String("kind", kind.String()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if raw := apperr.RawOf(err); raw != "" {
		fields = append(fields, zap.String("raw", truncate(raw, 2000)))
	}

	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
		if status == http.StatusInternalServerError {
			message = kind.String()
		}
	} else {
		log.Info("request rejected", fields...)
	}

	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
		"kind":    kind.String(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, op, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
