package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/raine/copywriter-bot/internal/content"
	handoff "github.com/raine/copywriter-bot/internal/session"
	"github.com/raine/copywriter-bot/internal/storage"
)

const (
	UserIDHeader    = "X-User-ID"
	RequestIDHeader = "X-Request-ID"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	requestIDKey
)

// Generator runs the image-to-copy pipeline.
type Generator interface {
	Generate(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.GeneratedContent, error)
}

// Store is the part of storage.Store the API needs.
type Store interface {
	storage.PreferenceStore
	storage.HistoryStore
}

// Server serves generation, preferences and history over JSON.
type Server struct {
	store     Store
	generator Generator
	runs      *handoff.Runs
}

// NewServer creates a Server. Pass the Runs shared with the bot so a user
// has one generation in flight across both interfaces; nil gets a private
// instance.
func NewServer(store Store, gen Generator, runs *handoff.Runs) *Server {
	if runs == nil {
		runs = handoff.NewRuns()
	}
	return &Server{store: store, generator: gen, runs: runs}
}

// Router builds the HTTP handler. allowedOrigins configures CORS for browser
// clients.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserIDHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/generate", s.Generate)

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", s.GetPreferences)
			r.Put("/", s.PutPreferences)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.ListHistory)
			r.Get("/{id}", s.GetHistory)
			r.Delete("/{id}", s.DeleteHistory)
		})
	})

	return r
}

// requestID tags every request with an id, reusing one sent by the client.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		id, _ := r.Context().Value(requestIDKey).(string)
		log.Info().
			Str("requestId", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// requireUser reads the opaque user id set by the fronting auth layer.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			writeJSONErrorResponse(w, http.StatusUnauthorized, "unauthorized", UserIDHeader+" header is required")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
