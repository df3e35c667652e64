package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/roomnotes/backend/app"
	"github.com/roomnotes/backend/handlers"
	"github.com/roomnotes/backend/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.ProviderRegistry, deps.Logger)
	folderHandler := handlers.NewFolderHandler(deps.FolderService, deps.Logger)
	roomHandler := handlers.NewRoomHandler(deps.RoomService, deps.Logger)
	audioHandler := handlers.NewAudioHandler(deps.AudioService, deps.Logger)
	questionHandler := handlers.NewQuestionHandler(deps.QuestionService, deps.Logger)
	activityHandler := handlers.NewActivityHandler(deps.ActivityService, deps.Logger)
	aiHandler := handlers.NewAIHandler(deps.AIService, deps.Logger)

	// limit wraps AI-backed endpoints with the per-user rate limiter when
	// enabled, and is a no-op otherwise
	limit := func(action string) func(http.Handler) http.Handler {
		if !deps.Config.RateLimit.Enabled {
			return func(next http.Handler) http.Handler { return next }
		}
		return deps.RateLimitMiddleware.Limit(action)
	}

	// Health check endpoints
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// Public auth endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.AuthHandler.Register)
		r.Post("/login", deps.AuthHandler.Login)
		r.Get("/verify", deps.AuthHandler.Verify)
	})

	// Authenticated API routes
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Route("/folders", func(r chi.Router) {
			r.Post("/", folderHandler.HandleCreate)
			r.Get("/", folderHandler.HandleList)
			r.Patch("/{folderId}", folderHandler.HandleUpdate)
			r.Delete("/{folderId}", folderHandler.HandleDelete)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", roomHandler.HandleCreate)
			r.Get("/", roomHandler.HandleList)
			r.With(limit("room_from_audio")).Post("/from-audio", roomHandler.HandleCreateFromAudio)

			r.Route("/{roomId}", func(r chi.Router) {
				r.Get("/", roomHandler.HandleGet)
				r.Patch("/", roomHandler.HandleUpdate)
				r.Delete("/", roomHandler.HandleDelete)

				r.With(limit("audio_upload")).Post("/audio", audioHandler.HandleUpload)
				r.Get("/audio-chunks", audioHandler.HandleListChunks)

				r.Get("/questions", questionHandler.HandleListByRoom)

				r.With(limit("activity_generate")).Post("/activities", activityHandler.HandleGenerate)
				r.Get("/activities", activityHandler.HandleListByRoom)
			})
		})

		r.With(limit("ask_question")).Post("/questions", questionHandler.HandleAsk)

		r.Route("/activities/{activityId}", func(r chi.Router) {
			r.Get("/", activityHandler.HandleGet)
			r.Delete("/", activityHandler.HandleDelete)
			r.Post("/submit", activityHandler.HandleSubmit)
		})

		r.Route("/ai", func(r chi.Router) {
			r.With(limit("ai_chat")).Post("/chat", aiHandler.HandleChat)
			r.With(limit("ai_continue")).Post("/continue-text", aiHandler.HandleContinueText)
			r.With(limit("ai_summary")).Post("/summary", aiHandler.HandleSummary)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFound(w, "route not found")
	})

	return r
}
