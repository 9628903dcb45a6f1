package routes

import (
	"net/http"

	"github.com/courtsidehq/courtside/docs"
	"github.com/courtsidehq/courtside/handlers"
	"github.com/courtsidehq/courtside/metrics"
	"github.com/courtsidehq/courtside/middleware"
	"github.com/courtsidehq/courtside/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes собирает все маршруты приложения на одном роутере.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	// Служебные эндпоинты
	router.Handle("/metrics", metrics.Handler())
	router.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.OpenAPISpec)
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/leaderboard", userHandler.Leaderboard)

	router.Route("/users/me", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", userHandler.GetProfile)
		r.Delete("/", userHandler.DeleteAccount)
		r.Post("/avatar", userHandler.UploadAvatar)
	})

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Details)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", tournamentHandler.Create)
			r.Post("/{tournamentID}/join", tournamentHandler.Join)
			r.Post("/{tournamentID}/withdraw", tournamentHandler.Withdraw)
			r.Post("/{tournamentID}/start", tournamentHandler.Start)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
			r.Post("/{tournamentID}/logo", tournamentHandler.UploadLogo)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/result", matchHandler.SubmitResult)
			r.Post("/{matchID}/witnesses", matchHandler.RequestWitnesses)
			r.Post("/{matchID}/confirm", matchHandler.ConfirmResult)
		})
	})

	router.Route("/witness-requests", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", matchHandler.ListMyWitnessRequests)
		r.Post("/{requestID}/respond", matchHandler.RespondToWitnessRequest)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Post("/stamina/reset", adminHandler.ResetStamina)
		r.Post("/rerank", adminHandler.Rerank)
		r.Post("/backfill", adminHandler.Backfill)
		r.Get("/config", adminHandler.GetFlags)
		r.Post("/config/stamina/toggle", adminHandler.ToggleStaminaRequired)
		r.Post("/config/verification/toggle", adminHandler.ToggleVerificationRequired)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
