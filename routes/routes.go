package routes

import (
	"github.com/TeaBear5/inspyre-ping-pong/handlers"
	appMiddleware "github.com/TeaBear5/inspyre-ping-pong/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	auth *appMiddleware.Authenticator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	gameHandler *handlers.GameHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	notificationHandler *handlers.NotificationHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/signup", authHandler.SignUp)
	router.Post("/auth/signin", authHandler.SignIn)

	// Public read surfaces.
	router.Get("/leaderboard/weekly", leaderboardHandler.GetWeekly)
	router.Get("/leaderboard/elo", leaderboardHandler.GetEloLadder)
	router.Get("/users/{userID}", userHandler.GetUser)
	router.Get("/users/{userID}/snapshot", userHandler.GetSnapshot)
	router.Get("/users/{userID}/trophies", userHandler.ListTrophies)

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/me", userHandler.GetMe)
		r.Put("/me/theme", userHandler.UpdateTheme)
		r.Post("/me/avatar", userHandler.UploadAvatar)

		r.Route("/games", func(r chi.Router) {
			r.Post("/", gameHandler.Report)
			r.Get("/mine", gameHandler.ListMine)
			r.Get("/pending-verifications", gameHandler.ListPendingVerifications)
			r.Get("/{gameID}", gameHandler.GetGame)
			r.Post("/{gameID}/verify", gameHandler.Verify)
			r.Post("/{gameID}/dispute", gameHandler.Dispute)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Post("/{gameID}/resolve", gameHandler.Resolve)
				r.Post("/{gameID}/cancel", gameHandler.Cancel)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Post("/{notificationID}/read", notificationHandler.MarkRead)
			r.Post("/read-all", notificationHandler.MarkAllRead)
		})

		r.Get("/ws", webSocketHandler.ServeWs)
	})
}
