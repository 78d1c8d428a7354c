package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tichu-tools/pairs-server/handlers"
	"github.com/tichu-tools/pairs-server/middleware"
)

// SetupRoutes wires every HTTP endpoint onto the router.
//
// Pair-facing endpoints (movement view, score submit, hand status) accept
// either a director JWT or a ?code= pair code, so they sit outside the
// RequireUser group; the service layer decides what the credential may do.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	movementHandler *handlers.MovementHandler,
	scoreHandler *handlers.ScoreHandler,
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

	router.Use(middleware.Authenticate([]byte(jwtSecret)))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/tournaments", func(r chi.Router) {
		// Director-only management endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Post("/", tournamentHandler.Create)
			r.Get("/", tournamentHandler.ListMine)
			r.Patch("/{tournamentID}", tournamentHandler.Update)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
			r.Put("/{tournamentID}/lock", tournamentHandler.SetLockState)
			r.Get("/{tournamentID}/pairs", tournamentHandler.ListPairs)
			r.Put("/{tournamentID}/pairs/{pairNo}/players", tournamentHandler.UpdatePairPlayers)
		})

		r.Get("/{tournamentID}", tournamentHandler.GetByID)
		r.Get("/{tournamentID}/movement", movementHandler.GetMovement)
		r.Get("/{tournamentID}/pairs/{pairNo}/movement", movementHandler.GetMovementForPair)
		r.Get("/{tournamentID}/hands/status", movementHandler.HandStatus)

		r.Post("/{tournamentID}/hands", scoreHandler.Submit)
		r.Delete("/{tournamentID}/hands/{boardNo}/{nsPair}/{ewPair}", scoreHandler.Delete)
		r.Get("/{tournamentID}/hands/{boardNo}/{nsPair}/{ewPair}/changelog", scoreHandler.GetChangeLog)
		r.Get("/{tournamentID}/boards/{boardNo}/results", scoreHandler.GetHandResults)
		r.Get("/{tournamentID}/results", scoreHandler.GetFinalResults)
		r.Post("/{tournamentID}/results/archive", scoreHandler.ArchiveFinalResults)
		r.Post("/{tournamentID}/deals", scoreHandler.DealBoards)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
