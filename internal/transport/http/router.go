package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"nutrisnap/internal/handler"
	"nutrisnap/internal/httputil"
	"nutrisnap/internal/session"
	authmw "nutrisnap/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	SessionStore   *session.Store
	SessionHandler *handler.SessionHandler
	ProfileHandler *handler.ProfileHandler
	ScanHandler    *handler.ScanHandler
	MealHandler    *handler.MealHandler
	PostHandler    *handler.PostHandler
	WaterHandler   *handler.WaterHandler
	CoachHandler   *handler.CoachHandler
	LiveHandler    *handler.LiveHandler
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Session lifecycle - installing a token is the one unauthenticated
	// operation.
	r.Route("/session", func(r chi.Router) {
		r.Get("/", cfg.SessionHandler.Get)
		r.Post("/", cfg.SessionHandler.SetToken)
		r.Delete("/", cfg.SessionHandler.Clear)
	})

	// Everything else requires an active session.
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireSession(cfg.SessionStore))

		r.Get("/profile", cfg.ProfileHandler.Get)
		r.Post("/profile/onboarding", cfg.ProfileHandler.CompleteOnboarding)
		r.Put("/profile", cfg.ProfileHandler.Update)
		r.Post("/profile/pro", cfg.ProfileHandler.SetPro)

		r.Post("/scan", cfg.ScanHandler.Analyze)
		r.Post("/scan/speak", cfg.ScanHandler.Speak)
		r.Post("/scan/transform", cfg.ScanHandler.Transform)

		r.Get("/meals", cfg.MealHandler.List)
		r.Post("/meals", cfg.MealHandler.Log)
		r.Post("/meals/share", cfg.MealHandler.LogAndShare)

		r.Get("/posts", cfg.PostHandler.List)
		r.Post("/posts", cfg.PostHandler.Share)
		r.Post("/posts/{id}/like", cfg.PostHandler.Like)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)

		r.Get("/water", cfg.WaterHandler.Get)
		r.Post("/water", cfg.WaterHandler.Add)

		r.Post("/coach/pantry", cfg.CoachHandler.Pantry)
		r.Post("/coach/workout", cfg.CoachHandler.Workout)
		r.Post("/coach/recovery", cfg.CoachHandler.Recovery)
		r.Post("/coach/mealplan", cfg.CoachHandler.MealPlan)
		r.Post("/coach/substitution", cfg.CoachHandler.Substitution)
		r.Post("/coach/foodfact", cfg.CoachHandler.FoodFact)
		r.Post("/coach/shoppinglist", cfg.CoachHandler.ShoppingList)

		r.Get("/coach/live", cfg.LiveHandler.Status)
		r.Get("/coach/live/ws", cfg.LiveHandler.Stream)
	})

	return r
}
