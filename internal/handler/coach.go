package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"nutrisnap/internal/ai"
	"nutrisnap/internal/httputil"
	"nutrisnap/internal/model"
	"nutrisnap/internal/state"
	"nutrisnap/internal/sync"
	"nutrisnap/internal/transport/http/middleware"
)

// CoachHandler serves the AI coaching generators: pantry audits, workout
// and meal plans, recovery protocols.
type CoachHandler struct {
	coach   *ai.CoachService
	history *sync.HistoryLedger
	state   *state.AppState
}

func NewCoachHandler(coach *ai.CoachService, history *sync.HistoryLedger, st *state.AppState) *CoachHandler {
	return &CoachHandler{coach: coach, history: history, state: st}
}

// Pantry handles POST /coach/pantry
func (h *CoachHandler) Pantry(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Image == "" {
		httputil.WriteBadRequest(w, "Image is required")
		return
	}

	report, err := h.coach.AnalyzePantry(r.Context(), req.Image)
	if err != nil {
		h.writeAIError(w, "Pantry audit", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// Workout handles POST /coach/workout
// Generates a workout calibrated to the calories the user has left today.
func (h *CoachHandler) Workout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	profile := h.state.Profile()
	if profile == nil {
		httputil.WriteNotFound(w, "Profile not found, onboarding required")
		return
	}

	consumed := h.history.DailyCalories(time.Now())
	remaining := profile.Goals.Calories - consumed

	plan, err := h.coach.GenerateWorkout(r.Context(), *profile, remaining)
	if err != nil {
		h.writeAIError(w, "Workout generation", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, plan)
}

// Recovery handles POST /coach/recovery
func (h *CoachHandler) Recovery(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	profile := h.state.Profile()
	if profile == nil {
		httputil.WriteNotFound(w, "Profile not found, onboarding required")
		return
	}

	var sleep model.SleepData
	if err := json.NewDecoder(r.Body).Decode(&sleep); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	protocol, err := h.coach.GetRecoveryProtocol(r.Context(), sleep, *profile)
	if err != nil {
		h.writeAIError(w, "Recovery protocol", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, protocol)
}

// MealPlan handles POST /coach/mealplan
// With ingredients in the body the plan is constrained to them; otherwise
// a standard one-day plan is generated from the profile.
func (h *CoachHandler) MealPlan(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	profile := h.state.Profile()
	if profile == nil {
		httputil.WriteNotFound(w, "Profile not found, onboarding required")
		return
	}

	var req struct {
		Ingredients []string `json:"ingredients"`
	}
	if r.Body != nil {
		// Body is optional; decode errors on an empty body are fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var (
		plan model.MealPlan
		err  error
	)
	if len(req.Ingredients) > 0 {
		plan, err = h.coach.GenerateMealPlanFromIngredients(r.Context(), req.Ingredients, *profile)
	} else {
		plan, err = h.coach.GenerateMealPlan(r.Context(), *profile)
	}
	if err != nil {
		h.writeAIError(w, "Meal plan generation", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, plan)
}

// Substitution handles POST /coach/substitution
func (h *CoachHandler) Substitution(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req struct {
		Ingredient string `json:"ingredient"`
		Diet       string `json:"diet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Ingredient == "" {
		httputil.WriteBadRequest(w, "Ingredient is required")
		return
	}
	if req.Diet == "" {
		req.Diet = model.DefaultDietaryPref
	}

	sub, err := h.coach.FindSubstitution(r.Context(), req.Ingredient, req.Diet)
	if err != nil {
		h.writeAIError(w, "Substitution", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, sub)
}

// FoodFact handles POST /coach/foodfact
// Free-form food question answered with web-search grounding; the cited
// sources ride along in the response.
func (h *CoachHandler) FoodFact(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Query == "" {
		httputil.WriteBadRequest(w, "Query is required")
		return
	}

	fact, err := h.coach.SearchFoodFact(r.Context(), req.Query)
	if err != nil {
		h.writeAIError(w, "Food fact search", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fact)
}

// ShoppingList handles POST /coach/shoppinglist
// Consolidates the submitted meal plan into a categorized grocery list.
func (h *CoachHandler) ShoppingList(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var plan model.MealPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if len(plan.Meals) == 0 {
		httputil.WriteBadRequest(w, "Meal plan is required")
		return
	}

	list, err := h.coach.GenerateShoppingList(r.Context(), plan)
	if err != nil {
		h.writeAIError(w, "Shopping list generation", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *CoachHandler) writeAIError(w http.ResponseWriter, op, userID string, err error) {
	switch {
	case errors.Is(err, ai.ErrEntityNotFound), errors.Is(err, ai.ErrMissingAPIKey):
		log.Printf("[ERROR] %s: user=%s err=%v", op, userID, err)
		httputil.WriteError(w, http.StatusBadGateway, httputil.ErrCodeUpstreamAuth,
			"AI key invalid or missing")
	default:
		log.Printf("[ERROR] %s: user=%s err=%v", op, userID, err)
		httputil.WriteInternalError(w, "AI request failed")
	}
}
