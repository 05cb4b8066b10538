package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"nutrisnap/internal/ai"
	"nutrisnap/internal/httputil"
	"nutrisnap/internal/media"
	"nutrisnap/internal/model"
	"nutrisnap/internal/state"
	"nutrisnap/internal/sync"
	"nutrisnap/internal/transport/http/middleware"
)

type ScanHandler struct {
	coach    *ai.CoachService
	profiles *sync.ProfileSynchronizer
	media    *media.Service // nil when R2 is not configured
	state    *state.AppState
}

func NewScanHandler(coach *ai.CoachService, profiles *sync.ProfileSynchronizer, mediaSvc *media.Service, st *state.AppState) *ScanHandler {
	return &ScanHandler{
		coach:    coach,
		profiles: profiles,
		media:    mediaSvc,
		state:    st,
	}
}

// Analyze handles POST /scan
// The full scan flow: limit gate, analysis, counter advance. The returned
// entry is not yet logged; the client confirms with POST /meals.
func (h *ScanHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req struct {
		Image string `json:"image"` // base64 JPEG
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Image == "" {
		httputil.WriteBadRequest(w, "Image is required")
		return
	}

	profile := h.state.Profile()
	today := time.Now().Format(model.DayFormat)
	if !sync.CanScan(profile, today) {
		httputil.WriteError(w, http.StatusForbidden, httputil.ErrCodeScanLimit,
			"Daily scan limit reached, upgrade to Pro for unlimited scans")
		return
	}

	entry, err := h.coach.AnalyzeFoodImage(r.Context(), req.Image)
	if err != nil {
		h.writeAIError(w, "Analyze scan", sess.UserID, err)
		return
	}

	// Swap the inline base64 for a stable object URL when storage is
	// configured; posts and history then reference the URL.
	if h.media != nil {
		if upload, upErr := h.media.UploadScanImage(r.Context(), req.Image); upErr != nil {
			log.Printf("[Scan] image upload failed, keeping inline image: user=%s err=%v", sess.UserID, upErr)
		} else {
			entry.ScannedImage = upload.URL
		}
	}

	if err := h.profiles.RecordScanCompletion(r.Context(), sess); err != nil {
		log.Printf("[ERROR] Record scan handler: user=%s err=%v", sess.UserID, err)
	}

	httputil.WriteJSON(w, http.StatusOK, entry)
}

// Speak handles POST /scan/speak
// Returns the spoken verdict for an analysis as base64 PCM audio.
func (h *ScanHandler) Speak(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var entry model.NutritionData
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	audio, err := h.coach.SpeakNutritionSummary(r.Context(), entry)
	if err != nil {
		h.writeAIError(w, "Speak summary", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"audio": audio})
}

// Transform handles POST /scan/transform
// Redraws the scanned meal as a healthier version of itself.
func (h *ScanHandler) Transform(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.coach.TransformToHealthyMeal(r.Context(), req.Image)
	if err != nil {
		h.writeAIError(w, "Transform meal", sess.UserID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"image": result})
}

// writeAIError maps AI failures onto the API error shape. An invalid key
// is distinguished so the client can prompt for re-auth of the AI
// capability instead of showing a generic failure.
func (h *ScanHandler) writeAIError(w http.ResponseWriter, op, userID string, err error) {
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
