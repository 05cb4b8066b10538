package handler

import (
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"nutrisnap/internal/httputil"
	"nutrisnap/internal/live"
	"nutrisnap/internal/transport/http/middleware"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 8192,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ControllerFactory builds a live controller around one device bridge.
type ControllerFactory func(mic live.AudioSource, camera live.VideoSource, speaker live.Speaker) *live.Controller

// LiveHandler runs live coaching sessions over a device websocket. The
// device streams microphone audio and camera frames up; coach speech and
// interrupts come back down the same socket.
type LiveHandler struct {
	newController ControllerFactory
	active        atomic.Bool
}

func NewLiveHandler(newController ControllerFactory) *LiveHandler {
	return &LiveHandler{newController: newController}
}

// Status handles GET /coach/live
func (h *LiveHandler) Status(w http.ResponseWriter, r *http.Request) {
	state := "idle"
	if h.active.Load() {
		state = "active"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"state": state})
}

// Stream handles GET /coach/live/ws
// Upgrades to a websocket, opens the upstream live session, and runs
// until the device disconnects. At most one session at a time; a second
// connection is refused.
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	if !h.active.CompareAndSwap(false, true) {
		httputil.WriteConflict(w, "Live session already active")
		return
	}
	defer h.active.Store(false)

	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ERROR] Live upgrade: user=%s err=%v", sess.UserID, err)
		return
	}

	bridge := live.NewBridge(conn)
	controller := h.newController(bridge, bridge, bridge)

	if err := controller.Start(r.Context()); err != nil {
		log.Printf("[ERROR] Live session start: user=%s err=%v", sess.UserID, err)
		conn.Close()
		return
	}
	defer controller.Stop()

	log.Printf("[Live] device connected: user=%s", sess.UserID)
	if err := bridge.Run(); err != nil {
		log.Printf("[Live] device stream ended: user=%s err=%v", sess.UserID, err)
	}
	log.Printf("[Live] device disconnected: user=%s", sess.UserID)
}
