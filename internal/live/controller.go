package live

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// Frames are downscaled to this size before streaming; full camera
// resolution is wasted on the model and burns uplink.
const (
	frameWidth    = 320
	frameHeight   = 240
	frameQuality  = 50
	frameInterval = time.Second
)

// ErrSessionActive is returned by Start when a session already exists.
// At most one live session runs at a time.
var ErrSessionActive = errors.New("live: session already active")

// State of the live session lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
)

// Speaker plays coach speech. Play schedules a PCM chunk at the given
// start time and invokes done when it finishes; StopAll silences
// everything immediately.
type Speaker interface {
	Play(pcm []byte, start time.Time, done func())
	StopAll()
}

// WaterLogger handles the logWater tool. Implemented by the hydration
// write path so voice logging lands in the same place as a manual tap.
type WaterLogger interface {
	LogWater(ctx context.Context, amountML int) (int, error)
}

// LiveConn is the session surface the controller drives. *Session
// implements it; tests substitute their own.
type LiveConn interface {
	Messages() <-chan ServerMessage
	SendAudio(pcm []byte) error
	SendFrame(jpegB64 string) error
	SendToolResponse(callID, name string, response map[string]any) error
	Close() error
}

// DialFunc opens a live connection.
type DialFunc func(ctx context.Context) (LiveConn, error)

// Controller runs the live coaching session: it owns the connection
// lifecycle, pumps microphone audio and sampled camera frames up, and
// routes coach speech and tool calls coming down.
type Controller struct {
	dial     DialFunc
	mic      AudioSource
	camera   VideoSource
	speaker  Speaker
	playback *Scheduler
	water    WaterLogger

	mu       sync.Mutex
	state    State
	stopping bool
	sess     LiveConn
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewController(dial DialFunc, mic AudioSource, camera VideoSource, speaker Speaker, water WaterLogger) *Controller {
	return &Controller{
		dial:     dial,
		mic:      mic,
		camera:   camera,
		speaker:  speaker,
		playback: NewScheduler(),
		water:    water,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens a session and begins streaming. Fails with ErrSessionActive
// if one is already connecting or active; a failed dial returns the
// controller to idle.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.state = StateConnecting
	c.mu.Unlock()

	sess, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.sess = sess
	c.cancel = cancel
	c.state = StateActive
	c.mu.Unlock()

	c.wg.Add(3)
	go c.streamAudio(runCtx, sess)
	go c.streamVideo(runCtx, sess)
	go c.handleInbound(runCtx, sess)

	log.Printf("[Live] session active")
	return nil
}

// Stop tears the session down, releases the capture devices' streams for
// this session, and silences any scheduled speech. Safe to call when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == StateIdle || c.stopping {
		c.mu.Unlock()
		return
	}
	c.stopping = true
	sess := c.sess
	cancel := c.cancel
	c.sess = nil
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sess != nil {
		if err := sess.Close(); err != nil {
			log.Printf("[Live] close error: %v", err)
		}
	}
	c.wg.Wait()

	_ = c.mic.Close()
	_ = c.camera.Close()

	c.playback.Interrupt()
	c.speaker.StopAll()

	c.mu.Lock()
	c.state = StateIdle
	c.stopping = false
	c.mu.Unlock()

	log.Printf("[Live] session stopped")
}

// streamAudio pumps microphone chunks to the session for as long as the
// session lives.
func (c *Controller) streamAudio(ctx context.Context, sess LiveConn) {
	defer c.wg.Done()

	for {
		samples, err := c.mic.ReadChunk(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[Live] mic read error: %v", err)
			}
			return
		}
		if err := sess.SendAudio(EncodePCM16(samples)); err != nil {
			if ctx.Err() == nil {
				log.Printf("[Live] audio send error: %v", err)
			}
			return
		}
	}
}

// streamVideo samples the camera once per second, downscales, and streams
// the frame as JPEG.
func (c *Controller) streamVideo(ctx context.Context, sess LiveConn) {
	defer c.wg.Done()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := c.camera.CaptureFrame(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[Live] frame capture error: %v", err)
				}
				continue
			}

			small := imaging.Resize(frame, frameWidth, frameHeight, imaging.Lanczos)
			var buf bytes.Buffer
			if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(frameQuality)); err != nil {
				log.Printf("[Live] frame encode error: %v", err)
				continue
			}

			if err := sess.SendFrame(base64.StdEncoding.EncodeToString(buf.Bytes())); err != nil {
				if ctx.Err() == nil {
					log.Printf("[Live] frame send error: %v", err)
				}
				return
			}
		}
	}
}

// handleInbound drains server messages: speech gets scheduled gaplessly,
// interruptions flush the pipeline, tool calls are dispatched and acked.
func (c *Controller) handleInbound(ctx context.Context, sess LiveConn) {
	defer c.wg.Done()

	for msg := range sess.Messages() {
		if msg.Interrupted {
			dropped := c.playback.Interrupt()
			c.speaker.StopAll()
			log.Printf("[Live] interrupted, dropped %d chunks", dropped)
		}

		if len(msg.Audio) > 0 {
			duration := PCMDuration(len(msg.Audio), OutputSampleRate)
			start, id := c.playback.Schedule(duration)
			c.speaker.Play(msg.Audio, start, func() { c.playback.Done(id) })
		}

		for _, call := range msg.ToolCalls {
			c.dispatchToolCall(ctx, sess, call)
		}
	}

	// The message channel closed. When that happened without a local Stop
	// (the server ended the session), the controller still holds the
	// capture devices and reports Active; run the full teardown so the
	// next Start succeeds. Stop runs on its own goroutine because it waits
	// for this one to exit.
	if ctx.Err() == nil {
		log.Printf("[Live] session closed by server")
		go c.Stop()
	}
}

func (c *Controller) dispatchToolCall(ctx context.Context, sess LiveConn, call ToolCall) {
	switch tc := call.(type) {
	case LogWaterCall:
		total, err := c.water.LogWater(ctx, tc.AmountML)
		status := "success"
		if err != nil {
			log.Printf("[Live] logWater failed: amount=%d err=%v", tc.AmountML, err)
			status = "error"
		} else {
			log.Printf("[Live] logged %dml water by voice, today=%dml", tc.AmountML, total)
		}
		if err := sess.SendToolResponse(tc.ID, "logWater", map[string]any{"status": status}); err != nil {
			log.Printf("[Live] tool response send error: %v", err)
		}
	default:
		log.Printf("[Live] unhandled tool call: %T", call)
	}
}
