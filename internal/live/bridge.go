package live

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
)

// Bridge adapts the device's websocket connection into the controller's
// capture and playback interfaces: microphone chunks and camera frames
// come up from the device, scheduled coach speech goes back down.
//
// Device messages: {"type":"audio","data":<base64 pcm16>} and
// {"type":"frame","data":<base64 jpeg>}. Server messages mirror the audio
// shape, plus {"type":"interrupt"} when scheduled speech is flushed.
type Bridge struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	audio chan []int16

	frameMu sync.Mutex
	frame   image.Image

	timerMu sync.Mutex
	timers  map[*time.Timer]struct{}

	closed chan struct{}
}

type bridgeMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

func NewBridge(conn *websocket.Conn) *Bridge {
	return &Bridge{
		conn:   conn,
		audio:  make(chan []int16, 8),
		timers: make(map[*time.Timer]struct{}),
		closed: make(chan struct{}),
	}
}

// Run drains the device socket until it disconnects. Must be called once;
// it returns when the device goes away.
func (b *Bridge) Run() error {
	defer close(b.closed)

	for {
		var msg bridgeMessage
		if err := b.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("device socket: %w", err)
			}
			return nil
		}

		switch msg.Type {
		case "audio":
			pcm, err := DecodeAudio(msg.Data)
			if err != nil {
				log.Printf("[Live] bad device audio: %v", err)
				continue
			}
			select {
			case b.audio <- DecodePCM16(pcm):
			default:
				// Device is producing faster than the session consumes;
				// dropping the oldest keeps latency bounded.
				select {
				case <-b.audio:
				default:
				}
				b.audio <- DecodePCM16(pcm)
			}
		case "frame":
			raw, err := base64.StdEncoding.DecodeString(msg.Data)
			if err != nil {
				log.Printf("[Live] bad device frame: %v", err)
				continue
			}
			img, err := imaging.Decode(bytes.NewReader(raw))
			if err != nil {
				log.Printf("[Live] undecodable device frame: %v", err)
				continue
			}
			b.frameMu.Lock()
			b.frame = img
			b.frameMu.Unlock()
		default:
			log.Printf("[Live] unknown device message type: %s", msg.Type)
		}
	}
}

// ReadChunk implements AudioSource.
func (b *Bridge) ReadChunk(ctx context.Context) ([]int16, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.closed:
		return nil, fmt.Errorf("device disconnected")
	case chunk := <-b.audio:
		return chunk, nil
	}
}

// CaptureFrame implements VideoSource, returning the most recent frame
// the device sent.
func (b *Bridge) CaptureFrame(ctx context.Context) (image.Image, error) {
	b.frameMu.Lock()
	defer b.frameMu.Unlock()
	if b.frame == nil {
		return nil, fmt.Errorf("no frame received yet")
	}
	return b.frame, nil
}

// Close implements both source interfaces' Close.
func (b *Bridge) Close() error {
	return b.conn.Close()
}

// Play implements Speaker: the chunk is written to the device at its
// scheduled start, and done fires after its playback duration.
func (b *Bridge) Play(pcm []byte, start time.Time, done func()) {
	delay := time.Until(start)
	if delay < 0 {
		delay = 0
	}

	timer := time.AfterFunc(delay, func() {
		b.send(bridgeMessage{Type: "audio", Data: EncodeAudio(pcm)})

		end := time.AfterFunc(PCMDuration(len(pcm), OutputSampleRate), done)
		b.track(end)
	})
	b.track(timer)
}

// StopAll implements Speaker: pending chunks are dropped and the device is
// told to cut playback.
func (b *Bridge) StopAll() {
	b.timerMu.Lock()
	for t := range b.timers {
		t.Stop()
	}
	b.timers = make(map[*time.Timer]struct{})
	b.timerMu.Unlock()

	b.send(bridgeMessage{Type: "interrupt"})
}

func (b *Bridge) track(t *time.Timer) {
	b.timerMu.Lock()
	b.timers[t] = struct{}{}
	b.timerMu.Unlock()
}

func (b *Bridge) send(msg bridgeMessage) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	select {
	case <-b.closed:
		return
	default:
	}
	if err := b.conn.WriteJSON(msg); err != nil {
		log.Printf("[Live] device write error: %v", err)
	}
}
