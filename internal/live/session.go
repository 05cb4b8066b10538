package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"

	"github.com/gorilla/websocket"

	"nutrisnap/internal/ai"
)

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// SystemInstruction is the coach persona for live sessions.
const SystemInstruction = "You are an elite nutrition coach with vision. " +
	"You can see what the user is showing you via camera. Be brief, encouraging, and sharp. " +
	"Do not repeat back what the user says verbatim. " +
	"If a user tells you they drank water, use the logWater tool to record it."

// Session is one bidirectional live connection: microphone audio and
// camera frames go up, coach speech and tool calls come down. Reads are
// serialized by the internal read loop; writes may come from multiple
// producer goroutines and are serialized by the write mutex inherited
// from the controller calling Send* one at a time per producer.
type Session struct {
	conn     *websocket.Conn
	messages chan ServerMessage
	done     chan struct{}
}

// ServerMessage is one inbound message, already parsed into the parts the
// controller cares about.
type ServerMessage struct {
	// Audio is a chunk of coach speech, raw 16-bit PCM at OutputSampleRate.
	Audio []byte
	// Interrupted is set when the model cut off its own turn.
	Interrupted bool
	// TurnComplete is set at the end of a model turn.
	TurnComplete bool
	// ToolCalls are function calls requested by the model.
	ToolCalls []ToolCall
}

// Wire types for the bidi protocol.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model             string               `json:"model"`
	GenerationConfig  *ai.GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *ai.Content          `json:"systemInstruction,omitempty"`
	Tools             []ai.Tool            `json:"tools,omitempty"`
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type toolResponseMessage struct {
	ToolResponse toolResponse `json:"toolResponse"`
}

type toolResponse struct {
	FunctionResponses []functionResponse `json:"functionResponses"`
}

type functionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete,omitempty"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []struct {
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"modelTurn,omitempty"`
		Interrupted  bool `json:"interrupted,omitempty"`
		TurnComplete bool `json:"turnComplete,omitempty"`
	} `json:"serverContent,omitempty"`
	ToolCall *struct {
		FunctionCalls []functionCall `json:"functionCalls"`
	} `json:"toolCall,omitempty"`
}

type functionCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// Connect dials the live endpoint, performs session setup, and starts the
// read loop. The returned session's Messages channel closes when the
// connection ends.
func Connect(ctx context.Context, apiKey, model string) (*Session, error) {
	if apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}

	u := liveEndpoint + "?key=" + url.QueryEscape(apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial live endpoint: %w", err)
	}

	setup := setupMessage{
		Setup: setupPayload{
			Model: "models/" + model,
			GenerationConfig: &ai.GenerationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &ai.SpeechConfig{
					VoiceConfig: &ai.VoiceConfig{
						PrebuiltVoiceConfig: &ai.PrebuiltVoiceConfig{VoiceName: "Kore"},
					},
				},
			},
			SystemInstruction: &ai.Content{Parts: []ai.Part{{Text: SystemInstruction}}},
			Tools:             []ai.Tool{{FunctionDeclarations: []ai.FunctionDeclaration{LogWaterFunction}}},
		},
	}
	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send setup: %w", err)
	}

	// The first frame acknowledges setup before any content flows.
	var ack serverMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read setup ack: %w", err)
	}
	if ack.SetupComplete == nil {
		conn.Close()
		return nil, fmt.Errorf("unexpected first message before setup ack")
	}

	s := &Session{
		conn:     conn,
		messages: make(chan ServerMessage, 16),
		done:     make(chan struct{}),
	}
	go s.readLoop()

	log.Printf("[Live] Session connected: model=%s", model)
	return s, nil
}

// Messages returns the inbound message channel. It closes when the
// session ends.
func (s *Session) Messages() <-chan ServerMessage {
	return s.messages
}

// SendAudio streams one chunk of microphone PCM.
func (s *Session) SendAudio(pcm []byte) error {
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MimeType: fmt.Sprintf("audio/pcm;rate=%d", InputSampleRate),
				Data:     EncodeAudio(pcm),
			}},
		},
	}
	return s.conn.WriteJSON(msg)
}

// SendFrame streams one camera frame as base64 JPEG.
func (s *Session) SendFrame(jpegB64 string) error {
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MimeType: "image/jpeg",
				Data:     jpegB64,
			}},
		},
	}
	return s.conn.WriteJSON(msg)
}

// SendToolResponse acknowledges a tool call.
func (s *Session) SendToolResponse(callID, name string, response map[string]any) error {
	msg := toolResponseMessage{
		ToolResponse: toolResponse{
			FunctionResponses: []functionResponse{{
				ID:       callID,
				Name:     name,
				Response: response,
			}},
		},
	}
	return s.conn.WriteJSON(msg)
}

// Close tears down the connection; the read loop drains and the Messages
// channel closes.
func (s *Session) Close() error {
	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Session) readLoop() {
	defer close(s.messages)
	defer close(s.done)

	for {
		var raw serverMessage
		if err := s.conn.ReadJSON(&raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Live] read error: %v", err)
			}
			return
		}

		var out ServerMessage
		if sc := raw.ServerContent; sc != nil {
			out.Interrupted = sc.Interrupted
			out.TurnComplete = sc.TurnComplete
			if sc.ModelTurn != nil {
				for _, p := range sc.ModelTurn.Parts {
					if p.InlineData == nil {
						continue
					}
					pcm, err := DecodeAudio(p.InlineData.Data)
					if err != nil {
						log.Printf("[Live] bad audio payload: %v", err)
						continue
					}
					out.Audio = append(out.Audio, pcm...)
				}
			}
		}
		if raw.ToolCall != nil {
			for _, fc := range raw.ToolCall.FunctionCalls {
				call, err := parseToolCall(fc)
				if err != nil {
					log.Printf("[Live] %v", err)
					continue
				}
				out.ToolCalls = append(out.ToolCalls, call)
			}
		}

		if out.Audio == nil && !out.Interrupted && !out.TurnComplete && len(out.ToolCalls) == 0 {
			continue
		}
		s.messages <- out
	}
}
