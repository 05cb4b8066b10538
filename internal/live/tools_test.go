package live

import (
	"encoding/json"
	"testing"
)

func TestParseToolCall_LogWater(t *testing.T) {
	// ARRANGE: NUMBER args arrive as JSON floats.
	fc := functionCall{
		ID:   "call-1",
		Name: "logWater",
		Args: json.RawMessage(`{"amount": 250}`),
	}

	// ACT
	call, err := parseToolCall(fc)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	water, ok := call.(LogWaterCall)
	if !ok {
		t.Fatalf("call type = %T, want LogWaterCall", call)
	}
	if water.AmountML != 250 {
		t.Errorf("AmountML = %d, want 250", water.AmountML)
	}
	if water.CallID() != "call-1" {
		t.Errorf("CallID() = %q, want %q", water.CallID(), "call-1")
	}
}

func TestParseToolCall_FractionalAmountTruncates(t *testing.T) {
	fc := functionCall{
		ID:   "call-2",
		Name: "logWater",
		Args: json.RawMessage(`{"amount": 330.7}`),
	}

	call, err := parseToolCall(fc)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := call.(LogWaterCall).AmountML; got != 330 {
		t.Errorf("AmountML = %d, want 330", got)
	}
}

func TestParseToolCall_UnknownTool(t *testing.T) {
	fc := functionCall{ID: "call-3", Name: "orderPizza", Args: json.RawMessage(`{}`)}

	if _, err := parseToolCall(fc); err == nil {
		t.Fatal("expected an error for an unknown tool name")
	}
}

func TestParseToolCall_MalformedArgs(t *testing.T) {
	fc := functionCall{ID: "call-4", Name: "logWater", Args: json.RawMessage(`not json`)}

	if _, err := parseToolCall(fc); err == nil {
		t.Fatal("expected an error for malformed args")
	}
}

func TestPCMDuration(t *testing.T) {
	// 24kHz mono 16-bit: 48000 bytes per second.
	if got := PCMDuration(48000, OutputSampleRate); got.Seconds() != 1 {
		t.Errorf("PCMDuration(48000, 24000) = %v, want 1s", got)
	}
	if got := PCMDuration(16000, InputSampleRate); got.Milliseconds() != 500 {
		t.Errorf("PCMDuration(16000, 16000) = %v, want 500ms", got)
	}
}
