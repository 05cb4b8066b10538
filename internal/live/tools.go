package live

import (
	"encoding/json"
	"fmt"

	"nutrisnap/internal/ai"
)

// The live coach exposes a single tool: logging water by voice. The
// declaration is sent with session setup; calls come back over the socket
// and are dispatched by the controller.

// LogWaterFunction is the tool declaration advertised to the model.
var LogWaterFunction = ai.FunctionDeclaration{
	Name: "logWater",
	Parameters: &ai.Schema{
		Type:        ai.TypeObject,
		Description: "Log an amount of water the user has consumed in milliliters.",
		Properties: map[string]*ai.Schema{
			"amount": {
				Type:        ai.TypeNumber,
				Description: "Amount of water in ml (e.g. 250, 500).",
			},
		},
		Required: []string{"amount"},
	},
}

// ToolCall is one function call requested by the model. The variant set is
// closed; parseToolCall rejects anything it does not know.
type ToolCall interface {
	CallID() string
	isToolCall()
}

// LogWaterCall records water intake reported by voice.
type LogWaterCall struct {
	ID       string
	AmountML int
}

func (c LogWaterCall) CallID() string { return c.ID }
func (c LogWaterCall) isToolCall()    {}

func parseToolCall(fc functionCall) (ToolCall, error) {
	switch fc.Name {
	case "logWater":
		var args struct {
			Amount float64 `json:"amount"`
		}
		if err := json.Unmarshal(fc.Args, &args); err != nil {
			return nil, fmt.Errorf("parse logWater args: %w", err)
		}
		return LogWaterCall{ID: fc.ID, AmountML: int(args.Amount)}, nil
	default:
		return nil, fmt.Errorf("unknown tool call: %s", fc.Name)
	}
}
