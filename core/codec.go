package core

import (
	"encoding/json"
	"fmt"
)

type wirePart struct {
	Type             string            `json:"type"`
	Text             string            `json:"text,omitempty"`
	Data             map[string]any    `json:"data,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

// MarshalJSON encodes the closed Part set with an explicit type tag.
func (c Content) MarshalJSON() ([]byte, error) {
	wc := wireContent{Role: c.Role, Parts: make([]wirePart, 0, len(c.Parts))}

	for _, p := range c.Parts {
		switch v := p.(type) {
		case TextPart:
			wc.Parts = append(wc.Parts, wirePart{Type: "text", Text: v.Text, Metadata: v.Metadata})
		case DataPart:
			wc.Parts = append(wc.Parts, wirePart{Type: "data", Data: v.Data, Metadata: v.Metadata})
		case FunctionCallPart:
			fc := v.FunctionCall
			wc.Parts = append(wc.Parts, wirePart{Type: "function_call", FunctionCall: &fc, Metadata: v.Metadata})
		case FunctionResponsePart:
			fr := v.FunctionResponse
			wc.Parts = append(wc.Parts, wirePart{Type: "function_response", FunctionResponse: &fr, Metadata: v.Metadata})
		default:
			return nil, fmt.Errorf("unsupported part type %T", p)
		}
	}

	return json.Marshal(wc)
}

// UnmarshalJSON decodes parts written by MarshalJSON.
func (c *Content) UnmarshalJSON(data []byte) error {
	var wc wireContent
	if err := json.Unmarshal(data, &wc); err != nil {
		return err
	}

	c.Role = wc.Role
	c.Parts = make([]Part, 0, len(wc.Parts))

	for _, wp := range wc.Parts {
		switch wp.Type {
		case "text":
			c.Parts = append(c.Parts, TextPart{Text: wp.Text, Metadata: wp.Metadata})
		case "data":
			c.Parts = append(c.Parts, DataPart{Data: wp.Data, Metadata: wp.Metadata})
		case "function_call":
			if wp.FunctionCall == nil {
				return fmt.Errorf("function_call part without payload")
			}

			c.Parts = append(c.Parts, FunctionCallPart{FunctionCall: *wp.FunctionCall, Metadata: wp.Metadata})
		case "function_response":
			if wp.FunctionResponse == nil {
				return fmt.Errorf("function_response part without payload")
			}

			c.Parts = append(c.Parts, FunctionResponsePart{FunctionResponse: *wp.FunctionResponse, Metadata: wp.Metadata})
		default:
			return fmt.Errorf("unknown part type %q", wp.Type)
		}
	}

	return nil
}
