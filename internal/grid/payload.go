package grid

import (
	"encoding/json"
	"math"
)

// Payload is the transfer data a browser host attaches to a drag:
//
//	{"type":"move","eventId":17,"dragStartOffsetY":12}
//	{"type":"resize","eventId":17,"handle":"top"}
type Payload struct {
	Type             string   `json:"type"`
	EventID          *float64 `json:"eventId"`
	DragStartOffsetY float64  `json:"dragStartOffsetY"`
	Handle           string   `json:"handle"`
}

// Encode renders intent in the browser transfer shape.
func Encode(intent DragIntent) ([]byte, error) {
	id := float64(intent.EventID)
	p := Payload{EventID: &id}
	switch intent.Kind {
	case KindMove:
		p.Type = "move"
		p.DragStartOffsetY = intent.OffsetY
	case KindResizeTop:
		p.Type, p.Handle = "resize", "top"
	case KindResizeBottom:
		p.Type, p.Handle = "resize", "bottom"
	}
	return json.Marshal(p)
}

// Decode parses transfer data. Anything it cannot make sense of (empty
// input, bad JSON, missing or fractional id, unknown type or handle)
// reports false.
func Decode(data []byte) (DragIntent, bool) {
	if len(data) == 0 {
		return DragIntent{}, false
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return DragIntent{}, false
	}
	if p.EventID == nil {
		return DragIntent{}, false
	}
	id := *p.EventID
	if id != math.Trunc(id) || id >= math.MaxInt64 || id < math.MinInt64 {
		return DragIntent{}, false
	}

	intent := DragIntent{EventID: int64(id)}
	switch p.Type {
	case "move":
		if math.IsNaN(p.DragStartOffsetY) {
			return DragIntent{}, false
		}
		intent.Kind = KindMove
		intent.OffsetY = p.DragStartOffsetY
	case "resize":
		switch p.Handle {
		case "top":
			intent.Kind = KindResizeTop
		case "bottom":
			intent.Kind = KindResizeBottom
		default:
			return DragIntent{}, false
		}
	default:
		return DragIntent{}, false
	}
	return intent, true
}
