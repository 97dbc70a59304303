package feature

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Status is the variant tag of a Result.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error" // the query mechanism faulted, not "feature missing"
)

// Payload is the probe-specific data carried by a Found result.
type Payload interface {
	// Kind is the stable discriminator used in JSON.
	Kind() string
	// Satisfied reports whether the payload asserts the feature is really
	// there (an element can exist while its gradient is absent).
	Satisfied() bool
}

// Result is the outcome of one probe for one target. Results are values:
// never mutate one after it has been stored in a Snapshot.
type Result struct {
	Status  Status
	Payload Payload
	Message string
}

// Found builds a Found result.
func Found(p Payload) Result { return Result{Status: StatusFound, Payload: p} }

// NotFound builds a NotFound result.
func NotFound() Result { return Result{Status: StatusNotFound} }

// Error builds an Error result carrying the fault message.
func Error(msg string) Result { return Result{Status: StatusError, Message: msg} }

// IsFound reports whether r is the Found variant.
func (r Result) IsFound() bool { return r.Status == StatusFound }

// Satisfied reports whether r is Found and its payload affirms the feature.
func (r Result) Satisfied() bool {
	return r.Status == StatusFound && r.Payload != nil && r.Payload.Satisfied()
}

// Equal is structural equality including the variant tag. Two Error
// results are equal only when their messages match exactly.
func (r Result) Equal(o Result) bool {
	if r.Status != o.Status || r.Message != o.Message {
		return false
	}
	return reflect.DeepEqual(r.Payload, o.Payload)
}

func (r Result) String() string {
	switch r.Status {
	case StatusFound:
		if r.Payload == nil {
			return "Found"
		}
		return fmt.Sprintf("Found(%s %+v)", r.Payload.Kind(), r.Payload)
	case StatusError:
		return fmt.Sprintf("Error(%q)", r.Message)
	default:
		return "NotFound"
	}
}

// Element describes a matched DOM element.
type Element struct {
	Tag     string   `json:"tag"`
	Text    string   `json:"text"`
	Classes []string `json:"classes,omitempty"`
	Href    string   `json:"href,omitempty"`
}

func (Element) Kind() string    { return "element" }
func (Element) Satisfied() bool { return true }

// TextGradient is the style classification of a title element.
type TextGradient struct {
	IsTextGradient  bool     `json:"is_text_gradient"`
	HasAnimation    bool     `json:"has_animation"`
	BackgroundImage string   `json:"background_image,omitempty"`
	BackgroundClip  string   `json:"background_clip,omitempty"`
	GradientClasses []string `json:"gradient_classes,omitempty"`
}

func (TextGradient) Kind() string      { return "text_gradient" }
func (g TextGradient) Satisfied() bool { return g.IsTextGradient }

// Count is a number of matched elements with a short description of each.
type Count struct {
	Count int      `json:"count"`
	Items []string `json:"items,omitempty"`
}

func (Count) Kind() string      { return "count" }
func (c Count) Satisfied() bool { return c.Count > 0 }

// Indicators lists the signatures that matched in the page source.
type Indicators struct {
	Matched []string `json:"matched"`
}

func (Indicators) Kind() string      { return "indicators" }
func (i Indicators) Satisfied() bool { return len(i.Matched) > 0 }

// Controls describes interactive controls found inside a container.
type Controls struct {
	Count        int      `json:"count"`
	Glassmorphic int      `json:"glassmorphic"`
	Classes      []string `json:"classes,omitempty"`
}

func (Controls) Kind() string      { return "controls" }
func (c Controls) Satisfied() bool { return c.Count > 0 }

var payloadKinds = map[string]func() Payload{
	"element":       func() Payload { return &Element{} },
	"text_gradient": func() Payload { return &TextGradient{} },
	"count":         func() Payload { return &Count{} },
	"indicators":    func() Payload { return &Indicators{} },
	"controls":      func() Payload { return &Controls{} },
}

type resultJSON struct {
	Status  Status          `json:"status"`
	Kind    string          `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Status: r.Status, Message: r.Message}
	if r.Payload != nil {
		data, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, err
		}
		out.Kind = r.Payload.Kind()
		out.Payload = data
	}
	return json.Marshal(out)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result{Status: in.Status, Message: in.Message}
	if in.Kind == "" {
		return nil
	}
	mk, ok := payloadKinds[in.Kind]
	if !ok {
		return fmt.Errorf("feature: unknown payload kind %q", in.Kind)
	}
	p := mk()
	if err := json.Unmarshal(in.Payload, p); err != nil {
		return fmt.Errorf("feature: decode %s payload: %w", in.Kind, err)
	}
	// Store by value so decoded results compare equal to freshly probed ones.
	r.Payload = reflect.ValueOf(p).Elem().Interface().(Payload)
	return nil
}
