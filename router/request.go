package router

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-mosq/mqtt"
)

// Params holds values captured from a topic by `:name` and `*name`
// pattern segments.
type Params map[string]string

// Request is the context handed to a handler: the raw message plus the
// parameters bound from its topic.
type Request struct {
	Message mqtt.Message
	Params  Params
}

// Param returns the captured value for name, or "" when the pattern
// did not define it.
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// BindJSON decodes the message payload into v. Unknown fields in the
// payload are rejected so malformed producers surface early.
func (r *Request) BindJSON(v any) error {
	dec := json.NewDecoder(bytes.NewReader(r.Message.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("router: decode payload on %q: %w", r.Message.Topic, err)
	}
	return nil
}

// Text returns the payload as a string.
func (r *Request) Text() string {
	return string(r.Message.Payload)
}
