package server

import (
	"github.com/vango-dev/lessonvars/pkg/value"
)

// Frame operations sent by clients.
const (
	OpSubscribe   = "subscribe"
	OpSet         = "set"
	OpUnsubscribe = "unsubscribe"
)

// Frame operations sent by the server.
const (
	OpHello  = "hello"
	OpValue  = "value"
	OpError  = "error"
	OpReload = "reload"
)

// Frame is one JSON WebSocket message in either direction.
//
//	→ {"op":"subscribe","name":"sineAngle","fallback":45}
//	→ {"op":"set","name":"sineAngle","value":90}
//	→ {"op":"unsubscribe","name":"sineAngle"}
//	← {"op":"hello","id":"5b0c…"}
//	← {"op":"value","name":"sineAngle","value":90}
//	← {"op":"error","code":"E301","message":"…","name":"sineAngle"}
//	← {"op":"reload","variables":["sineAngle"]}
type Frame struct {
	Op       string       `json:"op"`
	ID       string       `json:"id,omitempty"`
	Name     string       `json:"name,omitempty"`
	Value    *value.Value `json:"value,omitempty"`
	Fallback *value.Value `json:"fallback,omitempty"`

	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	Variables []string `json:"variables,omitempty"`
}

func valueFrame(name string, v value.Value) Frame {
	return Frame{Op: OpValue, Name: name, Value: &v}
}

func errorFrame(name, code, message string) Frame {
	return Frame{Op: OpError, Name: name, Code: code, Message: message}
}
