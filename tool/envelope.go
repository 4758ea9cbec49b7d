package tool

import (
	"context"
	"encoding/json"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
)

// ResultHandler returns the value Envelope encodes as the data payload.
type ResultHandler[T, R any] func(ctx context.Context, args T) (R, error)

// Result is the JSON envelope every Envelope tool answers with.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success encodes a successful result.
func Success(data any) string {
	return encode(Result{Success: true, Data: data})
}

// Failure encodes a failed result.
func Failure(err error) string {
	return encode(Result{Success: false, Error: err.Error()})
}

// reportsFailure reports whether content is an envelope with success false.
func reportsFailure(content string) bool {
	var r struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return false
	}
	return r.Success != nil && !*r.Success
}

func encode(r Result) string {
	out, err := json.Marshal(r)
	if err != nil {
		out, _ = json.Marshal(Result{Success: false, Error: "encode result: " + err.Error()})
	}
	return string(out)
}

// Envelope creates a Registration whose handler never fails: argument and
// handler errors become {"success":false,"error":...} payloads.
func Envelope[T, R any](name, description string, fn ResultHandler[T, R]) Registration {
	schema := ai.MustSchemaFor[T]()
	handler := func(ctx context.Context, call ai.ToolCall) (string, error) {
		args, err := decodeArgs[T](name, call.Arguments)
		if err != nil {
			return Failure(err), nil
		}
		data, err := fn(ctx, args)
		if err != nil {
			return Failure(err), nil
		}
		return Success(data), nil
	}
	return Registration{
		Tool: ai.Tool{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		Handler: handler,
	}
}
