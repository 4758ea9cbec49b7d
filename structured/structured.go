// Package structured wraps single model calls: Complete returns a value that
// satisfies a declared JSON schema, Text returns free-form generation.
//
// Complete guarantees that on success every required field is present and
// every enum field holds a declared value; anything else is an error. Object
// members set to null count as absent. No retries happen here; the model
// client owns retry policy.
package structured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/schema"
)

// Complete asks the model for an object matching rs and decodes it into T.
func Complete[T any](ctx context.Context, c ai.ChatProvider, messages []ai.Message, rs ai.ResponseSchema, opts ...ai.Option) (T, error) {
	var zero T

	chatOpts := make([]ai.Option, 0, len(opts)+1)
	chatOpts = append(chatOpts, opts...)
	chatOpts = append(chatOpts, ai.WithResponseSchema(rs))

	resp, err := c.Chat(ctx, messages, chatOpts...)
	if err != nil {
		return zero, err
	}

	content := stripCodeFence(resp.Content)
	if content == "" {
		return zero, fmt.Errorf("structured: %s: %w", rs.Name, ai.ErrEmptyResponse)
	}
	content = dropNulls(content)
	if err := schema.Validate(rs.Schema, json.RawMessage(content)); err != nil {
		return zero, fmt.Errorf("structured: %s: %w", rs.Name, err)
	}

	var out T
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return zero, &ai.UnmarshalError{
			Context:    "structured: " + rs.Name,
			Content:    content,
			TargetType: fmt.Sprintf("%T", out),
			Err:        err,
		}
	}
	return out, nil
}

// Text runs free-form generation and returns the trimmed content.
func Text(ctx context.Context, c ai.ChatProvider, messages []ai.Message, opts ...ai.Option) (string, error) {
	resp, err := c.Chat(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", ai.ErrEmptyResponse
	}
	return content, nil
}

// dropNulls removes null object members at any depth. Content that is not
// valid JSON is returned unchanged for Validate to report.
func dropNulls(content string) string {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return content
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pruneNulls(v)); err != nil {
		return content
	}
	return strings.TrimSpace(buf.String())
}

func pruneNulls(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, member := range x {
			if member == nil {
				delete(x, k)
				continue
			}
			x[k] = pruneNulls(member)
		}
	case []any:
		for i, item := range x {
			x[i] = pruneNulls(item)
		}
	}
	return v
}

// stripCodeFence removes a surrounding ```json fence some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
