package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/memory"
)

// Append stores messages at the end of a chat session.
func (s *Store) Append(ctx context.Context, session string, msgs ...ai.Message) error {
	if session == "" {
		return memory.ErrEmptySession
	}
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = ai.GenerateMessageID()
		}
		calls, err := encodeOptional(m.ToolCalls)
		if err != nil {
			return err
		}
		results, err := encodeOptional(m.ToolResults)
		if err != nil {
			return err
		}
		_, err = s.exec(ctx,
			"INSERT INTO chat_messages (id, session_id, role, content, tool_calls, tool_results, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			m.ID, session, string(m.Role), m.Content, calls, results, millis(s.now()))
		if err != nil {
			return fmt.Errorf("sqlstore: append message: %w", err)
		}
	}
	return nil
}

// History returns a chat session in append order.
func (s *Store) History(ctx context.Context, session string) ([]ai.Message, error) {
	if session == "" {
		return nil, memory.ErrEmptySession
	}
	rows, err := s.query(ctx,
		"SELECT id, role, content, tool_calls, tool_results FROM chat_messages WHERE session_id = ? ORDER BY seq",
		session)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: history: %w", err)
	}
	defer rows.Close()

	return collect(rows, func(row interface{ Scan(...any) error }) (ai.Message, error) {
		var (
			m              ai.Message
			role           string
			calls, results string
		)
		if err := row.Scan(&m.ID, &role, &m.Content, &calls, &results); err != nil {
			return m, err
		}
		m.Role = ai.Role(role)
		if calls != "" {
			if err := json.Unmarshal([]byte(calls), &m.ToolCalls); err != nil {
				return m, fmt.Errorf("decode tool calls: %w", err)
			}
		}
		if results != "" {
			if err := json.Unmarshal([]byte(results), &m.ToolResults); err != nil {
				return m, fmt.Errorf("decode tool results: %w", err)
			}
		}
		return m, nil
	})
}

func encodeOptional[T any](items []T) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("sqlstore: encode: %w", err)
	}
	return string(data), nil
}
