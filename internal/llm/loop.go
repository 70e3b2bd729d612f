package llm

import (
	"encoding/json"
	"fmt"
)

// MockedLoopJSON is the exact text of every mocked reply: one line with
// ", " and ": " separators, keys in payload order. Callers compare it
// byte for byte.
const MockedLoopJSON = `{"name": "Mocked Loop", "description": "This is a mocked response because the AI integration is unavailable locally.", "color": "#FFC93A", "reset_rule": "daily", "tasks": [{"description": "Mocked task 1", "type": "recurring"}, {"description": "Mocked task 2", "type": "one-time"}]}`

// Task types used in loop payloads
const (
	TaskTypeRecurring = "recurring"
	TaskTypeOneTime   = "one-time"
)

// Loop is the typed form of a loop payload
type Loop struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	ResetRule   string     `json:"reset_rule"`
	Tasks       []LoopTask `json:"tasks"`
}

// LoopTask is one task inside a loop
type LoopTask struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

// MockedLoop returns the payload of MockedLoopJSON as a fresh value.
func MockedLoop() Loop {
	return Loop{
		Name:        "Mocked Loop",
		Description: "This is a mocked response because the AI integration is unavailable locally.",
		Color:       "#FFC93A",
		ResetRule:   "daily",
		Tasks: []LoopTask{
			{Description: "Mocked task 1", Type: TaskTypeRecurring},
			{Description: "Mocked task 2", Type: TaskTypeOneTime},
		},
	}
}

// ParseLoop decodes a response text into a Loop
func ParseLoop(text string) (Loop, error) {
	var l Loop
	if err := json.Unmarshal([]byte(text), &l); err != nil {
		return Loop{}, fmt.Errorf("failed to parse loop payload: %w", err)
	}
	return l, nil
}
