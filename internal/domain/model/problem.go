package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Problem is the full detail view served by GET /api/problems/{id}.
type Problem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Origin      *string  `json:"origin"`
	TimeLimit   *string  `json:"timeLimit"`
	MemoryLimit *string  `json:"memoryLimit"`
	Statement   string   `json:"statement"`
	Input       string   `json:"input"`
	Output      string   `json:"output"`
	Constraints string   `json:"constraints"`
	Note        *string  `json:"note"`
	VJLink      string   `json:"vjLink"`
	Samples     []Sample `json:"samples"` // never nil
}

// ProblemSummary is one row of the problem list. It keeps the column names the
// list page reads.
type ProblemSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Origin      *string `json:"origin"`
	TimeLimit   *string `json:"time_limit"`
	MemoryLimit *string `json:"memory_limit"`
}

type Sample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Limit is a free-form resource limit ("2 seconds", "256 MB"). Admin clients send it
// either as a JSON string or as a bare number.
type Limit struct {
	Value string
	Set   bool
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = Limit{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Limit{Value: s, Set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("limit must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("limit must be a string or number: %w", err)
	}
	*l = Limit{Value: n.String(), Set: true}
	return nil
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.Set {
		return []byte("null"), nil
	}
	return json.Marshal(l.Value)
}

// Ptr returns nil when the limit was omitted.
func (l Limit) Ptr() *string {
	if !l.Set {
		return nil
	}
	v := l.Value
	return &v
}
