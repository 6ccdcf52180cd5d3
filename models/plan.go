package models

import (
	"encoding/json"
)

// RawPlan is a serialized districting plan as posted by the editor. It is
// forwarded to the analysis services untouched.
type RawPlan json.RawMessage

// Serialize returns the plan in its transportable form.
func (p RawPlan) Serialize() any {
	return json.RawMessage(p)
}

// MarshalJSON keeps the plan bytes as-is when embedded in other documents.
func (p RawPlan) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON stores a copy of the raw plan document.
func (p *RawPlan) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// IsEmpty reports whether no plan was supplied.
func (p RawPlan) IsEmpty() bool {
	return len(p) == 0 || string(p) == "null"
}
