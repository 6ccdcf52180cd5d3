package models

import (
	"encoding/json"
	"testing"
)

func TestCreateSessionRequest_Validate(t *testing.T) {
	plan := RawPlan(`{"assignment": {"u1": 0}}`)

	tests := []struct {
		name        string
		request     CreateSessionRequest
		expectError bool
	}{
		{
			name:        "Valid request",
			request:     CreateSessionRequest{Place: "colorado", Parts: 7, Plan: plan},
			expectError: false,
		},
		{
			name:        "Invalid - missing place",
			request:     CreateSessionRequest{Parts: 7, Plan: plan},
			expectError: true,
		},
		{
			name:        "Invalid - zero parts",
			request:     CreateSessionRequest{Place: "colorado", Plan: plan},
			expectError: true,
		},
		{
			name:        "Invalid - too many names",
			request:     CreateSessionRequest{Place: "colorado", Parts: 1, PartNames: []string{"a", "b"}, Plan: plan},
			expectError: true,
		},
		{
			name:        "Invalid - null plan",
			request:     CreateSessionRequest{Place: "colorado", Parts: 2, Plan: RawPlan("null")},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()

			if tt.expectError && err == nil {
				t.Errorf("Expected error for %s, got nil", tt.name)
			}

			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.name, err)
			}
		})
	}
}

func TestRawPlanRoundTrip(t *testing.T) {
	var req CreateSessionRequest
	body := `{"place":"colorado","parts":2,"plan":{"assignment":{"u1":[0]},"id":"abc"}}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out, err := json.Marshal(req.Plan.Serialize())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"assignment":{"u1":[0]},"id":"abc"}` {
		t.Errorf("plan bytes changed: %s", out)
	}
}
