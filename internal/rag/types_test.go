package rag

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestContextBasedResponse_Unmarshal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		wantIDs int
		wantErr bool
	}{
		{"full", `{"answer":"a","contextIds":["1","2"]}`, 2, false},
		{"missing ids", `{"answer":"a"}`, 0, false},
		{"empty answer is still an answer", `{"answer":"","contextIds":[]}`, 0, false},
		{"missing answer", `{"contextIds":["1"]}`, 0, true},
		{"null answer", `{"answer":null}`, 0, true},
		{"wrong type", `{"answer":1}`, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var r ContextBasedResponse
			err := json.Unmarshal([]byte(tc.in), &r)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if r.ContextIDs == nil {
				t.Error("ContextIDs is nil")
			}
			if len(r.ContextIDs) != tc.wantIDs {
				t.Errorf("len(ContextIDs) = %d, want %d", len(r.ContextIDs), tc.wantIDs)
			}
		})
	}

	var r ContextBasedResponse
	if err := json.Unmarshal([]byte(`{}`), &r); !errors.Is(err, errMissingAnswer) {
		t.Errorf("err = %v, want errMissingAnswer", err)
	}
}
