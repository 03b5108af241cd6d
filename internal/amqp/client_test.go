package amqp

import (
	"fmt"
	"testing"
	"time"

	"bankview/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{40, 30 * time.Second}, // shift overflow also capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestExportRequestMessage_RoundTrip(t *testing.T) {
	criteria := core.DefaultCriteria()
	criteria.Category = "Food"
	criteria.Bank = "HDFC"

	msg := NewExportRequestMessage("an-42", criteria, "March Report")

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := ExportRequestMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if decoded.AnalysisID != "an-42" {
		t.Errorf("AnalysisID = %q, want an-42", decoded.AnalysisID)
	}
	if decoded.SheetName != "March Report" {
		t.Errorf("SheetName = %q, want March Report", decoded.SheetName)
	}
	if decoded.Criteria.Category != "Food" || decoded.Criteria.Bank != "HDFC" {
		t.Errorf("Criteria = %+v, filters not preserved", decoded.Criteria)
	}
}

func TestExportRequestMessageFromJSON_Malformed(t *testing.T) {
	if _, err := ExportRequestMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("malformed payload should fail to decode")
	}
}
