package amqp

import (
	"encoding/json"
	"time"

	"bankview/internal/core"
)

// ExportRequestMessage asks the worker to export the transactions of
// one analysis, filtered by the given criteria, to a spreadsheet. The
// worker re-fetches the rows itself; the message only carries the
// query.
type ExportRequestMessage struct {
	AnalysisID string        `json:"analysis_id"`
	Criteria   core.Criteria `json:"criteria"`
	SheetName  string        `json:"sheet_name,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// NewExportRequestMessage creates an export request for an analysis.
func NewExportRequestMessage(analysisID string, criteria core.Criteria, sheetName string) *ExportRequestMessage {
	return &ExportRequestMessage{
		AnalysisID: analysisID,
		Criteria:   criteria,
		SheetName:  sheetName,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestMessageFromJSON creates a message from JSON bytes
func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
