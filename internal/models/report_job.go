package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid returns true for a supported format.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob is an asynchronous attendance export.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultPath   *string         `db:"result_path" json:"-"`
	CreatedBy    string          `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finishedAt,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error,omitempty"`
}

// ReportJobParams are the request options, persisted as JSONB.
type ReportJobParams struct {
	Population Population   `json:"population"`
	Format     ReportFormat `json:"format"`
	StartDate  Day          `json:"startDate"`
	EndDate    Day          `json:"endDate"`
	Grade      string       `json:"grade,omitempty"`
	Group      StudentGroup `json:"group,omitempty"`
	Department string       `json:"department,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportJobParams) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*p = ReportJobParams{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportJobParams", value)
	}
	if len(data) == 0 {
		*p = ReportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal report job params: %w", err)
	}
	return nil
}
