package model

import (
	"time"

	"github.com/google/uuid"
)

// PreApprovedEvent is one row of the externally maintained schedule: a named
// event pinned to a day span within a month token like "Mar'24". Rows are
// stored exactly as uploaded; normalization into date ranges happens at
// read-time in the conflict service, so a malformed row never blocks ingestion.
type PreApprovedEvent struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Label          string     `gorm:"type:varchar(255);not null" json:"label"`
	DayField       string     `gorm:"type:varchar(20);not null" json:"day_field"`        // "12" or "12-14"
	MonthYearField string     `gorm:"type:varchar(20);not null" json:"month_year_field"` // "Mar'24"
	UploadedBy     *uuid.UUID `gorm:"type:uuid;index" json:"uploaded_by"`
	Uploader       *User      `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
