package models

import (
	"time"

	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Terminal reports whether no further transition leaves s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusSuccess, JobStatusFailed:
		return true
	}
	return false
}

// Job is the durable record of one submitted mesh run. Identities are
// rendered as decimal strings on the wire.
type Job struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id,string"`
	MeshID     int64      `gorm:"index;not null" json:"meshId"`
	Status     JobStatus  `gorm:"type:text;index;not null;default:PENDING" json:"status"`
	CreatedAt  time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updatedAt"`
	StartedAt  *time.Time `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`
	Mesh       *Mesh      `json:"mesh,omitempty"`
	Result     *Result    `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"result"`
}

// Metrics maps a producer-defined metric name to its value.
type Metrics map[string]float64

type Result struct {
	ID        int64                       `gorm:"primaryKey;autoIncrement" json:"id,string"`
	JobID     int64                       `gorm:"uniqueIndex;not null" json:"jobId,string"`
	FileURL   string                      `gorm:"not null" json:"fileUrl"`
	Metrics   datatypes.JSONType[Metrics] `json:"metrics"`
	CreatedAt time.Time                   `gorm:"not null" json:"createdAt"`
}
