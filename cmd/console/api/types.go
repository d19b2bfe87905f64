package api

import "time"

// Project is the API projection of a project.
type Project struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"createdAt"`
	Geometries []Geometry `json:"geometries,omitempty"`
}

type Geometry struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	FileURL   string    `json:"fileUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Meshes    []Mesh    `json:"meshes,omitempty"`
}

type Mesh struct {
	ID         int64     `json:"id"`
	GeometryID int64     `json:"geometryId"`
	Resolution int       `json:"resolution"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeleteResponse acknowledges a cascading delete.
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// Job is the stored record of a submitted mesh run.
type Job struct {
	ID         string     `json:"id"`
	MeshID     int64      `json:"meshId"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`
	Mesh       *Mesh      `json:"mesh,omitempty"`
	Result     *Result    `json:"result"`
}

type Result struct {
	ID      string             `json:"id"`
	FileURL string             `json:"fileUrl"`
	Metrics map[string]float64 `json:"metrics"`
}

// Submission acknowledges an accepted job.
type Submission struct {
	Message       string `json:"message"`
	JobID         string `json:"jobId"`
	MeshID        int64  `json:"meshId"`
	QueueID       string `json:"queueId"`
	CurrentStatus string `json:"currentStatus"`
}

// QueueEntry is one entry of the live queue view.
type QueueEntry struct {
	QueueID   string `json:"queueId"`
	Name      string `json:"name"`
	State     string `json:"state"`
	CreatedAt int64  `json:"createdAt"`
	MeshID    *int64 `json:"meshId,omitempty"`
	JobID     string `json:"jobId,omitempty"`
	Retried   int    `json:"retried"`
	LastError string `json:"lastError,omitempty"`
}

// Created converts the millisecond timestamp.
func (e QueueEntry) Created() time.Time {
	return time.UnixMilli(e.CreatedAt)
}

type LogPage struct {
	Logs  []string `json:"logs"`
	Count int64    `json:"count"`
}
