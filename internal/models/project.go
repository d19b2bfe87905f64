package models

import "time"

type Project struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string      `gorm:"not null" json:"name"`
	CreatedAt  time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time   `gorm:"not null" json:"updatedAt"`
	Geometries []*Geometry `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"geometries,omitempty"`
}

type Geometry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID int64     `gorm:"index;not null" json:"projectId"`
	FileURL   string    `gorm:"not null" json:"fileUrl"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
	Project   *Project  `json:"project,omitempty"`
	Meshes    []*Mesh   `gorm:"foreignKey:GeometryID;constraint:OnDelete:CASCADE" json:"meshes,omitempty"`
}

type Mesh struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GeometryID int64     `gorm:"index;not null" json:"geometryId"`
	Resolution int       `gorm:"not null" json:"resolution"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
	Geometry   *Geometry `json:"geometry,omitempty"`
	Jobs       []*Job    `gorm:"foreignKey:MeshID;constraint:OnDelete:CASCADE" json:"jobs,omitempty"`
}
