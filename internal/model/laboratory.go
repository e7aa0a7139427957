package model

import "time"

// Laboratory status codes.
const (
	LaboratoryUnavailable = 0
	LaboratoryAvailable   = 1
	LaboratoryMaintenance = 2
)

// Laboratory is a bookable room.
type Laboratory struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Code       string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Location   string    `gorm:"size:200;not null" json:"location"`
	Capacity   int       `json:"capacity"`
	Status     int       `gorm:"not null;default:1" json:"status"`
	CreateTime time.Time `gorm:"not null" json:"createTime"`
	UpdateTime time.Time `gorm:"not null" json:"updateTime"`
}

// TableName pins the laboratory table name.
func (Laboratory) TableName() string { return "laboratory" }
