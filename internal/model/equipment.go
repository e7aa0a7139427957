package model

import "time"

// EquipmentStatus is a row of the equipment status dictionary (instored, inuse, repairing, scrapped...).
type EquipmentStatus struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Code string `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Name string `gorm:"size:64;not null" json:"name"`
}

// TableName pins the dictionary table name.
func (EquipmentStatus) TableName() string { return "equipment_status" }

// Equipment is a catalog entry. Quantity is the total number of units owned;
// how many are currently lent out is derived from borrow records, never stored.
type Equipment struct {
	ID           int64            `gorm:"primaryKey" json:"id"`
	Name         string           `gorm:"size:100;not null" json:"name"`
	Model        string           `gorm:"size:100;not null" json:"model"`
	AssetCode    string           `gorm:"size:50;uniqueIndex" json:"assetCode"`
	Quantity     int              `gorm:"not null;default:1" json:"quantity"`
	StatusID     int64            `gorm:"not null;index" json:"statusId"`
	LaboratoryID int64            `gorm:"not null;index" json:"laboratoryId"`
	CreateTime   time.Time        `gorm:"not null" json:"createTime"`
	UpdateTime   time.Time        `gorm:"not null" json:"updateTime"`
	Status       *EquipmentStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`
}

// TableName pins the catalog table name.
func (Equipment) TableName() string { return "equipment" }

// StatusCode returns the dictionary code of the equipment's current status, or "" if it was not loaded.
func (e *Equipment) StatusCode() string {
	if e.Status == nil {
		return ""
	}
	return e.Status.Code
}
