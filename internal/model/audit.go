package model

import "time"

// AuditLog is an append-only trail of lifecycle transitions. Rows are written
// asynchronously and a missing row never means a transition did not happen.
type AuditLog struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Entity     string    `gorm:"size:32;not null;index:idx_audit_entity,priority:1" json:"entity"`
	EntityID   int64     `gorm:"not null;index:idx_audit_entity,priority:2" json:"entityId"`
	Action     string    `gorm:"size:32;not null" json:"action"`
	ActorID    int64     `gorm:"not null" json:"actorId"`
	Payload    string    `gorm:"type:text" json:"payload"`
	CreateTime time.Time `gorm:"not null;index" json:"createTime"`
}

// TableName pins the audit table name.
func (AuditLog) TableName() string { return "audit_log" }
