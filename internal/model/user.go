package model

// User is the subset of an account the core needs for display and ownership.
type User struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	Username   string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	RealName   string `gorm:"size:50" json:"realName"`
	Department string `gorm:"size:100" json:"department"`
	Role       string `gorm:"size:20;not null;default:student" json:"role"`
}

// DisplayName prefers the real name and falls back to the login name.
func (u User) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	return u.Username
}
