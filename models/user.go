package models

import (
	"strings"
	"time"
)

// User is a PayMordomo account. Phone is stored as digits only and the
// synthetic email is derived from it at signup.
type User struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Phone        string    `gorm:"uniqueIndex;not null" json:"phone"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Permissions  string    `json:"permissions,omitempty"` // comma separated
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// PermissionList splits the stored permission string.
func (u *User) PermissionList() []string {
	var out []string
	for _, p := range strings.Split(u.Permissions, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
