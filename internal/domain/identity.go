package domain

import "time"

// RoleClass classifies a tracked identity.
// Values include RoleUser, RoleClient, and RoleEmployee.
type RoleClass string

const (
	RoleUser     RoleClass = "user"
	RoleClient   RoleClass = "client"
	RoleEmployee RoleClass = "employee"
)

// Identity represents a tracked person. A record is created the first time no
// cached embedding matches a detection within the configured threshold, and is
// never deleted by the resolution engine except to compensate a failed creation.
type Identity struct {
	ID         string     `gorm:"type:text;primaryKey" json:"id"`
	Name       string     `gorm:"type:text;not null" json:"name"`
	Role       RoleClass  `gorm:"type:text;not null;default:user" json:"role"`
	DetailInfo string     `gorm:"type:text" json:"detail_info,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Identity.
func (Identity) TableName() string {
	return "identities"
}
