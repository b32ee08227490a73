package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RoleUser = "USER"

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	FirstName    string    `gorm:"not null"                      json:"firstName"`
	LastName     string    `gorm:"not null"                      json:"lastName"`
	Username     string    `gorm:"uniqueIndex;not null"          json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	Roles        []string  `gorm:"serializer:json;not null"      json:"roles"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken is the single live server-tracked credential of its owner.
// The unique index on UserID backs the one-token-per-user invariant at the
// storage level; IssueRefreshToken replaces rows inside one transaction.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"            json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"  json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"              json:"expires_at"`
}
