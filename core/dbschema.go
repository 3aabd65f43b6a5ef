package core

import (
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
)

// Message is a chat message
// immutable
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey;type:char(20)"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Signature string    `json:"signature,omitempty" gorm:"type:text"`
	Author    string    `json:"author" gorm:"type:text;not null"`
	Date      time.Time `json:"date" gorm:"not null"`
}

// BeforeCreate assigns an identifier to messages inserted without one
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = xid.New().String()
	}
	return nil
}

// User is a registered account
// username is looked up on login but is not constrained unique
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:char(20)"`
	Username     string `json:"username" gorm:"type:text;index;not null"`
	PasswordHash string `json:"-" gorm:"type:char(60);not null"`
	Salt         string `json:"-" gorm:"type:char(29);not null"`
}

// BeforeCreate assigns an identifier to users inserted without one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = xid.New().String()
	}
	return nil
}
