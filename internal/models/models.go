package models

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	Name         string    `gorm:"not null"                       json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"           json:"email"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	Role         string    `gorm:"not null;default:student"       json:"role"`
	Blocked      bool      `gorm:"default:false"                  json:"blocked"`
	Phone        string    `json:"phone,omitempty"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	Address      string    `json:"address,omitempty"`
	PictureURL   string    `json:"picture_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken holds only the sha256 hex digest of the raw token. The raw
// token never touches the database.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	UserID    uint      `gorm:"index;not null"         json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null"   json:"-"`
	JTI       string    `gorm:"not null"               json:"jti"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Course struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string    `gorm:"uniqueIndex;not null"     json:"code"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Feedback struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	CourseID  uint      `gorm:"index;not null"           json:"course_id"`
	Rating    int       `gorm:"not null"                 json:"rating"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User   *User   `gorm:"foreignKey:UserID"   json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
