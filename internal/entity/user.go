package entity

import "time"

type User struct {
	ID                string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email             string    `gorm:"unique;not null" json:"email"`
	FullName          string    `json:"full_name"`
	PasswordHash      string    `json:"-"`
	PreferredLanguage string    `gorm:"not null;default:ar" json:"preferred_language"`
	Timezone          string    `gorm:"not null;default:UTC" json:"timezone"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
