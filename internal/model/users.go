package model

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"full_name"`
	WalletID     string    `gorm:"type:varchar(64);not null" json:"wallet_id"`
	Currency     string    `gorm:"type:varchar(10);not null" json:"currency"`
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
