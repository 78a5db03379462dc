package model

import "time"

type UserToken struct {
	ID                 uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID             uint      `gorm:"column:user_id;index;not null" json:"user_id"`
	AccessToken        string    `gorm:"column:access_token;not null" json:"-"`
	RefreshToken       string    `gorm:"column:refresh_token" json:"-"`
	TokenType          string    `gorm:"column:token_type" json:"token_type"`
	ExpiresIn          int64     `gorm:"column:expires_in" json:"expires_in"`
	Scope              string    `gorm:"column:scope" json:"scope"`
	IDToken            string    `gorm:"column:id_token" json:"-"`
	CreatedAtTimestamp int64     `gorm:"column:created_at_timestamp" json:"created_at_timestamp"`
	IsActive           bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (UserToken) TableName() string {
	return "user_tokens"
}
