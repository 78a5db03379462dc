package model

import "time"

type AuthorizationRequest struct {
	ID                uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	State             string     `gorm:"column:state;uniqueIndex;not null" json:"state"`
	ClientID          string     `gorm:"column:client_id;not null" json:"client_id"`
	ResponseType      string     `gorm:"column:response_type;not null" json:"response_type"`
	Provider          string     `gorm:"column:provider;not null" json:"provider"`
	Scope             string     `gorm:"column:scope;not null" json:"scope"`
	RedirectURI       string     `gorm:"column:redirect_uri;not null" json:"redirect_uri"`
	Nonce             string     `gorm:"column:nonce" json:"nonce,omitempty"`
	CodeVerifier      string     `gorm:"column:code_verifier" json:"-"`
	AuthorizationCode string     `gorm:"column:authorization_code;index" json:"authorization_code,omitempty"`
	Error             string     `gorm:"column:error" json:"error,omitempty"`
	ErrorDescription  string     `gorm:"column:error_description" json:"error_description,omitempty"`
	IsCompleted       bool       `gorm:"column:is_completed" json:"is_completed"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at" json:"updated_at"`
	CompletedAt       *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (AuthorizationRequest) TableName() string {
	return "authorization_requests"
}
