package model

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID                uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EsiaUID           string         `gorm:"column:esia_uid;uniqueIndex;not null" json:"esia_uid"`
	FirstName         string         `gorm:"column:first_name" json:"first_name"`
	LastName          string         `gorm:"column:last_name" json:"last_name"`
	MiddleName        string         `gorm:"column:middle_name" json:"middle_name"`
	Trusted           bool           `gorm:"column:trusted" json:"trusted"`
	Status            string         `gorm:"column:status" json:"status"`
	Verifying         bool           `gorm:"column:verifying" json:"verifying"`
	RIDDoc            *int64         `gorm:"column:r_id_doc" json:"r_id_doc"`
	ContainsUpCfmCode bool           `gorm:"column:contains_up_cfm_code" json:"contains_up_cfm_code"`
	ETag              string         `gorm:"column:e_tag" json:"e_tag"`
	UpdatedOn         *int64         `gorm:"column:updated_on" json:"updated_on"`
	StateFacts        datatypes.JSON `gorm:"column:state_facts" json:"state_facts"`
	CreatedAt         time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
