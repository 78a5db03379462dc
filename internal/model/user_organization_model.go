package model

import "time"

type UserOrganization struct {
	ID                     uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID                 uint          `gorm:"column:user_id;uniqueIndex:idx_user_org;not null" json:"user_id"`
	OrganizationID         uint          `gorm:"column:organization_id;uniqueIndex:idx_user_org;not null" json:"organization_id"`
	IsChief                bool          `gorm:"column:is_chief" json:"is_chief"`
	IsAdmin                bool          `gorm:"column:is_admin" json:"is_admin"`
	HasRightOfSubstitution bool          `gorm:"column:has_right_of_substitution" json:"has_right_of_substitution"`
	HasApprovalTabAccess   bool          `gorm:"column:has_approval_tab_access" json:"has_approval_tab_access"`
	IsActive               bool          `gorm:"column:is_active" json:"is_active"`
	CreatedAt              time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt              time.Time     `gorm:"column:updated_at" json:"updated_at"`
	Organization           *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (UserOrganization) TableName() string {
	return "user_organizations"
}
