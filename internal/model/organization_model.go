package model

import "time"

type Organization struct {
	ID             uint                  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EsiaOID        int64                 `gorm:"column:esia_oid;uniqueIndex;not null" json:"esia_oid"`
	PrnOID         *int64                `gorm:"column:prn_oid" json:"prn_oid"`
	FullName       string                `gorm:"column:full_name" json:"full_name"`
	ShortName      string                `gorm:"column:short_name" json:"short_name"`
	OGRN           string                `gorm:"column:ogrn" json:"ogrn"`
	INN            string                `gorm:"column:inn" json:"inn"`
	KPP            string                `gorm:"column:kpp" json:"kpp"`
	OrgType        string                `gorm:"column:org_type" json:"org_type"`
	Leg            string                `gorm:"column:leg" json:"leg"`
	OKTMO          string                `gorm:"column:oktmo" json:"oktmo"`
	Phone          string                `gorm:"column:phone" json:"phone"`
	Email          string                `gorm:"column:email" json:"email"`
	IsActive       bool                  `gorm:"column:is_active" json:"is_active"`
	IsLiquidated   bool                  `gorm:"column:is_liquidated" json:"is_liquidated"`
	StaffCount     *int64                `gorm:"column:staff_count" json:"staff_count"`
	AgencyTerRange string                `gorm:"column:agency_ter_range" json:"agency_ter_range"`
	AgencyType     string                `gorm:"column:agency_type" json:"agency_type"`
	ETag           string                `gorm:"column:e_tag" json:"e_tag"`
	CreatedAt      time.Time             `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time             `gorm:"column:updated_at" json:"updated_at"`
	Addresses      []OrganizationAddress `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	Groups         []OrganizationGroup   `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"groups,omitempty"`
}

func (Organization) TableName() string {
	return "organizations"
}

type OrganizationAddress struct {
	ID                        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrganizationID            uint      `gorm:"column:organization_id;index;not null" json:"organization_id"`
	AddressType               string    `gorm:"column:address_type;not null" json:"address_type"`
	PostalCode                string    `gorm:"column:postal_code" json:"postal_code"`
	CountryID                 string    `gorm:"column:country_id" json:"country_id"`
	AddressStr                string    `gorm:"column:address_str" json:"address_str"`
	Building                  string    `gorm:"column:building" json:"building"`
	Corpus                    string    `gorm:"column:corpus" json:"corpus"`
	House                     string    `gorm:"column:house" json:"house"`
	Apartment                 string    `gorm:"column:apartment" json:"apartment"`
	FiasCode                  string    `gorm:"column:fias_code" json:"fias_code"`
	Region                    string    `gorm:"column:region" json:"region"`
	City                      string    `gorm:"column:city" json:"city"`
	InnerCityDistrict         string    `gorm:"column:inner_city_district" json:"inner_city_district"`
	District                  string    `gorm:"column:district" json:"district"`
	Settlement                string    `gorm:"column:settlement" json:"settlement"`
	AdditionalTerritory       string    `gorm:"column:additional_territory" json:"additional_territory"`
	AdditionalTerritoryStreet string    `gorm:"column:additional_territory_street" json:"additional_territory_street"`
	Street                    string    `gorm:"column:street" json:"street"`
	CreatedAt                 time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt                 time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (OrganizationAddress) TableName() string {
	return "organization_addresses"
}

type OrganizationGroup struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrganizationID uint      `gorm:"column:organization_id;uniqueIndex:idx_org_group;not null" json:"organization_id"`
	GroupID        string    `gorm:"column:group_id;uniqueIndex:idx_org_group;not null" json:"group_id"`
	Name           string    `gorm:"column:name" json:"name"`
	Description    string    `gorm:"column:description" json:"description"`
	IsSystem       bool      `gorm:"column:is_system" json:"is_system"`
	ITSystem       string    `gorm:"column:it_system" json:"it_system"`
	EsiaURL        string    `gorm:"column:esia_url" json:"esia_url"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (OrganizationGroup) TableName() string {
	return "organization_groups"
}
