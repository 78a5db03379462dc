package service

import (
	"context"
	"fmt"

	"github.com/esiagate/esiagate/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrganizationUpdate holds the locally editable organization fields, nil means unchanged
type OrganizationUpdate struct {
	FullName   *string
	ShortName  *string
	Phone      *string
	Email      *string
	IsActive   *bool
	StaffCount *int64
	ETag       *string
}

type OrganizationService struct {
	database *gorm.DB
}

func NewOrganizationService(database *gorm.DB) *OrganizationService {
	return &OrganizationService{
		database: database,
	}
}

func (orgService *OrganizationService) ListOrganizations(ctx context.Context, page Page) ([]model.Organization, error) {
	page = page.normalize()
	orgs := []model.Organization{}

	err := orgService.database.WithContext(ctx).Order("id").Offset(page.Skip).Limit(page.Limit).Find(&orgs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	return orgs, nil
}

func (orgService *OrganizationService) GetOrganization(ctx context.Context, id uint) (model.Organization, error) {
	var org model.Organization

	err := orgService.withChildren(ctx).First(&org, id).Error

	if err != nil {
		return model.Organization{}, fmt.Errorf("organization %d: %w", id, translateDBError(err))
	}

	return org, nil
}

func (orgService *OrganizationService) GetOrganizationByEsiaOID(ctx context.Context, oid int64) (model.Organization, error) {
	var org model.Organization

	err := orgService.withChildren(ctx).Where("esia_oid = ?", oid).First(&org).Error

	if err != nil {
		return model.Organization{}, fmt.Errorf("organization %d: %w", oid, translateDBError(err))
	}

	return org, nil
}

func (orgService *OrganizationService) CreateOrganization(ctx context.Context, org model.Organization) (model.Organization, error) {
	if org.EsiaOID == 0 {
		return model.Organization{}, validationError("esia_oid is required")
	}

	org.ID = 0
	org.Addresses = nil
	org.Groups = nil

	err := orgService.database.WithContext(ctx).Omit(clause.Associations).Create(&org).Error

	if err != nil {
		return model.Organization{}, fmt.Errorf("failed to create organization: %w", translateDBError(err))
	}

	return org, nil
}

func (orgService *OrganizationService) UpdateOrganization(ctx context.Context, id uint, update OrganizationUpdate) (model.Organization, error) {
	if _, err := orgService.GetOrganization(ctx, id); err != nil {
		return model.Organization{}, err
	}

	updates := map[string]any{}

	if update.FullName != nil {
		updates["full_name"] = *update.FullName
	}
	if update.ShortName != nil {
		updates["short_name"] = *update.ShortName
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.Email != nil {
		updates["email"] = *update.Email
	}
	if update.IsActive != nil {
		updates["is_active"] = *update.IsActive
	}
	if update.StaffCount != nil {
		updates["staff_count"] = *update.StaffCount
	}
	if update.ETag != nil {
		updates["e_tag"] = *update.ETag
	}

	if len(updates) > 0 {
		err := orgService.database.WithContext(ctx).Model(&model.Organization{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			return model.Organization{}, fmt.Errorf("failed to update organization %d: %w", id, translateDBError(err))
		}
	}

	return orgService.GetOrganization(ctx, id)
}

func (orgService *OrganizationService) DeleteOrganization(ctx context.Context, id uint) error {
	res := orgService.database.WithContext(ctx).Delete(&model.Organization{}, id)

	if res.Error != nil {
		return fmt.Errorf("failed to delete organization %d: %w", id, translateDBError(res.Error))
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("organization %d: %w", id, ErrNotFound)
	}

	return nil
}

func (orgService *OrganizationService) withChildren(ctx context.Context) *gorm.DB {
	return orgService.database.WithContext(ctx).
		Preload("Addresses").
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("group_id")
		})
}
