package service

import (
	"context"
	"fmt"
	"time"

	"github.com/esiagate/esiagate/internal/model"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Profile is the local view of a user after reconciliation
type Profile struct {
	User        model.User
	Memberships []model.UserOrganization
}

type ReconcileService struct {
	database *gorm.DB
}

func NewReconcileService(database *gorm.DB) *ReconcileService {
	return &ReconcileService{
		database: database,
	}
}

// Reconcile applies a fresh provider snapshot of one user and their organizations as one unit of work.
// A nil orgs slice means the payload carried no organization data and memberships are left as they are,
// an empty one means the user belongs to no organization.
func (rs *ReconcileService) Reconcile(ctx context.Context, user UserRecord, orgs []OrgRecord) (Profile, error) {
	var profile Profile

	err := rs.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		local, _, err := rs.UpsertUser(tx, user)
		if err != nil {
			return err
		}

		if orgs != nil {
			memberships := make([]MembershipRecord, 0, len(orgs))

			for _, org := range orgs {
				organization, _, err := rs.UpsertOrganization(tx, org)
				if err != nil {
					return err
				}
				memberships = append(memberships, org.Membership(organization.ID))
			}

			if err := rs.ReconcileMembership(tx, local, memberships); err != nil {
				return err
			}
		}

		links, err := activeMemberships(tx, local.ID)
		if err != nil {
			return err
		}

		profile = Profile{User: local, Memberships: links}
		return nil
	})

	if err != nil {
		return Profile{}, fmt.Errorf("failed to reconcile user %s: %w", user.UID, translateDBError(err))
	}

	return profile, nil
}

// UpsertUser returns the stored user and whether a write happened
func (rs *ReconcileService) UpsertUser(tx *gorm.DB, record UserRecord) (model.User, bool, error) {
	var user model.User

	res := tx.Where("esia_uid = ?", record.UID).Limit(1).Find(&user)

	if res.Error != nil {
		return model.User{}, false, res.Error
	}

	exists := res.RowsAffected > 0

	if exists && sameETag(user.ETag, record.ETag) {
		tlog.App.Debug().Str("esia_uid", record.UID).Msg("User unchanged, skipping write")
		return user, false, nil
	}

	user.EsiaUID = record.UID
	user.FirstName = record.FirstName
	user.LastName = record.LastName
	user.MiddleName = record.MiddleName
	user.Trusted = record.Trusted
	user.Status = record.Status
	user.Verifying = record.Verifying
	user.RIDDoc = record.RIDDoc
	user.ContainsUpCfmCode = record.ContainsUpCfmCode
	user.ETag = record.ETag
	user.UpdatedOn = record.UpdatedOn
	user.StateFacts = datatypes.JSON(record.StateFacts)

	if exists {
		return user, true, tx.Save(&user).Error
	}

	return user, true, tx.Create(&user).Error
}

// UpsertOrganization returns the stored organization and whether a write happened
func (rs *ReconcileService) UpsertOrganization(tx *gorm.DB, record OrgRecord) (model.Organization, bool, error) {
	var org model.Organization

	res := tx.Where("esia_oid = ?", record.OID).Limit(1).Find(&org)

	if res.Error != nil {
		return model.Organization{}, false, res.Error
	}

	exists := res.RowsAffected > 0

	if exists && sameETag(org.ETag, record.ETag) {
		tlog.App.Debug().Int64("esia_oid", record.OID).Msg("Organization unchanged, skipping write")
		return org, false, nil
	}

	org.EsiaOID = record.OID
	org.PrnOID = record.PrnOID
	org.FullName = record.FullName
	org.ShortName = record.ShortName
	org.OGRN = record.OGRN
	org.INN = record.INN
	org.KPP = record.KPP
	org.OrgType = record.Type
	org.Leg = record.Leg
	org.OKTMO = record.OKTMO
	org.Phone = record.Phone
	org.Email = record.Email
	org.IsActive = record.Active
	org.IsLiquidated = record.IsLiquidated
	org.StaffCount = record.StaffCount
	org.AgencyTerRange = record.AgencyTerRange
	org.AgencyType = record.AgencyType
	org.ETag = record.ETag

	var err error

	if exists {
		err = tx.Omit(clause.Associations).Save(&org).Error
	} else {
		err = tx.Omit(clause.Associations).Create(&org).Error
	}

	if err != nil {
		return model.Organization{}, false, err
	}

	if err := replaceAddresses(tx, org.ID, record.Addresses); err != nil {
		return model.Organization{}, false, err
	}

	if err := upsertGroups(tx, org.ID, record.Groups); err != nil {
		return model.Organization{}, false, err
	}

	return org, true, nil
}

// ReconcileMembership activates the fresh links of a user and deactivates every other active one
func (rs *ReconcileService) ReconcileMembership(tx *gorm.DB, user model.User, memberships []MembershipRecord) error {
	var existing []model.UserOrganization

	err := tx.Where("user_id = ?", user.ID).Find(&existing).Error

	if err != nil {
		return err
	}

	byOrg := make(map[uint]model.UserOrganization, len(existing))

	for _, link := range existing {
		byOrg[link.OrganizationID] = link
	}

	fresh := make(map[uint]struct{}, len(memberships))

	for _, membership := range memberships {
		// the first entry wins when the payload lists an organization twice
		if _, seen := fresh[membership.OrganizationID]; seen {
			continue
		}
		fresh[membership.OrganizationID] = struct{}{}

		link, ok := byOrg[membership.OrganizationID]

		if !ok {
			err := tx.Create(&model.UserOrganization{
				UserID:                 user.ID,
				OrganizationID:         membership.OrganizationID,
				IsChief:                membership.IsChief,
				IsAdmin:                membership.IsAdmin,
				HasRightOfSubstitution: membership.HasRightOfSubstitution,
				HasApprovalTabAccess:   membership.HasApprovalTabAccess,
				IsActive:               true,
			}).Error
			if err != nil {
				return err
			}
			continue
		}

		if link.IsActive &&
			link.IsChief == membership.IsChief &&
			link.IsAdmin == membership.IsAdmin &&
			link.HasRightOfSubstitution == membership.HasRightOfSubstitution &&
			link.HasApprovalTabAccess == membership.HasApprovalTabAccess {
			continue
		}

		err := tx.Model(&model.UserOrganization{}).Where("id = ?", link.ID).Updates(map[string]any{
			"is_chief":                  membership.IsChief,
			"is_admin":                  membership.IsAdmin,
			"has_right_of_substitution": membership.HasRightOfSubstitution,
			"has_approval_tab_access":   membership.HasApprovalTabAccess,
			"is_active":                 true,
		}).Error
		if err != nil {
			return err
		}
	}

	for _, link := range existing {
		if _, ok := fresh[link.OrganizationID]; ok || !link.IsActive {
			continue
		}

		err := tx.Model(&model.UserOrganization{}).Where("id = ?", link.ID).Update("is_active", false).Error
		if err != nil {
			return err
		}

		tlog.App.Debug().Uint("user_id", user.ID).Uint("organization_id", link.OrganizationID).Msg("Deactivated stale organization link")
	}

	return nil
}

// UpsertGroups refreshes the access groups of an already known organization
func (rs *ReconcileService) UpsertGroups(ctx context.Context, oid int64, groups []GroupRecord) (model.Organization, error) {
	var org model.Organization

	err := rs.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("esia_oid = ?", oid).First(&org).Error; err != nil {
			return err
		}

		if err := upsertGroups(tx, org.ID, groups); err != nil {
			return err
		}

		return tx.Where("organization_id = ?", org.ID).Order("group_id").Find(&org.Groups).Error
	})

	if err != nil {
		return model.Organization{}, fmt.Errorf("failed to update groups of organization %d: %w", oid, translateDBError(err))
	}

	return org, nil
}

func replaceAddresses(tx *gorm.DB, organizationID uint, records []AddressRecord) error {
	err := tx.Where("organization_id = ?", organizationID).Delete(&model.OrganizationAddress{}).Error

	if err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	addresses := make([]model.OrganizationAddress, 0, len(records))

	for _, record := range records {
		addresses = append(addresses, model.OrganizationAddress{
			OrganizationID:            organizationID,
			AddressType:               record.Type,
			PostalCode:                record.PostalCode,
			CountryID:                 record.CountryID,
			AddressStr:                record.AddressStr,
			Building:                  record.Building,
			Corpus:                    record.Corpus,
			House:                     record.House,
			Apartment:                 record.Apartment,
			FiasCode:                  record.FiasCode,
			Region:                    record.Region,
			City:                      record.City,
			InnerCityDistrict:         record.InnerCityDistrict,
			District:                  record.District,
			Settlement:                record.Settlement,
			AdditionalTerritory:       record.AdditionalTerritory,
			AdditionalTerritoryStreet: record.AdditionalTerritoryStreet,
			Street:                    record.Street,
		})
	}

	return tx.Create(&addresses).Error
}

func upsertGroups(tx *gorm.DB, organizationID uint, records []GroupRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	groups := make([]model.OrganizationGroup, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, record := range records {
		if _, ok := seen[record.GroupID]; ok {
			continue
		}
		seen[record.GroupID] = struct{}{}
		groups = append(groups, model.OrganizationGroup{
			OrganizationID: organizationID,
			GroupID:        record.GroupID,
			Name:           record.Name,
			Description:    record.Description,
			IsSystem:       record.IsSystem,
			ITSystem:       record.ITSystem,
			EsiaURL:        record.URL,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "is_system", "it_system", "esia_url", "updated_at"}),
	}).Create(&groups).Error
}

func activeMemberships(db *gorm.DB, userID uint) ([]model.UserOrganization, error) {
	var links []model.UserOrganization

	err := db.
		Preload("Organization").
		Preload("Organization.Addresses").
		Preload("Organization.Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("group_id")
		}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("organization_id").
		Find(&links).Error

	return links, err
}

func sameETag(stored string, fresh string) bool {
	return stored != "" && fresh != "" && stored == fresh
}
