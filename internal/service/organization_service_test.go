package service_test

import (
	"context"
	"testing"

	"github.com/esiagate/esiagate/internal/model"
	"github.com/esiagate/esiagate/internal/service"

	"gotest.tools/v3/assert"
)

func TestOrganizationCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.orgs.CreateOrganization(ctx, model.Organization{EsiaOID: 42, FullName: "Example", IsActive: true})
	assert.NilError(t, err)
	assert.Assert(t, created.ID != 0)

	_, err = env.orgs.CreateOrganization(ctx, model.Organization{EsiaOID: 42})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = env.orgs.CreateOrganization(ctx, model.Organization{})
	assert.ErrorIs(t, err, service.ErrValidation)

	active := false
	var staff int64 = 3

	updated, err := env.orgs.UpdateOrganization(ctx, created.ID, service.OrganizationUpdate{IsActive: &active, StaffCount: &staff})
	assert.NilError(t, err)
	assert.Assert(t, !updated.IsActive)
	assert.Equal(t, *updated.StaffCount, int64(3))
	assert.Equal(t, updated.FullName, "Example")

	byOID, err := env.orgs.GetOrganizationByEsiaOID(ctx, 42)
	assert.NilError(t, err)
	assert.Equal(t, byOID.ID, created.ID)

	orgs, err := env.orgs.ListOrganizations(ctx, service.Page{})
	assert.NilError(t, err)
	assert.Equal(t, len(orgs), 1)

	assert.NilError(t, env.orgs.DeleteOrganization(ctx, created.ID))

	_, err = env.orgs.GetOrganization(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = env.orgs.DeleteOrganization(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteOrganizationCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.reconcile.Reconcile(ctx, service.UserRecord{UID: "1000", StateFacts: []byte("[]")}, []service.OrgRecord{orgRecord(42, "o-1")})
	assert.NilError(t, err)

	org, err := env.orgs.GetOrganizationByEsiaOID(ctx, 42)
	assert.NilError(t, err)
	assert.Equal(t, len(org.Addresses), 1)
	assert.Equal(t, len(org.Groups), 1)

	assert.NilError(t, env.orgs.DeleteOrganization(ctx, org.ID))

	var addresses, groups, links int64
	assert.NilError(t, env.db.Model(&model.OrganizationAddress{}).Count(&addresses).Error)
	assert.NilError(t, env.db.Model(&model.OrganizationGroup{}).Count(&groups).Error)
	assert.NilError(t, env.db.Model(&model.UserOrganization{}).Count(&links).Error)
	assert.Equal(t, addresses+groups+links, int64(0))
}
