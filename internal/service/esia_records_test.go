package service_test

import (
	"testing"

	"github.com/esiagate/esiagate/internal/esiatest"
	"github.com/esiagate/esiagate/internal/service"

	"gotest.tools/v3/assert"
)

func TestParseUserRecord(t *testing.T) {
	record, err := service.ParseUserRecord([]byte(esiatest.DefaultUser))
	assert.NilError(t, err)

	assert.Equal(t, record.UID, "1000")
	assert.Equal(t, record.MiddleName, "Sergeevich")
	assert.Equal(t, record.Status, "REGISTERED")
	assert.Equal(t, *record.RIDDoc, int64(77))
	assert.Assert(t, record.UpdatedOn == nil)
	assert.Equal(t, string(record.StateFacts), `["EntRoot"]`)
}

func TestParseUserRecordFallbacks(t *testing.T) {
	record, err := service.ParseUserRecord([]byte(`{"sub":"2000","firstName":"Anna","updatedOn":1700000000}`))
	assert.NilError(t, err)
	assert.Equal(t, record.UID, "2000")
	assert.Equal(t, record.FirstName, "Anna")
	assert.Equal(t, *record.UpdatedOn, int64(1700000000))
	assert.Equal(t, string(record.StateFacts), "[]")

	_, err = service.ParseUserRecord([]byte(`{"info":{}}`))
	assert.ErrorContains(t, err, "missing uid")

	_, err = service.ParseUserRecord([]byte(`not json`))
	assert.ErrorContains(t, err, "malformed payload")
}

func TestParseOrgRecords(t *testing.T) {
	orgs, err := service.ParseOrgRecords([]byte(esiatest.DefaultOrgs))
	assert.NilError(t, err)
	assert.Equal(t, len(orgs), 1)

	org := orgs[0]
	assert.Equal(t, org.OID, int64(42))
	assert.Equal(t, org.INN, "7700000000")
	assert.Assert(t, org.Active)
	assert.Assert(t, org.Chief)
	assert.Equal(t, *org.StaffCount, int64(15))
	assert.Assert(t, org.PrnOID == nil)

	assert.Equal(t, len(org.Addresses), 2)
	assert.Equal(t, org.Addresses[0].Type, "legal")
	assert.Equal(t, org.Addresses[0].PostalCode, "101000")
	assert.Equal(t, org.Addresses[0].Corpus, "2")
	assert.Equal(t, org.Addresses[0].Apartment, "10")
	assert.Equal(t, org.Addresses[1].Type, "postal")

	assert.DeepEqual(t, org.Groups, []service.GroupRecord{{
		GroupID:  "G1",
		URL:      "https://esia.example/api/grps/G1",
		IsSystem: true,
	}})
}

func TestParseOrgRecordsVariants(t *testing.T) {
	orgs, err := service.ParseOrgRecords([]byte(`{"orgs":[{"oid":7,"active":false,"prnOid":"3","addresses":[{"type":"xyz"},{}]},{"fullName":"no oid"}]}`))
	assert.NilError(t, err)
	assert.Equal(t, len(orgs), 1)
	assert.Equal(t, orgs[0].OID, int64(7))
	assert.Assert(t, !orgs[0].Active)
	assert.Equal(t, *orgs[0].PrnOID, int64(3))
	assert.Equal(t, orgs[0].Addresses[0].Type, "xyz")
	assert.Equal(t, orgs[0].Addresses[1].Type, "other")
	assert.Equal(t, len(orgs[0].Groups), 0)

	orgs, err = service.ParseOrgRecords([]byte(`{"info":{}}`))
	assert.NilError(t, err)
	assert.Assert(t, orgs == nil)

	orgs, err = service.ParseOrgRecords([]byte(`{"info":{"orgs":{"elements":[]}}}`))
	assert.NilError(t, err)
	assert.Assert(t, orgs != nil)
	assert.Equal(t, len(orgs), 0)
}

func TestParseGroupRecords(t *testing.T) {
	groups, err := service.ParseGroupRecords([]byte(esiatest.DefaultGroups))
	assert.NilError(t, err)

	assert.DeepEqual(t, groups, []service.GroupRecord{
		{GroupID: "G1", Name: "Accountants", ITSystem: "SYS1,SYS2", IsSystem: false},
		{GroupID: "G2", Name: "Admins", IsSystem: true},
	})
}
