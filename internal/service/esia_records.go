package service

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/tidwall/gjson"
)

var errMalformedPayload = errors.New("malformed payload")

type UserRecord struct {
	UID               string
	FirstName         string
	LastName          string
	MiddleName        string
	Trusted           bool
	Status            string
	Verifying         bool
	RIDDoc            *int64
	ContainsUpCfmCode bool
	ETag              string
	UpdatedOn         *int64
	StateFacts        json.RawMessage
}

type AddressRecord struct {
	Type                      string
	PostalCode                string
	CountryID                 string
	AddressStr                string
	Building                  string
	Corpus                    string
	House                     string
	Apartment                 string
	FiasCode                  string
	Region                    string
	City                      string
	InnerCityDistrict         string
	District                  string
	Settlement                string
	AdditionalTerritory       string
	AdditionalTerritoryStreet string
	Street                    string
}

type GroupRecord struct {
	GroupID     string
	Name        string
	Description string
	IsSystem    bool
	ITSystem    string
	URL         string
}

type OrgRecord struct {
	OID                    int64
	PrnOID                 *int64
	FullName               string
	ShortName              string
	OGRN                   string
	INN                    string
	KPP                    string
	Type                   string
	Leg                    string
	OKTMO                  string
	Phone                  string
	Email                  string
	Active                 bool
	IsLiquidated           bool
	StaffCount             *int64
	AgencyTerRange         string
	AgencyType             string
	ETag                   string
	Chief                  bool
	Admin                  bool
	HasRightOfSubstitution bool
	HasApprovalTabAccess   bool
	Addresses              []AddressRecord
	Groups                 []GroupRecord
}

// MembershipRecord carries the role flags of one user within one organization
type MembershipRecord struct {
	OrganizationID         uint
	IsChief                bool
	IsAdmin                bool
	HasRightOfSubstitution bool
	HasApprovalTabAccess   bool
}

func (org OrgRecord) Membership(organizationID uint) MembershipRecord {
	return MembershipRecord{
		OrganizationID:         organizationID,
		IsChief:                org.Chief,
		IsAdmin:                org.Admin,
		HasRightOfSubstitution: org.HasRightOfSubstitution,
		HasApprovalTabAccess:   org.HasApprovalTabAccess,
	}
}

func ParseUserRecord(body []byte) (UserRecord, error) {
	if !gjson.ValidBytes(body) {
		return UserRecord{}, errMalformedPayload
	}

	root := gjson.ParseBytes(body)
	info := payloadInfo(root)

	record := UserRecord{
		UID:               info.Get("uid").String(),
		FirstName:         info.Get("firstName").String(),
		LastName:          info.Get("lastName").String(),
		MiddleName:        info.Get("middleName").String(),
		Trusted:           info.Get("trusted").Bool(),
		Status:            info.Get("status").String(),
		Verifying:         info.Get("verifying").Bool(),
		RIDDoc:            optionalInt(info.Get("rIdDoc")),
		ContainsUpCfmCode: info.Get("containsUpCfmCode").Bool(),
		ETag:              info.Get("eTag").String(),
		UpdatedOn:         optionalInt(info.Get("updatedOn")),
		StateFacts:        json.RawMessage("[]"),
	}

	if record.UID == "" {
		record.UID = root.Get("sub").String()
	}

	if record.UID == "" {
		return UserRecord{}, errors.New("malformed payload: missing uid")
	}

	if facts := info.Get("stateFacts"); facts.Exists() && facts.Type != gjson.Null {
		record.StateFacts = json.RawMessage(facts.Raw)
	}

	return record, nil
}

// ParseOrgRecords returns nil when the payload has no orgs key at all
func ParseOrgRecords(body []byte) ([]OrgRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, errMalformedPayload
	}

	info := payloadInfo(gjson.ParseBytes(body))
	list := info.Get("orgs")

	if !list.Exists() {
		return nil, nil
	}

	elements := payloadElements(list)
	orgs := make([]OrgRecord, 0, len(elements))

	for _, element := range elements {
		org, ok := parseOrgRecord(element)
		if !ok {
			tlog.App.Warn().Str("payload", element.Raw).Msg("Skipping organization without oid")
			continue
		}
		orgs = append(orgs, org)
	}

	return orgs, nil
}

// OrganizationInfo is an organization payload passed through without mapping
type OrganizationInfo struct {
	Sub  string          `json:"sub"`
	Info json.RawMessage `json:"info"`
}

func ParseOrganizationInfo(body []byte) (OrganizationInfo, error) {
	if !gjson.ValidBytes(body) {
		return OrganizationInfo{}, errMalformedPayload
	}

	root := gjson.ParseBytes(body)
	info := payloadInfo(root)

	if !info.IsObject() {
		return OrganizationInfo{}, errMalformedPayload
	}

	return OrganizationInfo{
		Sub:  root.Get("sub").String(),
		Info: json.RawMessage(info.Raw),
	}, nil
}

func ParseGroupRecords(body []byte) ([]GroupRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, errMalformedPayload
	}

	info := payloadInfo(gjson.ParseBytes(body))
	return parseGroups(info.Get("grps")), nil
}

func parseOrgRecord(org gjson.Result) (OrgRecord, bool) {
	oid := org.Get("oid")
	if !oid.Exists() || oid.Int() == 0 {
		return OrgRecord{}, false
	}

	active := true
	if value := org.Get("active"); value.Exists() {
		active = value.Bool()
	}

	record := OrgRecord{
		OID:                    oid.Int(),
		PrnOID:                 optionalInt(org.Get("prnOid")),
		FullName:               org.Get("fullName").String(),
		ShortName:              org.Get("shortName").String(),
		OGRN:                   org.Get("ogrn").String(),
		INN:                    org.Get("inn").String(),
		KPP:                    org.Get("kpp").String(),
		Type:                   org.Get("type").String(),
		Leg:                    org.Get("leg").String(),
		OKTMO:                  org.Get("oktmo").String(),
		Phone:                  org.Get("phone").String(),
		Email:                  org.Get("email").String(),
		Active:                 active,
		IsLiquidated:           org.Get("isLiquidated").Bool(),
		StaffCount:             optionalInt(org.Get("staffCount")),
		AgencyTerRange:         org.Get("agencyTerRange").String(),
		AgencyType:             org.Get("agencyType").String(),
		ETag:                   org.Get("eTag").String(),
		Chief:                  org.Get("chief").Bool(),
		Admin:                  org.Get("admin").Bool(),
		HasRightOfSubstitution: org.Get("hasRightOfSubstitution").Bool(),
		HasApprovalTabAccess:   org.Get("hasApprovalTabAccess").Bool(),
		Groups:                 parseGroups(org.Get("grps")),
	}

	for _, address := range payloadElements(org.Get("addresses")) {
		record.Addresses = append(record.Addresses, AddressRecord{
			Type:                      addressType(address.Get("type").String()),
			PostalCode:                address.Get("zipCode").String(),
			CountryID:                 address.Get("countryId").String(),
			AddressStr:                address.Get("addressStr").String(),
			Building:                  address.Get("building").String(),
			Corpus:                    address.Get("frame").String(),
			House:                     address.Get("house").String(),
			Apartment:                 address.Get("flat").String(),
			FiasCode:                  address.Get("fiasCode").String(),
			Region:                    address.Get("region").String(),
			City:                      address.Get("city").String(),
			InnerCityDistrict:         address.Get("innerCityDistrict").String(),
			District:                  address.Get("district").String(),
			Settlement:                address.Get("settlement").String(),
			AdditionalTerritory:       address.Get("additionArea").String(),
			AdditionalTerritoryStreet: address.Get("additionAreaStreet").String(),
			Street:                    address.Get("street").String(),
		})
	}

	return record, true
}

func parseGroups(grps gjson.Result) []GroupRecord {
	elements := payloadElements(grps)
	groups := make([]GroupRecord, 0, len(elements))

	for _, element := range elements {
		if element.Type == gjson.String {
			url := element.String()
			groups = append(groups, GroupRecord{
				GroupID:  groupIDFromURL(url),
				URL:      url,
				IsSystem: true,
			})
			continue
		}

		group := GroupRecord{
			GroupID:     element.Get("grp_id").String(),
			Name:        element.Get("name").String(),
			Description: element.Get("description").String(),
			ITSystem:    listString(element.Get("itSystems")),
			URL:         element.Get("url").String(),
			IsSystem:    true,
		}
		if group.GroupID == "" {
			group.GroupID = element.Get("grpId").String()
		}
		if group.GroupID == "" {
			group.GroupID = groupIDFromURL(group.URL)
		}
		if system := element.Get("system"); system.Exists() {
			group.IsSystem = system.Bool()
		}
		if group.GroupID == "" {
			continue
		}
		groups = append(groups, group)
	}

	return groups
}

// payloadInfo returns the info envelope of a userinfo response, or the root when there is none
func payloadInfo(root gjson.Result) gjson.Result {
	if info := root.Get("info"); info.IsObject() {
		return info
	}
	return root
}

// payloadElements accepts both a bare list and the {"elements": [...]} collection form
func payloadElements(value gjson.Result) []gjson.Result {
	if value.IsArray() {
		return value.Array()
	}
	if elements := value.Get("elements"); elements.IsArray() {
		return elements.Array()
	}
	return nil
}

func optionalInt(value gjson.Result) *int64 {
	if !value.Exists() || value.Type == gjson.Null || value.String() == "" {
		return nil
	}
	v := value.Int()
	return &v
}

func listString(value gjson.Result) string {
	if !value.IsArray() {
		return value.String()
	}
	items := make([]string, 0)
	for _, item := range value.Array() {
		items = append(items, item.String())
	}
	return strings.Join(items, ",")
}

func groupIDFromURL(url string) string {
	if _, after, ok := strings.Cut(url, "/grps/"); ok {
		return strings.Trim(after, "/")
	}
	return url
}

func addressType(esiaType string) string {
	switch strings.ToUpper(esiaType) {
	case "OLG":
		return "legal"
	case "OPS":
		return "postal"
	case "":
		return "other"
	default:
		return strings.ToLower(esiaType)
	}
}
