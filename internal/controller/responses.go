package controller

import (
	"github.com/esiagate/esiagate/internal/model"
	"github.com/esiagate/esiagate/internal/service"

	"gorm.io/datatypes"
)

type OrganizationResponse struct {
	model.Organization
	IsChief                bool `json:"is_chief"`
	IsAdmin                bool `json:"is_admin"`
	HasRightOfSubstitution bool `json:"has_right_of_substitution"`
	HasApprovalTabAccess   bool `json:"has_approval_tab_access"`
}

type UserInfo struct {
	UID               string                 `json:"uid"`
	FirstName         string                 `json:"first_name"`
	LastName          string                 `json:"last_name"`
	MiddleName        string                 `json:"middle_name"`
	Trusted           bool                   `json:"trusted"`
	Status            string                 `json:"status"`
	Verifying         bool                   `json:"verifying"`
	RIDDoc            *int64                 `json:"r_id_doc"`
	ContainsUpCfmCode bool                   `json:"contains_up_cfm_code"`
	ETag              string                 `json:"e_tag"`
	UpdatedOn         *int64                 `json:"updated_on"`
	StateFacts        datatypes.JSON         `json:"state_facts"`
	Orgs              []OrganizationResponse `json:"orgs"`
}

type UserInfoResponse struct {
	Sub    string            `json:"sub"`
	UserID uint              `json:"user_id"`
	Info   UserInfo          `json:"info"`
	Token  *service.TokenSet `json:"token,omitempty"`
}

func newOrganizationResponses(links []model.UserOrganization) []OrganizationResponse {
	orgs := make([]OrganizationResponse, 0, len(links))

	for _, link := range links {
		if link.Organization == nil {
			continue
		}
		orgs = append(orgs, OrganizationResponse{
			Organization:           *link.Organization,
			IsChief:                link.IsChief,
			IsAdmin:                link.IsAdmin,
			HasRightOfSubstitution: link.HasRightOfSubstitution,
			HasApprovalTabAccess:   link.HasApprovalTabAccess,
		})
	}

	return orgs
}

func newUserInfoResponse(result service.UserInfoResult) UserInfoResponse {
	user := result.Profile.User

	return UserInfoResponse{
		Sub:    user.EsiaUID,
		UserID: user.ID,
		Info: UserInfo{
			UID:               user.EsiaUID,
			FirstName:         user.FirstName,
			LastName:          user.LastName,
			MiddleName:        user.MiddleName,
			Trusted:           user.Trusted,
			Status:            user.Status,
			Verifying:         user.Verifying,
			RIDDoc:            user.RIDDoc,
			ContainsUpCfmCode: user.ContainsUpCfmCode,
			ETag:              user.ETag,
			UpdatedOn:         user.UpdatedOn,
			StateFacts:        user.StateFacts,
			Orgs:              newOrganizationResponses(result.Profile.Memberships),
		},
		Token: result.Refreshed,
	}
}
