package controller

import (
	"net/http"

	"github.com/esiagate/esiagate/internal/model"
	"github.com/esiagate/esiagate/internal/service"
	"github.com/esiagate/esiagate/internal/utils"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/gin-gonic/gin"
)

type OrganizationCreateRequest struct {
	EsiaOID        int64  `json:"esia_oid" binding:"required"`
	PrnOID         *int64 `json:"prn_oid"`
	FullName       string `json:"full_name"`
	ShortName      string `json:"short_name"`
	OGRN           string `json:"ogrn"`
	INN            string `json:"inn"`
	KPP            string `json:"kpp"`
	OrgType        string `json:"org_type"`
	Leg            string `json:"leg"`
	OKTMO          string `json:"oktmo"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	IsActive       *bool  `json:"is_active"`
	IsLiquidated   bool   `json:"is_liquidated"`
	StaffCount     *int64 `json:"staff_count"`
	AgencyTerRange string `json:"agency_ter_range"`
	AgencyType     string `json:"agency_type"`
	ETag           string `json:"e_tag"`
}

type OrganizationUpdateRequest struct {
	FullName   *string `json:"full_name"`
	ShortName  *string `json:"short_name"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email" binding:"omitempty,email"`
	IsActive   *bool   `json:"is_active"`
	StaffCount *int64  `json:"staff_count" binding:"omitempty,min=0"`
	ETag       *string `json:"e_tag"`
}

type OrganizationInfoRequest struct {
	Scopes []string `form:"scopes" binding:"required"`
}

type OrganizationController struct {
	router *gin.RouterGroup
	orgs   *service.OrganizationService
	auth   *service.AuthService
}

func NewOrganizationController(router *gin.RouterGroup, orgs *service.OrganizationService, auth *service.AuthService) *OrganizationController {
	return &OrganizationController{
		router: router,
		orgs:   orgs,
		auth:   auth,
	}
}

func (controller *OrganizationController) SetupRoutes() {
	orgGroup := controller.router.Group("/organizations")
	orgGroup.GET("", controller.listOrganizationsHandler)
	orgGroup.POST("", controller.createOrganizationHandler)
	orgGroup.GET("/esia/:oid", controller.getOrganizationByEsiaOIDHandler)
	orgGroup.POST("/esia/:oid/groups", controller.refreshGroupsHandler)
	orgGroup.POST("/esia/:oid/info", controller.organizationInfoHandler)
	orgGroup.GET("/:id", controller.getOrganizationHandler)
	orgGroup.PUT("/:id", controller.updateOrganizationHandler)
	orgGroup.DELETE("/:id", controller.deleteOrganizationHandler)
}

func (controller *OrganizationController) listOrganizationsHandler(c *gin.Context) {
	page, ok := parsePage(c)

	if !ok {
		return
	}

	orgs, err := controller.orgs.ListOrganizations(c.Request.Context(), page)

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, orgs)
}

func (controller *OrganizationController) createOrganizationHandler(c *gin.Context) {
	var req OrganizationCreateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	org, err := controller.orgs.CreateOrganization(c.Request.Context(), model.Organization{
		EsiaOID:        req.EsiaOID,
		PrnOID:         req.PrnOID,
		FullName:       req.FullName,
		ShortName:      req.ShortName,
		OGRN:           req.OGRN,
		INN:            req.INN,
		KPP:            req.KPP,
		OrgType:        req.OrgType,
		Leg:            req.Leg,
		OKTMO:          req.OKTMO,
		Phone:          req.Phone,
		Email:          req.Email,
		IsActive:       active,
		IsLiquidated:   req.IsLiquidated,
		StaffCount:     req.StaffCount,
		AgencyTerRange: req.AgencyTerRange,
		AgencyType:     req.AgencyType,
		ETag:           req.ETag,
	})

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

func (controller *OrganizationController) getOrganizationHandler(c *gin.Context) {
	id, ok := parseID(c, "id")

	if !ok {
		return
	}

	org, err := controller.orgs.GetOrganization(c.Request.Context(), id)

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (controller *OrganizationController) getOrganizationByEsiaOIDHandler(c *gin.Context) {
	oid, ok := parseOID(c, "oid")

	if !ok {
		return
	}

	org, err := controller.orgs.GetOrganizationByEsiaOID(c.Request.Context(), oid)

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (controller *OrganizationController) updateOrganizationHandler(c *gin.Context) {
	id, ok := parseID(c, "id")

	if !ok {
		return
	}

	var req OrganizationUpdateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	org, err := controller.orgs.UpdateOrganization(c.Request.Context(), id, service.OrganizationUpdate{
		FullName:   req.FullName,
		ShortName:  req.ShortName,
		Phone:      req.Phone,
		Email:      req.Email,
		IsActive:   req.IsActive,
		StaffCount: req.StaffCount,
		ETag:       req.ETag,
	})

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (controller *OrganizationController) deleteOrganizationHandler(c *gin.Context) {
	id, ok := parseID(c, "id")

	if !ok {
		return
	}

	if err := controller.orgs.DeleteOrganization(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (controller *OrganizationController) refreshGroupsHandler(c *gin.Context) {
	oid, ok := parseOID(c, "oid")

	if !ok {
		return
	}

	accessToken, ok := utils.GetBearerToken(c.GetHeader("Authorization"))

	if !ok {
		unauthorized(c, "missing bearer token")
		return
	}

	org, err := controller.auth.RefreshGroups(c.Request.Context(), accessToken, oid)

	if err != nil {
		writeError(c, err)
		return
	}

	tlog.App.Info().Int64("esia_oid", oid).Int("groups", len(org.Groups)).Msg("Refreshed organization groups")

	c.JSON(http.StatusOK, org)
}

func (controller *OrganizationController) organizationInfoHandler(c *gin.Context) {
	oid, ok := parseOID(c, "oid")

	if !ok {
		return
	}

	var req OrganizationInfoRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}

	accessToken, ok := utils.GetBearerToken(c.GetHeader("Authorization"))

	if !ok {
		unauthorized(c, "missing bearer token")
		return
	}

	info, err := controller.auth.OrganizationInfo(c.Request.Context(), accessToken, oid, req.Scopes)

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
