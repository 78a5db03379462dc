package controller

import (
	"encoding/json"
	"net/http"

	"github.com/esiagate/esiagate/internal/model"
	"github.com/esiagate/esiagate/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type UserCreateRequest struct {
	EsiaUID           string          `json:"esia_uid" binding:"required"`
	FirstName         string          `json:"first_name"`
	LastName          string          `json:"last_name"`
	MiddleName        string          `json:"middle_name"`
	Trusted           bool            `json:"trusted"`
	Status            string          `json:"status"`
	Verifying         bool            `json:"verifying"`
	RIDDoc            *int64          `json:"r_id_doc"`
	ContainsUpCfmCode bool            `json:"contains_up_cfm_code"`
	ETag              string          `json:"e_tag"`
	UpdatedOn         *int64          `json:"updated_on"`
	StateFacts        json.RawMessage `json:"state_facts"`
}

type UserUpdateRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	MiddleName *string `json:"middle_name"`
	Trusted    *bool   `json:"trusted"`
	Status     *string `json:"status"`
	Verifying  *bool   `json:"verifying"`
}

type UserController struct {
	router *gin.RouterGroup
	users  *service.UserService
}

func NewUserController(router *gin.RouterGroup, users *service.UserService) *UserController {
	return &UserController{
		router: router,
		users:  users,
	}
}

func (controller *UserController) SetupRoutes() {
	userGroup := controller.router.Group("/users")
	userGroup.GET("", controller.listUsersHandler)
	userGroup.POST("", controller.createUserHandler)
	userGroup.GET("/esia/:uid", controller.getUserByEsiaUIDHandler)
	userGroup.GET("/:id", controller.getUserHandler)
	userGroup.PUT("/:id", controller.updateUserHandler)
	userGroup.DELETE("/:id", controller.deleteUserHandler)
	userGroup.GET("/:id/organizations", controller.userOrganizationsHandler)
}

func (controller *UserController) listUsersHandler(c *gin.Context) {
	page, ok := parsePage(c)

	if !ok {
		return
	}

	users, err := controller.users.ListUsers(c.Request.Context(), page)

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (controller *UserController) createUserHandler(c *gin.Context) {
	var req UserCreateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	stateFacts := datatypes.JSON("[]")
	if len(req.StateFacts) > 0 && string(req.StateFacts) != "null" {
		stateFacts = datatypes.JSON(req.StateFacts)
	}

	user, err := controller.users.CreateUser(c.Request.Context(), model.User{
		EsiaUID:           req.EsiaUID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		MiddleName:        req.MiddleName,
		Trusted:           req.Trusted,
		Status:            req.Status,
		Verifying:         req.Verifying,
		RIDDoc:            req.RIDDoc,
		ContainsUpCfmCode: req.ContainsUpCfmCode,
		ETag:              req.ETag,
		UpdatedOn:         req.UpdatedOn,
		StateFacts:        stateFacts,
	})

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (controller *UserController) getUserHandler(c *gin.Context) {
	id, ok := parseID(c, "id")

	if !ok {
		return
	}

	user, err := controller.users.GetUser(c.Request.Context(), id)

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (controller *UserController) getUserByEsiaUIDHandler(c *gin.Context) {
	user, err := controller.users.GetUserByEsiaUID(c.Request.Context(), c.Param("uid"))

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (controller *UserController) updateUserHandler(c *gin.Context) {
	id, ok := parseID(c, "id")

	if !ok {
		return
	}

	var req UserUpdateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := controller.users.UpdateUser(c.Request.Context(), id, service.UserUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Trusted:    req.Trusted,
		Status:     req.Status,
		Verifying:  req.Verifying,
	})

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (controller *UserController) deleteUserHandler(c *gin.Context) {
	id, ok := parseID(c, "id")

	if !ok {
		return
	}

	if err := controller.users.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (controller *UserController) userOrganizationsHandler(c *gin.Context) {
	id, ok := parseID(c, "id")

	if !ok {
		return
	}

	links, err := controller.users.GetUserOrganizations(c.Request.Context(), id)

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrganizationResponses(links))
}
