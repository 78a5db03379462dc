package controller

import (
	"errors"
	"net/http"

	"github.com/esiagate/esiagate/internal/metrics"
	"github.com/esiagate/esiagate/internal/model"
	"github.com/esiagate/esiagate/internal/service"
	"github.com/esiagate/esiagate/internal/utils"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/gin-gonic/gin"
)

type AuthorizeRequest struct {
	ClientID     string `form:"client_id"`
	Scope        string `form:"scope"`
	RedirectURI  string `form:"redirect_uri"`
	Provider     string `form:"provider"`
	ResponseType string `form:"response_type"`
	Nonce        string `form:"nonce"`
}

type CallbackRequest struct {
	Code             string `form:"code"`
	State            string `form:"state"`
	Error            string `form:"error"`
	ErrorDescription string `form:"error_description"`
}

type TokenRequest struct {
	GrantType    string `form:"grant_type" json:"grant_type"`
	Code         string `form:"code" json:"code"`
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
	RedirectURI  string `form:"redirect_uri" json:"redirect_uri"`
}

type LogoutRequest struct {
	RedirectURI string `form:"redirect_uri"`
	State       string `form:"state"`
}

type CallbackResponse struct {
	service.TokenSet
	State  string `json:"state"`
	UserID uint   `json:"user_id"`
}

type AuthController struct {
	router        *gin.RouterGroup
	authorization *service.AuthorizationService
	auth          *service.AuthService
	metrics       *metrics.AuthMetrics
}

func NewAuthController(router *gin.RouterGroup, authorization *service.AuthorizationService, auth *service.AuthService, authMetrics *metrics.AuthMetrics) *AuthController {
	return &AuthController{
		router:        router,
		authorization: authorization,
		auth:          auth,
		metrics:       authMetrics,
	}
}

func (controller *AuthController) SetupRoutes() {
	authGroup := controller.router.Group("/auth")
	authGroup.GET("/authorize", controller.authorizeHandler)
	authGroup.GET("/authorize/url", controller.authorizeURLHandler)
	authGroup.GET("/callback", controller.callbackHandler)
	authGroup.POST("/token", controller.tokenHandler)
	authGroup.POST("/userinfo", controller.userinfoHandler)
	authGroup.GET("/logout", controller.logoutHandler)
}

func (controller *AuthController) authorizeHandler(c *gin.Context) {
	entry, authorizeURL, ok := controller.begin(c)

	if !ok {
		return
	}

	tlog.App.Debug().Str("state", entry.State).Msg("Redirecting to ESIA")
	c.Redirect(http.StatusFound, authorizeURL)
}

func (controller *AuthController) authorizeURLHandler(c *gin.Context) {
	entry, authorizeURL, ok := controller.begin(c)

	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorization_url": authorizeURL,
		"state":             entry.State,
	})
}

func (controller *AuthController) begin(c *gin.Context) (model.AuthorizationRequest, string, bool) {
	var req AuthorizeRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return model.AuthorizationRequest{}, "", false
	}

	entry, authorizeURL, err := controller.authorization.Begin(c.Request.Context(), service.BeginRequest{
		ClientID:     req.ClientID,
		Scope:        req.Scope,
		RedirectURI:  req.RedirectURI,
		Provider:     req.Provider,
		ResponseType: req.ResponseType,
		Nonce:        req.Nonce,
	})

	controller.metrics.Record("authorize", err)

	if err != nil {
		writeError(c, err)
		return model.AuthorizationRequest{}, "", false
	}

	tlog.AuditAuthorize(c, entry.State, entry.ClientID, entry.Provider)

	return entry, authorizeURL, true
}

func (controller *AuthController) callbackHandler(c *gin.Context) {
	var req CallbackRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}

	entry, err := controller.authorization.Complete(c.Request.Context(), service.CompleteRequest{
		State:            req.State,
		Code:             req.Code,
		Error:            req.Error,
		ErrorDescription: req.ErrorDescription,
	})

	controller.metrics.Record("callback", err)

	if err != nil {
		writeError(c, err)
		return
	}

	tlog.AuditCallback(c, entry.State, entry.Error)

	if entry.Error != "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":            http.StatusUnauthorized,
			"message":           "Unauthorized",
			"error":             entry.Error,
			"error_description": entry.ErrorDescription,
			"state":             entry.State,
		})
		return
	}

	result, err := controller.auth.SignIn(c.Request.Context(), service.SignInRequest{
		Code:        entry.AuthorizationCode,
		Verifier:    entry.CodeVerifier,
		Nonce:       entry.Nonce,
		RedirectURI: entry.RedirectURI,
	})

	controller.metrics.Record("sign_in", err)

	if err != nil {
		tlog.AuditSignInFailure(c, "callback", err)
		writeError(c, err)
		return
	}

	tlog.AuditSignIn(c, result.Profile.User.EsiaUID, "callback")

	c.JSON(http.StatusOK, CallbackResponse{
		TokenSet: result.Tokens,
		State:    entry.State,
		UserID:   result.Profile.User.ID,
	})
}

func (controller *AuthController) tokenHandler(c *gin.Context) {
	var req TokenRequest

	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}

	switch req.GrantType {
	case "authorization_code":
		controller.authorizationCodeGrant(c, req)
	case "refresh_token":
		controller.refreshTokenGrant(c, req)
	case "":
		writeError(c, invalidParam("grant_type", ""))
	default:
		writeError(c, invalidParam("grant_type", req.GrantType))
	}
}

func (controller *AuthController) authorizationCodeGrant(c *gin.Context, req TokenRequest) {
	if req.Code == "" {
		writeError(c, invalidParam("code", ""))
		return
	}

	signIn := service.SignInRequest{
		Code:        req.Code,
		RedirectURI: req.RedirectURI,
	}

	entry, err := controller.authorization.FindByCode(c.Request.Context(), req.Code)

	switch {
	case err == nil:
		signIn.Verifier = entry.CodeVerifier
		signIn.Nonce = entry.Nonce
		signIn.RedirectURI = utils.CoalesceString(req.RedirectURI, entry.RedirectURI)
	case !errors.Is(err, service.ErrNotFound):
		writeError(c, err)
		return
	}

	result, err := controller.auth.SignIn(c.Request.Context(), signIn)

	controller.metrics.Record("sign_in", err)

	if err != nil {
		tlog.AuditSignInFailure(c, req.GrantType, err)
		writeError(c, err)
		return
	}

	tlog.AuditSignIn(c, result.Profile.User.EsiaUID, req.GrantType)

	c.JSON(http.StatusOK, result.Tokens)
}

func (controller *AuthController) refreshTokenGrant(c *gin.Context, req TokenRequest) {
	tokens, stored, err := controller.auth.Refresh(c.Request.Context(), req.RefreshToken)

	controller.metrics.Record("refresh", err)

	if err != nil {
		writeError(c, err)
		return
	}

	tlog.AuditRefresh(c, stored.UserID)

	c.JSON(http.StatusOK, tokens)
}

func (controller *AuthController) userinfoHandler(c *gin.Context) {
	accessToken, ok := utils.GetBearerToken(c.GetHeader("Authorization"))

	if !ok {
		unauthorized(c, "missing bearer token")
		return
	}

	result, err := controller.auth.UserInfo(c.Request.Context(), accessToken)

	controller.metrics.Record("userinfo", err)

	if err != nil {
		writeError(c, err)
		return
	}

	if result.Refreshed != nil {
		tlog.AuditRefresh(c, result.Profile.User.ID)
	}

	c.JSON(http.StatusOK, newUserInfoResponse(result))
}

func (controller *AuthController) logoutHandler(c *gin.Context) {
	var req LogoutRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}

	accessToken, _ := utils.GetBearerToken(c.GetHeader("Authorization"))

	result, err := controller.auth.Logout(c.Request.Context(), accessToken, service.LogoutParams{
		RedirectURI: req.RedirectURI,
		State:       req.State,
	})

	controller.metrics.Record("logout", err)

	if err != nil {
		writeError(c, err)
		return
	}

	if result.UserID != 0 {
		tlog.AuditLogout(c, result.UserID)
	}

	c.JSON(http.StatusOK, gin.H{
		"logout_url":   result.LogoutURL,
		"redirect_uri": req.RedirectURI,
	})
}
