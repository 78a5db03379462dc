package tlog

import "github.com/gin-gonic/gin"

func AuditAuthorize(c *gin.Context, state, clientID, provider string) {
	Audit.Info().
		Str("event", "authorize").
		Str("state", state).
		Str("client_id", clientID).
		Str("provider", provider).
		Str("ip", c.ClientIP()).
		Send()
}

func AuditCallback(c *gin.Context, state, providerError string) {
	event := Audit.Info()
	result := "success"
	if providerError != "" {
		event = Audit.Warn()
		result = "failure"
	}
	event.
		Str("event", "callback").
		Str("result", result).
		Str("state", state).
		Str("error", providerError).
		Str("ip", c.ClientIP()).
		Send()
}

func AuditSignIn(c *gin.Context, esiaUID string, grant string) {
	Audit.Info().
		Str("event", "sign_in").
		Str("result", "success").
		Str("esia_uid", esiaUID).
		Str("grant_type", grant).
		Str("ip", c.ClientIP()).
		Send()
}

func AuditSignInFailure(c *gin.Context, grant string, err error) {
	Audit.Warn().
		Str("event", "sign_in").
		Str("result", "failure").
		Str("grant_type", grant).
		Err(err).
		Str("ip", c.ClientIP()).
		Send()
}

func AuditRefresh(c *gin.Context, userID uint) {
	Audit.Info().
		Str("event", "refresh").
		Str("result", "success").
		Uint("user_id", userID).
		Str("ip", c.ClientIP()).
		Send()
}

func AuditLogout(c *gin.Context, userID uint) {
	Audit.Info().
		Str("event", "logout").
		Str("result", "success").
		Uint("user_id", userID).
		Str("ip", c.ClientIP()).
		Send()
}
