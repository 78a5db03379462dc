package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/esiagate/esiagate/internal/service"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func signIn(t *testing.T, env *testEnv) service.SignInResult {
	t.Helper()
	ctx := context.Background()

	entry, _, err := env.authorization.Begin(ctx, service.BeginRequest{Nonce: "nonce-1"})
	assert.NilError(t, err)

	env.esia.SetNonce("nonce-1")

	entry, err = env.authorization.Complete(ctx, service.CompleteRequest{State: entry.State, Code: "code-" + entry.State[:8]})
	assert.NilError(t, err)

	result, err := env.auth.SignIn(ctx, service.SignInRequest{
		Code:        entry.AuthorizationCode,
		Verifier:    entry.CodeVerifier,
		Nonce:       entry.Nonce,
		RedirectURI: entry.RedirectURI,
	})
	assert.NilError(t, err)

	return result
}

func TestSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, _, err := env.authorization.Begin(ctx, service.BeginRequest{Nonce: "nonce-1"})
	assert.NilError(t, err)

	env.esia.SetNonce("nonce-1")

	entry, err = env.authorization.Complete(ctx, service.CompleteRequest{State: entry.State, Code: "code-1"})
	assert.NilError(t, err)

	result, err := env.auth.SignIn(ctx, service.SignInRequest{
		Code:        entry.AuthorizationCode,
		Verifier:    entry.CodeVerifier,
		Nonce:       entry.Nonce,
		RedirectURI: entry.RedirectURI,
	})
	assert.NilError(t, err)

	form := env.esia.LastTokenForm()
	assert.Equal(t, form["code"], "code-1")
	assert.Equal(t, form["code_verifier"], entry.CodeVerifier)
	assert.Equal(t, form["redirect_uri"], testRedirectURI)
	assert.Equal(t, form["client_id"], "test-client")
	assert.Equal(t, form["client_secret"], "test-secret")

	assert.Equal(t, result.Tokens.AccessToken, "at-1")
	assert.Equal(t, result.Tokens.RefreshToken, "rt-1")
	assert.Equal(t, result.Tokens.TokenType, "Bearer")
	assert.Equal(t, result.Tokens.ExpiresIn, int64(3600))
	assert.Equal(t, result.Tokens.Scope, "openid fullname")
	assert.Assert(t, result.Tokens.IDToken != "")

	user := result.Profile.User
	assert.Equal(t, user.EsiaUID, "1000")
	assert.Equal(t, user.FirstName, "Ivan")
	assert.Equal(t, user.LastName, "Petrov")
	assert.Assert(t, user.Trusted)
	assert.Assert(t, user.RIDDoc != nil)
	assert.Equal(t, *user.RIDDoc, int64(77))
	assert.Equal(t, string(user.StateFacts), `["EntRoot"]`)

	assert.Equal(t, len(result.Profile.Memberships), 1)
	link := result.Profile.Memberships[0]
	assert.Assert(t, link.IsActive)
	assert.Assert(t, link.IsChief)
	assert.Assert(t, !link.IsAdmin)
	assert.Assert(t, link.Organization != nil)
	assert.Equal(t, link.Organization.EsiaOID, int64(42))
	assert.Equal(t, *link.Organization.StaffCount, int64(15))
	assert.Equal(t, len(link.Organization.Addresses), 2)
	assert.Equal(t, len(link.Organization.Groups), 1)
	assert.Equal(t, link.Organization.Groups[0].GroupID, "G1")

	types := map[string]bool{}
	for _, address := range link.Organization.Addresses {
		types[address.AddressType] = true
	}
	assert.DeepEqual(t, types, map[string]bool{"legal": true, "postal": true})

	stored, err := env.users.FindActiveToken(ctx, "at-1")
	assert.NilError(t, err)
	assert.Equal(t, stored.UserID, user.ID)
	assert.Equal(t, stored.ID, result.Token.ID)
}

func TestSignInSupersedesPreviousToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := signIn(t, env)
	second := signIn(t, env)

	assert.Equal(t, first.Profile.User.ID, second.Profile.User.ID)

	_, err := env.users.FindActiveToken(ctx, first.Tokens.AccessToken)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = env.users.FindActiveToken(ctx, second.Tokens.AccessToken)
	assert.NilError(t, err)
}

func TestSignInNonceMismatch(t *testing.T) {
	env := newTestEnv(t)

	env.esia.SetNonce("forged")

	_, err := env.auth.SignIn(context.Background(), service.SignInRequest{Code: "code-1", Nonce: "nonce-1"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestSignInProviderRejectsCode(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.SignIn(context.Background(), service.SignInRequest{Code: "bad-code"})

	var providerErr *service.ProviderError
	assert.Assert(t, errors.As(err, &providerErr))
	assert.Equal(t, providerErr.Op, "token")
	assert.Equal(t, providerErr.StatusCode, http.StatusBadRequest)
	assert.Equal(t, providerErr.Code, "invalid_grant")
}

func TestUserInfoProviderErrorDetails(t *testing.T) {
	env := newTestEnv(t)
	result := signIn(t, env)

	env.esia.FailUserInfo(http.StatusInternalServerError, `{"error":"ESIA-007014","error_description":"scope not allowed"}`)

	_, err := env.auth.UserInfo(context.Background(), result.Tokens.AccessToken)

	var providerErr *service.ProviderError
	assert.Assert(t, errors.As(err, &providerErr))
	assert.Equal(t, providerErr.StatusCode, http.StatusInternalServerError)
	assert.Equal(t, providerErr.Code, "ESIA-007014")
	assert.Equal(t, providerErr.Description, "scope not allowed")
	assert.ErrorContains(t, err, "(ESIA-007014: scope not allowed)")
	assert.Equal(t, env.esia.RefreshCalls(), 0)
}

func TestUserInfoWithoutOrganizationData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := signIn(t, env)
	assert.Equal(t, len(result.Profile.Memberships), 1)

	env.esia.SetOrgs(`{"sub":"1000","info":{}}`)

	info, err := env.auth.UserInfo(ctx, result.Tokens.AccessToken)
	assert.NilError(t, err)
	assert.Equal(t, len(info.Profile.Memberships), 1)

	links, err := env.users.GetUserOrganizations(ctx, result.Profile.User.ID)
	assert.NilError(t, err)
	assert.Equal(t, len(links), 1)
	assert.Assert(t, links[0].IsActive)

	// an explicit empty list does remove the user from the organization
	env.esia.SetOrgs(`{"sub":"1000","info":{"orgs":{"elements":[]}}}`)

	info, err = env.auth.UserInfo(ctx, result.Tokens.AccessToken)
	assert.NilError(t, err)
	assert.Equal(t, len(info.Profile.Memberships), 0)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := signIn(t, env)

	tokens, stored, err := env.auth.Refresh(ctx, result.Tokens.RefreshToken)
	assert.NilError(t, err)
	assert.Equal(t, tokens.AccessToken, "at-2")
	assert.Equal(t, tokens.RefreshToken, "rt-2")
	assert.Equal(t, stored.UserID, result.Profile.User.ID)
	assert.Assert(t, stored.IsActive)

	_, err = env.users.FindActiveToken(ctx, result.Tokens.AccessToken)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// the superseded refresh token is no longer accepted
	_, _, err = env.auth.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, env.esia.RefreshCalls(), 1)

	_, _, err = env.auth.Refresh(ctx, "")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestUserInfoRefreshesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := signIn(t, env)
	env.esia.Reject(result.Tokens.AccessToken)

	info, err := env.auth.UserInfo(ctx, result.Tokens.AccessToken)
	assert.NilError(t, err)
	assert.Assert(t, info.Refreshed != nil)
	assert.Equal(t, info.Refreshed.AccessToken, "at-2")
	assert.Equal(t, info.Profile.User.EsiaUID, "1000")
	assert.Equal(t, env.esia.RefreshCalls(), 1)

	env.esia.RejectAll()

	_, err = env.auth.UserInfo(ctx, info.Refreshed.AccessToken)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, env.esia.RefreshCalls(), 2)
}

func TestUserInfoWithoutRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := signIn(t, env)

	info, err := env.auth.UserInfo(ctx, result.Tokens.AccessToken)
	assert.NilError(t, err)
	assert.Assert(t, info.Refreshed == nil)
	assert.Equal(t, len(info.Profile.Memberships), 1)

	env.esia.Reject("unknown")

	_, err = env.auth.UserInfo(ctx, "unknown")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, env.esia.RefreshCalls(), 0)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := signIn(t, env)

	logout, err := env.auth.Logout(ctx, result.Tokens.AccessToken, service.LogoutParams{State: "bye"})
	assert.NilError(t, err)
	assert.Equal(t, logout.UserID, result.Profile.User.ID)
	assert.Equal(t, env.esia.LogoutCalls(), 1)

	u, err := url.Parse(logout.LogoutURL)
	assert.NilError(t, err)
	assert.Equal(t, u.Path, "/auth/logout")
	assert.Equal(t, u.Query().Get("client_id"), "test-client")
	assert.Equal(t, u.Query().Get("redirect_uri"), testRedirectURI)
	assert.Equal(t, u.Query().Get("state"), "bye")

	_, err = env.users.FindActiveToken(ctx, result.Tokens.AccessToken)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestLogoutIsBestEffort(t *testing.T) {
	env := newTestEnv(t)
	env.esia.SetLogoutStatus(http.StatusInternalServerError)

	logout, err := env.auth.Logout(context.Background(), "unknown", service.LogoutParams{})
	assert.NilError(t, err)
	assert.Equal(t, logout.UserID, uint(0))
	assert.Assert(t, logout.LogoutURL != "")

	logout, err = env.auth.Logout(context.Background(), "", service.LogoutParams{})
	assert.NilError(t, err)
	assert.Assert(t, logout.LogoutURL != "")
	assert.Equal(t, env.esia.LogoutCalls(), 1)
}

func TestRefreshGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := signIn(t, env)

	org, err := env.auth.RefreshGroups(ctx, result.Tokens.AccessToken, 42)
	assert.NilError(t, err)
	assert.Equal(t, len(org.Groups), 2)
	assert.Equal(t, org.Groups[0].GroupID, "G1")
	assert.Equal(t, org.Groups[0].Name, "Accountants")
	assert.Equal(t, org.Groups[0].ITSystem, "SYS1,SYS2")
	assert.Assert(t, !org.Groups[0].IsSystem)
	assert.Equal(t, org.Groups[1].GroupID, "G2")

	_, err = env.auth.RefreshGroups(ctx, result.Tokens.AccessToken, 99)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.Equal(t, env.esia.LastUserInfoScope(),
		"http://esia.gosuslugi.ru/org_grps?org_oid=99 http://esia.gosuslugi.ru/org_emps?org_oid=99")
}

func TestOrganizationInfo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	info, err := env.auth.OrganizationInfo(ctx, "at-1", 42, []string{"org_fullname", "http://esia.gosuslugi.ru/org_ogrn"})
	assert.NilError(t, err)
	assert.Equal(t, info.Sub, "1000")
	assert.Assert(t, is.Contains(string(info.Info), `"fullName":"Example LLC"`))
	assert.Equal(t, env.esia.LastUserInfoScope(),
		"http://esia.gosuslugi.ru/org_fullname?org_oid=42 http://esia.gosuslugi.ru/org_ogrn?org_oid=42")

	_, err = env.auth.OrganizationInfo(ctx, "at-1", 42, nil)
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = env.auth.OrganizationInfo(ctx, "at-1", 42, []string{"org_fullname?org_oid=1"})
	assert.ErrorIs(t, err, service.ErrValidation)
}
