package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/esiagate/esiagate/internal/model"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/golang-jwt/jwt/v5"
)

type SignInRequest struct {
	Code        string
	Verifier    string
	Nonce       string
	RedirectURI string
}

type SignInResult struct {
	Tokens  TokenSet
	Token   model.UserToken
	Profile Profile
}

type UserInfoResult struct {
	Profile Profile
	// Refreshed is set when the access token had to be renewed
	Refreshed *TokenSet
}

type LogoutResult struct {
	LogoutURL string
	UserID    uint
}

type AuthService struct {
	esia      *ESIAService
	reconcile *ReconcileService
	users     *UserService
}

func NewAuthService(esia *ESIAService, reconcile *ReconcileService, users *UserService) *AuthService {
	return &AuthService{
		esia:      esia,
		reconcile: reconcile,
		users:     users,
	}
}

// SignIn exchanges the code, reconciles the fetched profile and stores the tokens as the user's active set
func (auth *AuthService) SignIn(ctx context.Context, req SignInRequest) (SignInResult, error) {
	if req.Code == "" {
		return SignInResult{}, validationError("code is required")
	}

	tokens, err := auth.esia.ExchangeCode(ctx, req.Code, req.Verifier, req.RedirectURI)

	if err != nil {
		return SignInResult{}, err
	}

	if err := verifyNonce(tokens.IDToken, req.Nonce); err != nil {
		return SignInResult{}, err
	}

	profile, err := auth.fetchAndReconcile(ctx, tokens.AccessToken)

	if err != nil {
		return SignInResult{}, err
	}

	token, err := auth.users.StoreToken(ctx, profile.User.ID, tokens)

	if err != nil {
		return SignInResult{}, err
	}

	tlog.App.Info().Str("esia_uid", profile.User.EsiaUID).Int("organizations", len(profile.Memberships)).Msg("User signed in")

	return SignInResult{Tokens: tokens, Token: token, Profile: profile}, nil
}

// Refresh renews a locally known active token and supersedes it
func (auth *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenSet, model.UserToken, error) {
	if refreshToken == "" {
		return TokenSet{}, model.UserToken{}, validationError("refresh_token is required")
	}

	previous, err := auth.users.FindActiveTokenByRefresh(ctx, refreshToken)

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenSet{}, model.UserToken{}, fmt.Errorf("%w: unknown refresh token", ErrUnauthorized)
		}
		return TokenSet{}, model.UserToken{}, err
	}

	return auth.refreshStored(ctx, previous)
}

// UserInfo fetches the current profile, renewing the access token at most once
func (auth *AuthService) UserInfo(ctx context.Context, accessToken string) (UserInfoResult, error) {
	profile, err := auth.fetchAndReconcile(ctx, accessToken)

	if err == nil || !errors.Is(err, ErrUnauthorized) {
		return UserInfoResult{Profile: profile}, err
	}

	stored, lookupErr := auth.users.FindActiveToken(ctx, accessToken)

	if lookupErr != nil || stored.RefreshToken == "" {
		return UserInfoResult{}, err
	}

	tlog.App.Debug().Uint("user_id", stored.UserID).Msg("Access token rejected, refreshing once")

	tokens, _, err := auth.refreshStored(ctx, stored)

	if err != nil {
		return UserInfoResult{}, err
	}

	profile, err = auth.fetchAndReconcile(ctx, tokens.AccessToken)

	if err != nil {
		return UserInfoResult{}, err
	}

	return UserInfoResult{Profile: profile, Refreshed: &tokens}, nil
}

// Logout ends the provider session on a best effort basis and deactivates the local tokens of the owner
func (auth *AuthService) Logout(ctx context.Context, accessToken string, params LogoutParams) (LogoutResult, error) {
	var result LogoutResult

	if accessToken != "" {
		auth.esia.Logout(ctx, accessToken)

		stored, err := auth.users.FindActiveToken(ctx, accessToken)

		switch {
		case err == nil:
			result.UserID = stored.UserID
			count, err := auth.users.DeactivateTokens(ctx, stored.UserID)
			if err != nil {
				tlog.App.Error().Err(err).Uint("user_id", stored.UserID).Msg("Failed to deactivate user tokens")
				break
			}
			tlog.App.Debug().Uint("user_id", stored.UserID).Int64("tokens", count).Msg("Deactivated user tokens")
		case errors.Is(err, ErrNotFound):
			tlog.App.Debug().Msg("Logout with unknown access token")
		default:
			tlog.App.Error().Err(err).Msg("Failed to look up access token on logout")
		}
	}

	logoutURL, err := auth.esia.LogoutURL(params)

	if err != nil {
		return LogoutResult{}, err
	}

	result.LogoutURL = logoutURL
	return result, nil
}

// RefreshGroups pulls the access groups of one organization and stores them
func (auth *AuthService) RefreshGroups(ctx context.Context, accessToken string, oid int64) (model.Organization, error) {
	groups, err := auth.esia.FetchOrganizationGroups(ctx, accessToken, oid)

	if err != nil {
		return model.Organization{}, err
	}

	return auth.reconcile.UpsertGroups(ctx, oid, groups)
}

// OrganizationInfo fetches organization data for the given scopes without storing it
func (auth *AuthService) OrganizationInfo(ctx context.Context, accessToken string, oid int64, scopes []string) (OrganizationInfo, error) {
	return auth.esia.FetchOrganizationInfo(ctx, accessToken, oid, scopes)
}

func (auth *AuthService) refreshStored(ctx context.Context, previous model.UserToken) (TokenSet, model.UserToken, error) {
	tokens, err := auth.esia.RefreshToken(ctx, previous.RefreshToken)

	if err != nil {
		return TokenSet{}, model.UserToken{}, err
	}

	token, err := auth.users.ReplaceToken(ctx, previous, tokens)

	if err != nil {
		return TokenSet{}, model.UserToken{}, err
	}

	tokens.RefreshToken = token.RefreshToken
	return tokens, token, nil
}

func (auth *AuthService) fetchAndReconcile(ctx context.Context, accessToken string) (Profile, error) {
	user, err := auth.esia.FetchUserInfo(ctx, accessToken)

	if err != nil {
		return Profile{}, err
	}

	orgs, err := auth.esia.FetchOrganizations(ctx, accessToken)

	if err != nil {
		return Profile{}, err
	}

	return auth.reconcile.Reconcile(ctx, user, orgs)
}

// verifyNonce compares the nonce claim of the id token with the one sent on authorize
func verifyNonce(idToken string, expected string) error {
	if idToken == "" || expected == "" {
		return nil
	}

	claims := jwt.MapClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(idToken, claims)

	if err != nil {
		return &ProviderError{Op: "token", Err: fmt.Errorf("malformed id_token: %w", err)}
	}

	nonce, ok := claims["nonce"].(string)

	if !ok {
		return nil
	}

	if nonce != expected {
		return fmt.Errorf("%w: id_token nonce mismatch", ErrUnauthorized)
	}

	return nil
}
