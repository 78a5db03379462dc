package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/esiagate/esiagate/internal/utils"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
)

const maxProviderBody = 1 << 20

type ESIAServiceConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	UserAgent      string
	Timeout        time.Duration
	UserScope      string
	OrgScope       string
	ScopeNamespace string
}

type AuthorizeParams struct {
	State        string
	Nonce        string
	Scope        string
	ClientID     string
	RedirectURI  string
	Provider     string
	ResponseType string
	Verifier     string
}

type LogoutParams struct {
	ClientID    string `url:"client_id"`
	RedirectURI string `url:"redirect_uri,omitempty"`
	State       string `url:"state,omitempty"`
}

type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

type ESIAService struct {
	config ESIAServiceConfig
	oauth  oauth2.Config
	client *http.Client
}

func NewESIAService(config ESIAServiceConfig) *ESIAService {
	return &ESIAService{
		config: config,
	}
}

func (esia *ESIAService) Init() error {
	base, err := url.Parse(esia.config.BaseURL)

	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("invalid esia base url: %q", esia.config.BaseURL)
	}

	esia.config.BaseURL = strings.TrimSuffix(esia.config.BaseURL, "/")

	if esia.config.Timeout <= 0 {
		esia.config.Timeout = 30 * time.Second
	}

	esia.client = &http.Client{
		Timeout: esia.config.Timeout,
		Transport: &userAgentTransport{
			userAgent: esia.config.UserAgent,
			next:      http.DefaultTransport,
		},
	}

	esia.oauth = oauth2.Config{
		ClientID:     esia.config.ClientID,
		ClientSecret: esia.config.ClientSecret,
		RedirectURL:  esia.config.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   esia.endpoint("authorize"),
			TokenURL:  esia.endpoint("token"),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return nil
}

func (esia *ESIAService) endpoint(name string) string {
	return esia.config.BaseURL + "/auth/" + name
}

func (esia *ESIAService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, esia.client)
}

func (esia *ESIAService) BuildAuthorizeURL(params AuthorizeParams) string {
	cfg := esia.oauth
	cfg.ClientID = params.ClientID
	cfg.RedirectURL = params.RedirectURI
	cfg.Scopes = strings.Fields(params.Scope)

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("provider", params.Provider),
	}

	if params.ResponseType != "" {
		opts = append(opts, oauth2.SetAuthURLParam("response_type", params.ResponseType))
	}

	if params.Nonce != "" {
		opts = append(opts, oauth2.SetAuthURLParam("nonce", params.Nonce))
	}

	if params.Verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(params.Verifier))
	}

	return cfg.AuthCodeURL(params.State, opts...)
}

// ExchangeCode trades an authorization code for tokens, redirectURI overrides the configured one when set
func (esia *ESIAService) ExchangeCode(ctx context.Context, code string, verifier string, redirectURI string) (TokenSet, error) {
	var opts []oauth2.AuthCodeOption

	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}

	token, err := esia.oauth.Exchange(esia.clientContext(ctx), code, opts...)

	if err != nil {
		return TokenSet{}, tokenError("token", err)
	}

	return tokenSetFrom(token), nil
}

func (esia *ESIAService) RefreshToken(ctx context.Context, refreshToken string) (TokenSet, error) {
	source := esia.oauth.TokenSource(esia.clientContext(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
	})

	token, err := source.Token()

	if err != nil {
		return TokenSet{}, tokenError("refresh", err)
	}

	return tokenSetFrom(token), nil
}

func (esia *ESIAService) FetchUserInfo(ctx context.Context, accessToken string) (UserRecord, error) {
	body, err := esia.userinfo(ctx, "userinfo", accessToken, esia.config.UserScope)

	if err != nil {
		return UserRecord{}, err
	}

	record, err := ParseUserRecord(body)

	if err != nil {
		return UserRecord{}, newProviderError("userinfo", http.StatusOK, body, err)
	}

	return record, nil
}

func (esia *ESIAService) FetchOrganizations(ctx context.Context, accessToken string) ([]OrgRecord, error) {
	body, err := esia.userinfo(ctx, "organizations", accessToken, esia.config.OrgScope)

	if err != nil {
		return nil, err
	}

	orgs, err := ParseOrgRecords(body)

	if err != nil {
		return nil, newProviderError("organizations", http.StatusOK, body, err)
	}

	return orgs, nil
}

func (esia *ESIAService) FetchOrganizationGroups(ctx context.Context, accessToken string, oid int64) ([]GroupRecord, error) {
	scope := esia.OrganizationScope("org_grps", oid) + " " + esia.OrganizationScope("org_emps", oid)

	body, err := esia.userinfo(ctx, "groups", accessToken, scope)

	if err != nil {
		return nil, err
	}

	groups, err := ParseGroupRecords(body)

	if err != nil {
		return nil, newProviderError("groups", http.StatusOK, body, err)
	}

	return groups, nil
}

// FetchOrganizationInfo asks the gateway for caller-chosen scopes of one organization and returns the payload as sent
func (esia *ESIAService) FetchOrganizationInfo(ctx context.Context, accessToken string, oid int64, scopes []string) (OrganizationInfo, error) {
	bound := make([]string, 0, len(scopes))

	for _, scope := range scopes {
		scope = strings.TrimPrefix(strings.TrimSpace(scope), esia.config.ScopeNamespace)
		if scope == "" || strings.ContainsAny(scope, " ?&") {
			return OrganizationInfo{}, validationError("invalid organization scope %q", scope)
		}
		bound = append(bound, esia.OrganizationScope(scope, oid))
	}

	if len(bound) == 0 {
		return OrganizationInfo{}, validationError("at least one scope is required")
	}

	body, err := esia.userinfo(ctx, "organization info", accessToken, strings.Join(bound, " "))

	if err != nil {
		return OrganizationInfo{}, err
	}

	info, err := ParseOrganizationInfo(body)

	if err != nil {
		return OrganizationInfo{}, newProviderError("organization info", http.StatusOK, body, err)
	}

	return info, nil
}

// OrganizationScope builds a scope bound to a single organization
func (esia *ESIAService) OrganizationScope(scope string, oid int64) string {
	return esia.config.ScopeNamespace + scope + "?org_oid=" + strconv.FormatInt(oid, 10)
}

// Logout notifies the gateway that the session ended, failures are only logged
func (esia *ESIAService) Logout(ctx context.Context, accessToken string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, esia.endpoint("logout"), nil)

	if err != nil {
		tlog.App.Warn().Err(err).Msg("Failed to create logout request")
		return
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := esia.client.Do(req)

	if err != nil {
		tlog.App.Warn().Err(err).Msg("ESIA logout request failed")
		return
	}

	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxProviderBody))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		tlog.App.Warn().Int("status", res.StatusCode).Msg("ESIA logout returned an error status")
	}
}

func (esia *ESIAService) LogoutURL(params LogoutParams) (string, error) {
	if params.ClientID == "" {
		params.ClientID = esia.config.ClientID
	}

	if params.RedirectURI == "" {
		params.RedirectURI = esia.config.RedirectURI
	}

	values, err := query.Values(params)

	if err != nil {
		return "", fmt.Errorf("failed to encode logout query: %w", err)
	}

	return esia.endpoint("logout") + "?" + values.Encode(), nil
}

func (esia *ESIAService) userinfo(ctx context.Context, op string, accessToken string, scope string) ([]byte, error) {
	form := url.Values{}

	if scope != "" {
		form.Set("scope", scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, esia.endpoint("userinfo"), strings.NewReader(form.Encode()))

	if err != nil {
		return nil, &ProviderError{Op: op, Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := esia.client.Do(req)

	if err != nil {
		return nil, &ProviderError{Op: op, Err: err}
	}

	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxProviderBody))

	if err != nil {
		return nil, &ProviderError{Op: op, StatusCode: res.StatusCode, Err: err}
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, newProviderError(op, res.StatusCode, body, ErrUnauthorized)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return nil, newProviderError(op, res.StatusCode, body, errors.New(res.Status))
	}

	return body, nil
}

func tokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError

	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		providerErr := newProviderError(op, status, retrieveErr.Body, err)
		providerErr.Code = utils.CoalesceString(retrieveErr.ErrorCode, providerErr.Code)
		providerErr.Description = utils.CoalesceString(retrieveErr.ErrorDescription, providerErr.Description)
		return providerErr
	}

	return &ProviderError{Op: op, Err: err}
}

func tokenSetFrom(token *oauth2.Token) TokenSet {
	set := TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
		CreatedAt:    time.Now().Unix(),
	}

	if set.TokenType == "" {
		set.TokenType = "Bearer"
	}

	if set.ExpiresIn == 0 && !token.Expiry.IsZero() {
		set.ExpiresIn = int64(time.Until(token.Expiry).Round(time.Second).Seconds())
	}

	if scope, ok := token.Extra("scope").(string); ok {
		set.Scope = scope
	}

	if idToken, ok := token.Extra("id_token").(string); ok {
		set.IDToken = idToken
	}

	if createdAt := extraInt(token.Extra("created_at")); createdAt > 0 {
		set.CreatedAt = createdAt
	}

	return set
}

func extraInt(value any) int64 {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func truncate(body []byte) string {
	const limit = 2048
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}

type userAgentTransport struct {
	userAgent string
	next      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}
