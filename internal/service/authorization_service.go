package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/esiagate/esiagate/internal/model"
	"github.com/esiagate/esiagate/internal/utils"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const stateSize = 32

type AuthorizationServiceConfig struct {
	ClientID         string
	RedirectURI      string
	DefaultScope     string
	ScopeNamespace   string
	AllowedScopes    []string
	AllowedProviders []string
}

type BeginRequest struct {
	ClientID     string
	Scope        string
	RedirectURI  string
	Provider     string
	ResponseType string
	Nonce        string
}

type CompleteRequest struct {
	State            string
	Code             string
	Error            string
	ErrorDescription string
}

type AuthorizationService struct {
	config   AuthorizationServiceConfig
	database *gorm.DB
	esia     *ESIAService
}

func NewAuthorizationService(config AuthorizationServiceConfig, database *gorm.DB, esia *ESIAService) *AuthorizationService {
	return &AuthorizationService{
		config:   config,
		database: database,
		esia:     esia,
	}
}

func (auth *AuthorizationService) Init() error {
	if auth.config.DefaultScope == "" {
		auth.config.DefaultScope = "openid"
	}
	if len(auth.config.AllowedProviders) == 0 {
		return errors.New("at least one provider must be allowed")
	}
	return nil
}

// Begin persists a pending request and returns it with the provider authorize url
func (auth *AuthorizationService) Begin(ctx context.Context, req BeginRequest) (model.AuthorizationRequest, string, error) {
	req.ClientID = utils.CoalesceString(req.ClientID, auth.config.ClientID)
	req.RedirectURI = utils.CoalesceString(req.RedirectURI, auth.config.RedirectURI)
	req.Provider = utils.CoalesceString(req.Provider, auth.config.AllowedProviders[0])
	req.ResponseType = utils.CoalesceString(req.ResponseType, "code")
	req.Scope = utils.CoalesceString(req.Scope, auth.config.DefaultScope)

	if req.ClientID == "" {
		return model.AuthorizationRequest{}, "", validationError("client_id is required")
	}

	if req.RedirectURI == "" {
		return model.AuthorizationRequest{}, "", validationError("redirect_uri is required")
	}

	if !slices.Contains(auth.config.AllowedProviders, req.Provider) {
		return model.AuthorizationRequest{}, "", validationError("unsupported provider: %s", req.Provider)
	}

	if req.ResponseType != "code" {
		return model.AuthorizationRequest{}, "", validationError("unsupported response_type: %s", req.ResponseType)
	}

	scopes := utils.SplitScopes(req.Scope)

	if invalid := auth.invalidScopes(scopes); len(invalid) > 0 {
		return model.AuthorizationRequest{}, "", validationError("invalid scopes: %s", strings.Join(invalid, ", "))
	}

	state, err := utils.GetRandomToken(stateSize)

	if err != nil {
		return model.AuthorizationRequest{}, "", fmt.Errorf("failed to generate state: %w", err)
	}

	nonce := req.Nonce

	if nonce == "" {
		nonce = uuid.NewString()
	}

	entry := model.AuthorizationRequest{
		State:        state,
		ClientID:     req.ClientID,
		ResponseType: req.ResponseType,
		Provider:     req.Provider,
		Scope:        strings.Join(scopes, " "),
		RedirectURI:  req.RedirectURI,
		Nonce:        nonce,
		CodeVerifier: oauth2.GenerateVerifier(),
	}

	err = auth.database.WithContext(ctx).Create(&entry).Error

	if err != nil {
		return model.AuthorizationRequest{}, "", fmt.Errorf("failed to store authorization request: %w", translateDBError(err))
	}

	tlog.App.Debug().Str("state", state).Str("client_id", entry.ClientID).Msg("Authorization request created")

	authorizeURL := auth.esia.BuildAuthorizeURL(AuthorizeParams{
		State:        entry.State,
		Nonce:        entry.Nonce,
		Scope:        entry.Scope,
		ClientID:     entry.ClientID,
		RedirectURI:  entry.RedirectURI,
		Provider:     entry.Provider,
		ResponseType: entry.ResponseType,
		Verifier:     entry.CodeVerifier,
	})

	return entry, authorizeURL, nil
}

// Complete consumes a pending request, a state can only be completed once
func (auth *AuthorizationService) Complete(ctx context.Context, req CompleteRequest) (model.AuthorizationRequest, error) {
	if req.State == "" {
		return model.AuthorizationRequest{}, validationError("state is required")
	}

	if req.Code == "" && req.Error == "" {
		return model.AuthorizationRequest{}, validationError("either code or error is required")
	}

	now := time.Now()
	updates := map[string]any{
		"is_completed": true,
		"completed_at": now,
		"updated_at":   now,
	}

	if req.Error != "" {
		updates["error"] = req.Error
		updates["error_description"] = req.ErrorDescription
	} else {
		updates["authorization_code"] = req.Code
	}

	db := auth.database.WithContext(ctx)

	res := db.Model(&model.AuthorizationRequest{}).
		Where("state = ? AND is_completed = ?", req.State, false).
		Updates(updates)

	if res.Error != nil {
		return model.AuthorizationRequest{}, fmt.Errorf("failed to complete authorization request: %w", translateDBError(res.Error))
	}

	entry, err := auth.Get(ctx, req.State)

	if err != nil {
		return model.AuthorizationRequest{}, err
	}

	if res.RowsAffected == 0 {
		return entry, fmt.Errorf("%w: authorization request already completed", ErrConflict)
	}

	return entry, nil
}

func (auth *AuthorizationService) Get(ctx context.Context, state string) (model.AuthorizationRequest, error) {
	var entry model.AuthorizationRequest

	err := auth.database.WithContext(ctx).Where("state = ?", state).First(&entry).Error

	if err != nil {
		return model.AuthorizationRequest{}, fmt.Errorf("authorization request: %w", translateDBError(err))
	}

	return entry, nil
}

func (auth *AuthorizationService) FindByCode(ctx context.Context, code string) (model.AuthorizationRequest, error) {
	var entry model.AuthorizationRequest

	if code == "" {
		return entry, validationError("code is required")
	}

	err := auth.database.WithContext(ctx).
		Where("authorization_code = ? AND is_completed = ?", code, true).
		Order("completed_at DESC").
		First(&entry).Error

	if err != nil {
		return model.AuthorizationRequest{}, fmt.Errorf("authorization request: %w", translateDBError(err))
	}

	return entry, nil
}

func (auth *AuthorizationService) invalidScopes(scopes []string) []string {
	var invalid []string

	for _, scope := range scopes {
		name := scope
		if auth.config.ScopeNamespace != "" && strings.HasPrefix(scope, auth.config.ScopeNamespace) {
			name, _, _ = strings.Cut(strings.TrimPrefix(scope, auth.config.ScopeNamespace), "?")
		}
		if len(auth.config.AllowedScopes) > 0 && !slices.Contains(auth.config.AllowedScopes, name) {
			invalid = append(invalid, scope)
		}
	}

	return invalid
}
