package service

import (
	"context"
	"fmt"

	"github.com/esiagate/esiagate/internal/model"

	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// UserUpdate holds the locally editable user fields, nil means unchanged
type UserUpdate struct {
	FirstName  *string
	LastName   *string
	MiddleName *string
	Trusted    *bool
	Status     *string
	Verifying  *bool
}

type UserService struct {
	database *gorm.DB
}

func NewUserService(database *gorm.DB) *UserService {
	return &UserService{
		database: database,
	}
}

func (us *UserService) ListUsers(ctx context.Context, page Page) ([]model.User, error) {
	page = page.normalize()
	users := []model.User{}

	err := us.database.WithContext(ctx).Order("id").Offset(page.Skip).Limit(page.Limit).Find(&users).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (us *UserService) GetUser(ctx context.Context, id uint) (model.User, error) {
	var user model.User

	err := us.database.WithContext(ctx).First(&user, id).Error

	if err != nil {
		return model.User{}, fmt.Errorf("user %d: %w", id, translateDBError(err))
	}

	return user, nil
}

func (us *UserService) GetUserByEsiaUID(ctx context.Context, uid string) (model.User, error) {
	var user model.User

	err := us.database.WithContext(ctx).Where("esia_uid = ?", uid).First(&user).Error

	if err != nil {
		return model.User{}, fmt.Errorf("user %s: %w", uid, translateDBError(err))
	}

	return user, nil
}

func (us *UserService) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	if user.EsiaUID == "" {
		return model.User{}, validationError("esia_uid is required")
	}

	user.ID = 0

	err := us.database.WithContext(ctx).Create(&user).Error

	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", translateDBError(err))
	}

	return user, nil
}

func (us *UserService) UpdateUser(ctx context.Context, id uint, update UserUpdate) (model.User, error) {
	user, err := us.GetUser(ctx, id)

	if err != nil {
		return model.User{}, err
	}

	updates := map[string]any{}

	if update.FirstName != nil {
		updates["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		updates["last_name"] = *update.LastName
	}
	if update.MiddleName != nil {
		updates["middle_name"] = *update.MiddleName
	}
	if update.Trusted != nil {
		updates["trusted"] = *update.Trusted
	}
	if update.Status != nil {
		updates["status"] = *update.Status
	}
	if update.Verifying != nil {
		updates["verifying"] = *update.Verifying
	}

	if len(updates) == 0 {
		return user, nil
	}

	err = us.database.WithContext(ctx).Model(&user).Updates(updates).Error

	if err != nil {
		return model.User{}, fmt.Errorf("failed to update user %d: %w", id, translateDBError(err))
	}

	return us.GetUser(ctx, id)
}

func (us *UserService) DeleteUser(ctx context.Context, id uint) error {
	res := us.database.WithContext(ctx).Delete(&model.User{}, id)

	if res.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, translateDBError(res.Error))
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	return nil
}

func (us *UserService) GetUserOrganizations(ctx context.Context, id uint) ([]model.UserOrganization, error) {
	if _, err := us.GetUser(ctx, id); err != nil {
		return nil, err
	}

	links, err := activeMemberships(us.database.WithContext(ctx), id)

	if err != nil {
		return nil, fmt.Errorf("failed to list organizations of user %d: %w", id, err)
	}

	return links, nil
}

// StoreToken inserts a new active token for the user and supersedes the previous ones
func (us *UserService) StoreToken(ctx context.Context, userID uint, set TokenSet) (model.UserToken, error) {
	var token model.UserToken

	err := us.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		token, err = storeToken(tx, userID, set)
		return err
	})

	if err != nil {
		return model.UserToken{}, fmt.Errorf("failed to store token: %w", translateDBError(err))
	}

	return token, nil
}

// ReplaceToken deactivates the given token and stores its successor in one transaction
func (us *UserService) ReplaceToken(ctx context.Context, previous model.UserToken, set TokenSet) (model.UserToken, error) {
	if set.RefreshToken == "" {
		set.RefreshToken = previous.RefreshToken
	}

	var token model.UserToken

	err := us.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UserToken{}).
			Where("id = ? AND is_active = ?", previous.ID, true).
			Update("is_active", false)

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: token already superseded", ErrConflict)
		}

		var err error
		token, err = storeToken(tx, previous.UserID, set)
		return err
	})

	if err != nil {
		return model.UserToken{}, fmt.Errorf("failed to replace token: %w", translateDBError(err))
	}

	return token, nil
}

func (us *UserService) FindActiveToken(ctx context.Context, accessToken string) (model.UserToken, error) {
	return us.findActiveToken(ctx, "access_token = ?", accessToken)
}

func (us *UserService) FindActiveTokenByRefresh(ctx context.Context, refreshToken string) (model.UserToken, error) {
	return us.findActiveToken(ctx, "refresh_token = ?", refreshToken)
}

func (us *UserService) DeactivateTokens(ctx context.Context, userID uint) (int64, error) {
	res := us.database.WithContext(ctx).
		Model(&model.UserToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)

	if res.Error != nil {
		return 0, fmt.Errorf("failed to deactivate tokens of user %d: %w", userID, res.Error)
	}

	return res.RowsAffected, nil
}

func (us *UserService) findActiveToken(ctx context.Context, where string, value string) (model.UserToken, error) {
	var token model.UserToken

	if value == "" {
		return token, fmt.Errorf("token: %w", ErrNotFound)
	}

	err := us.database.WithContext(ctx).
		Where(where+" AND is_active = ?", value, true).
		Order("id DESC").
		First(&token).Error

	if err != nil {
		return model.UserToken{}, fmt.Errorf("token: %w", translateDBError(err))
	}

	return token, nil
}

func storeToken(tx *gorm.DB, userID uint, set TokenSet) (model.UserToken, error) {
	err := tx.Model(&model.UserToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error

	if err != nil {
		return model.UserToken{}, err
	}

	token := model.UserToken{
		UserID:             userID,
		AccessToken:        set.AccessToken,
		RefreshToken:       set.RefreshToken,
		TokenType:          set.TokenType,
		ExpiresIn:          set.ExpiresIn,
		Scope:              set.Scope,
		IDToken:            set.IDToken,
		CreatedAtTimestamp: set.CreatedAt,
		IsActive:           true,
	}

	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}

	return token, tx.Create(&token).Error
}
