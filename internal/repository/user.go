package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Payphone-Digital/locatory/internal/model"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotificationNotFound is returned when a user has no notification with
// the requested id.
var ErrNotificationNotFound = errors.New("notification not found")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByID")

	start := time.Now()
	var user model.User
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "Failed to get user by ID").
			Uint("target_user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		Uint("target_user_id", id).
		Duration(duration).
		Log()
	return &user, nil
}

// GetByEmail finds user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByEmail")

	start := time.Now()
	var user model.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "Failed to get user by email").
			String("email", email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}
	return &user, nil
}

// GetByResetToken finds the user holding an unexpired reset token hash.
func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByResetToken")

	var user model.User
	err := r.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expire > ?", tokenHash, now).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Create")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		Uint("target_user_id", user.ID).
		Duration(duration).
		Log()
	return nil
}

// Update writes the given columns; a missing user yields
// gorm.ErrRecordNotFound.
func (r *UserRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Update")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user").
			Uint("target_user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to update").
			Uint("target_user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.DebugWithContext(ctx, "User updated successfully").
		Uint("target_user_id", id).
		Int("fields", len(fields)).
		Duration(duration).
		Log()
	return nil
}

// UpdatePassword updates user password and clears any pending reset token
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return r.Update(ctx, id, map[string]any{
		"password":              hashedPassword,
		"reset_password_token":  nil,
		"reset_password_expire": nil,
	})
}

// UpdateLastLogin updates the last login timestamp
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint) error {
	return r.Update(ctx, id, map[string]any{"last_login": time.Now()})
}

// UpdateRefreshToken stores the refresh token hash and expiry; an empty
// hash clears them.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id uint, refreshTokenHash string, expiresAt *time.Time) error {
	var hash any = refreshTokenHash
	if refreshTokenHash == "" {
		hash = nil
	}
	return r.Update(ctx, id, map[string]any{
		"refresh_token_hash":       hash,
		"refresh_token_expires_at": expiresAt,
	})
}

// SetResetToken stores a reset token hash that expires at expire.
func (r *UserRepository) SetResetToken(ctx context.Context, id uint, tokenHash string, expire time.Time) error {
	return r.Update(ctx, id, map[string]any{
		"reset_password_token":  tokenHash,
		"reset_password_expire": expire,
	})
}

// IncrementTokenVersion invalidates every token issued so far.
func (r *UserRepository) IncrementTokenVersion(ctx context.Context, id uint) error {
	return r.Update(ctx, id, map[string]any{
		"token_version":            gorm.Expr("token_version + 1"),
		"refresh_token_hash":       nil,
		"refresh_token_expires_at": nil,
	})
}

// AddNotification appends n to the user's notification list in one
// statement.
func (r *UserRepository) AddNotification(ctx context.Context, userID uint, n model.Notification) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "AddNotification")

	data, err := json.Marshal([]model.Notification{n})
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("notifications", gorm.Expr("notifications || ?::jsonb", string(data)))
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to add notification").
			Uint("target_user_id", userID).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkNotificationRead flags one notification as read under a row lock.
func (r *UserRepository) MarkNotificationRead(ctx context.Context, userID uint, notificationID string) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "MarkNotificationRead")

	var user model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}

		found := false
		for i := range user.Notifications {
			if user.Notifications[i].ID == notificationID {
				user.Notifications[i].Read = true
				found = true
				break
			}
		}
		if !found {
			return ErrNotificationNotFound
		}

		return tx.Model(&model.User{}).Where("id = ?", userID).
			Update("notifications", user.Notifications).Error
	})
	if err != nil {
		logger.DebugWithContext(ctx, "Failed to mark notification read").
			Uint("target_user_id", userID).
			String("notification_id", notificationID).
			Err(err).
			Log()
		return nil, err
	}
	return &user, nil
}

// TrimNotifications keeps only the newest max notifications.
func (r *UserRepository) TrimNotifications(ctx context.Context, userID uint, max int) error {
	if max <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE users SET notifications = (
			SELECT COALESCE(jsonb_agg(n ORDER BY ord), '[]'::jsonb) FROM (
				SELECT n, ord FROM jsonb_array_elements(notifications) WITH ORDINALITY AS t(n, ord)
				ORDER BY ord DESC LIMIT ?
			) newest
		) WHERE id = ? AND jsonb_array_length(notifications) > ?`,
		max, userID, max).Error
}

// UserColumns are the user fields list queries may filter, select or sort
// on. Secrets are deliberately absent.
var UserColumns = query.Columns{
	"id":        "id",
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"address":   "address",
	"photo":     "photo",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

var defaultUserSelect = []string{"id", "name", "email", "role", "address", "photo", "created_at"}

// UserFinder runs list queries against the users table.
type UserFinder struct {
	db *gorm.DB
}

func NewUserFinder(db *gorm.DB) *UserFinder {
	return &UserFinder{db: db}
}

func (f *UserFinder) Count(ctx context.Context, filter query.Filter) (int64, error) {
	db, err := query.ApplyGormFilter(f.db.WithContext(ctx).Model(&model.User{}), filter, UserColumns)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (f *UserFinder) Find(ctx context.Context, spec *query.Spec, _ ...query.Populate) ([]map[string]any, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "UserFinder.Find")

	db := f.db.WithContext(ctx).Model(&model.User{})
	if len(spec.Select) == 0 {
		db = db.Select(defaultUserSelect)
	}
	db, err := query.ApplyGorm(db, spec, UserColumns)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var rows []map[string]any
	if err := db.Find(&rows).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to list users").Err(err).Log()
		return nil, err
	}
	logger.DebugWithContext(ctx, "Users listed").
		Int("count", len(rows)).
		Duration(time.Since(start)).
		Log()
	return rows, nil
}
