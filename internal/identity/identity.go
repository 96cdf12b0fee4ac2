// Package identity resolves user accounts and notification recipients.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
)

// ErrUserNotFound is returned when a user cannot be resolved. Inactive
// and soft deleted accounts resolve the same way as missing ones.
var ErrUserNotFound = errors.New("user not found")

// Directory looks up users and their notification addresses.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a new user directory backed by db.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// Resolve returns the active user with the given id.
func (d *Directory) Resolve(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User

	err := d.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserNotFound
	}

	return &user, nil
}

// EmailsByRole returns the addresses of every active user holding the
// role. A role with no active users yields an empty slice, not an error.
func (d *Directory) EmailsByRole(ctx context.Context, role models.RoleID) ([]string, error) {
	var emails []string

	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("role_id = ? AND active = ?", role, true).
		Where("email <> ''").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query role emails: %w", err)
	}

	return emails, nil
}

// EmailFor resolves a user id stored as text, as stage slots keep it,
// to that user's address. Unresolvable ids yield an empty string.
func (d *Directory) EmailFor(ctx context.Context, idText string) string {
	id, err := strconv.ParseUint(idText, 10, 64)
	if err != nil {
		return ""
	}

	user, err := d.Resolve(ctx, id)
	if err != nil {
		return ""
	}

	return user.Email
}
