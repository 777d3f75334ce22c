package admin

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"tessera/access"
	"tessera/models"
)

var ErrUserNotFound = errors.New("user not found")

func findUser(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return &user, err
}

// GrantAdmin adds the admin role to the user with the given email. It
// reports false when the user already had it.
func GrantAdmin(db *gorm.DB, email string) (bool, error) {
	user, err := findUser(db, email)
	if err != nil {
		return false, err
	}
	roles := user.RoleList()
	for _, r := range roles {
		if r == access.RoleAdmin {
			return false, nil
		}
	}
	roles = append(roles, access.RoleAdmin)
	if err := db.Model(user).Update("roles", strings.Join(roles, ",")).Error; err != nil {
		return false, err
	}
	return true, nil
}

func ChangePassword(db *gorm.DB, email, password string) error {
	if password == "" {
		return errors.New("password must not be empty")
	}
	user, err := findUser(db, email)
	if err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return db.Model(user).Update("password_hash", hash).Error
}
