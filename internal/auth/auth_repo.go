package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/spikeup/spikeup-api/internal/user"
)

// AuthRepository defines data operations for accounts and refresh tokens.
type AuthRepository interface {
	CreateUser(u *user.User) error
	GetUserByID(id uint) (*user.User, error)
	GetUserByEmail(email string) (*user.User, error)
	GetUserByUsername(username string) (*user.User, error)

	SaveRefreshToken(userID uint, token string, expiresAt time.Time) error
	GetRefreshToken(token string) (*user.RefreshToken, error)
	DeleteRefreshToken(token string) error
	DeleteRefreshTokensForUser(userID uint) error
}

type authRepository struct {
	db *gorm.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *gorm.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) CreateUser(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *authRepository) GetUserByID(id uint) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *authRepository) GetUserByEmail(email string) (*user.User, error) {
	var u user.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *authRepository) GetUserByUsername(username string) (*user.User, error) {
	var u user.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *authRepository) SaveRefreshToken(userID uint, token string, expiresAt time.Time) error {
	rt := user.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	return r.db.Create(&rt).Error
}

func (r *authRepository) GetRefreshToken(token string) (*user.RefreshToken, error) {
	var rt user.RefreshToken
	if err := r.db.Where("token = ?", token).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

func (r *authRepository) DeleteRefreshToken(token string) error {
	return r.db.Unscoped().Where("token = ?", token).Delete(&user.RefreshToken{}).Error
}

func (r *authRepository) DeleteRefreshTokensForUser(userID uint) error {
	return r.db.Unscoped().Where("user_id = ?", userID).Delete(&user.RefreshToken{}).Error
}
