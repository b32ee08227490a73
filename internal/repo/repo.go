package repo

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Stephen-Salano/Spring-Security-example/internal/tokens"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrConflict      = errors.New("username or email already taken")
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenExpired  = errors.New("refresh token is expired")
)

type GormRepo struct {
	DB         *gorm.DB
	Codec      *tokens.Codec
	RefreshTTL time.Duration
}
