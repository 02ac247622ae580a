package auth

import (
	"gorm.io/gorm"

	authEntity "remanerp/model/entity/auth"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// FindActiveToken returns the token row if it exists and is not revoked.
func (r *AuthRepository) FindActiveToken(token string) (*authEntity.ApiToken, error) {
	var t authEntity.ApiToken
	err := r.db.Where("token = ? AND revoked = ?", token, false).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}
