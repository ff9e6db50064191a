package services

import (
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) bool
}

type authService struct {
	cost int
}

// NewAuthService returns a bcrypt-based service; cost 0 means bcrypt.DefaultCost.
func NewAuthService(cost int) AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &authService{cost: cost}
}

func (s *authService) HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *authService) CheckPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
