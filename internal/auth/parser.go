package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/greenhangar/ghe-billing/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the access-token payload issued by the external auth provider.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(raw string) (model.Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Principal{}, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: user_id", ErrInvalidToken)
	}

	role := model.UserRole(strings.ToUpper(strings.TrimSpace(claims.Role)))
	switch role {
	case model.UserRoleAdmin, model.UserRoleContractor, model.UserRoleSubcontractor:
	default:
		return model.Principal{}, fmt.Errorf("%w: role", ErrInvalidToken)
	}

	return model.Principal{
		UserID: userID,
		Email:  claims.Email,
		Role:   role,
	}, nil
}

// Sign issues an HS256 token; used by tooling and tests, production tokens come from the auth service.
func (p *Parser) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}
