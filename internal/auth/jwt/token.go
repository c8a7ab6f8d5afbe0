package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by platform session tokens. Tokens are issued by the
// account service; this service only validates them. Plan distinguishes
// free from paying users so the judge can honor priority scheduling.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Plan     string    `json:"plan"`
	jwt.RegisteredClaims
}

// Premium reports whether the session belongs to a paying user.
func (c *Claims) Premium() bool {
	return c.Plan == "pro" || c.Plan == "team"
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// ValidatorConfig holds session validation configuration.
type ValidatorConfig struct {
	Secret []byte
	Issuer string
}

// Validator parses and validates session tokens shared with the account service.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator creates a session token validator.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
	}
}

// Validate parses a token string and returns its claims.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Sign issues a token for the given claims. Production tokens come from the
// account service; this is used by local tooling and tests.
func (v *Validator) Sign(userID uuid.UUID, username, plan string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Plan:     plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
