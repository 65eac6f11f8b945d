package jwt

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jhoicas/maxigas/pkg/clock"
)

// Valores por defecto del token de sesión.
const (
	DefaultTTL         = 24 * time.Hour
	DefaultRenewBefore = time.Hour
)

// Subject datos del usuario que viajan en el token.
type Subject struct {
	UserID int64
	Email  string
	Role   string
}

// Claims payload del token de sesión. iat y exp van en milisegundos epoch, igual que el
// formato que ya guardaban las pestañas.
type Claims struct {
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"rol"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

var _ jwt.Claims = Claims{}

// ExpiresAtTime expiración como time.Time.
func (c Claims) ExpiresAtTime() time.Time { return time.UnixMilli(c.ExpiresAt) }

// IssuedAtTime emisión como time.Time.
func (c Claims) IssuedAtTime() time.Time { return time.UnixMilli(c.IssuedAt) }

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(c.ExpiresAtTime()), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(c.IssuedAtTime()), nil
}

func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return "", nil }
func (c Claims) GetSubject() (string, error)             { return fmt.Sprintf("%d", c.UserID), nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// Service emite y verifica tokens de sesión firmados con HMAC-SHA256.
// La expiración se controla con el Clock inyectado, no con el reloj de golang-jwt.
type Service struct {
	secret      []byte
	ttl         time.Duration
	renewBefore time.Duration
	clock       clock.Clock
}

// Option ajusta el Service.
type Option func(*Service)

// WithTTL cambia la vida útil del token.
func WithTTL(d time.Duration) Option { return func(s *Service) { s.ttl = d } }

// WithRenewBefore cambia la ventana en que el token se considera próximo a expirar.
func WithRenewBefore(d time.Duration) Option { return func(s *Service) { s.renewBefore = d } }

// WithClock inyecta el reloj.
func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

// NewService construye el servicio. El secreto es obligatorio.
func NewService(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	s := &Service{
		secret:      []byte(secret),
		ttl:         DefaultTTL,
		renewBefore: DefaultRenewBefore,
		clock:       clock.Real(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.ttl <= 0 {
		return nil, fmt.Errorf("jwt: ttl debe ser positivo")
	}
	return s, nil
}

// Issue genera un token firmado para el sujeto con exp = ahora + TTL.
func (s *Service) Issue(sub Subject) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		UserID:    sub.UserID,
		Email:     sub.Email,
		Role:      sub.Role,
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: now.Add(s.ttl).UnixMilli(),
	}
	return s.sign(claims)
}

func (s *Service) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: firmar token: %w", err)
	}
	return signed, nil
}

// Verify valida estructura, firma y expiración. Un token malformado, adulterado o expirado
// se reporta igual que la ausencia de token: (nil, false).
func (s *Service) Verify(tokenString string) (*Claims, bool) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, false
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, false
	}
	if s.clock.Now().UnixMilli() > claims.ExpiresAt {
		return nil, false
	}
	return &claims, true
}

// NearExpiry indica si al token le queda menos que la ventana de renovación.
func (s *Service) NearExpiry(c *Claims) bool {
	if c == nil {
		return false
	}
	return c.ExpiresAt-s.clock.Now().UnixMilli() < s.renewBefore.Milliseconds()
}

// TTL vida útil configurada.
func (s *Service) TTL() time.Duration { return s.ttl }
