package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/pkg/jwt"
)

// SessionStore área privada de la pestaña donde viven el token y la copia del usuario.
type SessionStore interface {
	Token(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	RemoveToken(ctx context.Context) error
	CurrentUser(ctx context.Context) (*entity.User, error)
	SaveCurrentUser(ctx context.Context, u *entity.User) error
	RemoveCurrentUser(ctx context.Context) error
}

// TokenVault emite, guarda y renueva el token de sesión de una pestaña.
type TokenVault struct {
	tokens *jwt.Service
	store  SessionStore
	log    zerolog.Logger
}

// NewTokenVault construye el vault sobre el área privada store.
func NewTokenVault(tokens *jwt.Service, store SessionStore, log zerolog.Logger) *TokenVault {
	return &TokenVault{tokens: tokens, store: store, log: log}
}

// Save emite un token para u y sobrescribe el guardado.
func (v *TokenVault) Save(ctx context.Context, u *entity.User) (string, error) {
	token, err := v.tokens.Issue(subjectOf(u))
	if err != nil {
		return "", fmt.Errorf("emitir token: %w", err)
	}
	if err := v.store.SaveToken(ctx, token); err != nil {
		return "", fmt.Errorf("guardar token: %w", err)
	}
	return token, nil
}

// Load devuelve los claims del token guardado. Ausente, mal formado, adulterado o vencido
// son lo mismo: ok=false.
func (v *TokenVault) Load(ctx context.Context) (*jwt.Claims, bool) {
	token, err := v.store.Token(ctx)
	if err != nil {
		v.log.Warn().Err(err).Msg("no se pudo leer el token de sesión")
		return nil, false
	}
	if token == "" {
		return nil, false
	}
	return v.tokens.Verify(token)
}

// Raw token guardado tal cual ("" si no hay).
func (v *TokenVault) Raw(ctx context.Context) (string, error) {
	return v.store.Token(ctx)
}

// Remove descarta el token.
func (v *TokenVault) Remove(ctx context.Context) error {
	return v.store.RemoveToken(ctx)
}

// RenewIfNeeded si el token vigente está por vencer, emite uno nuevo para u.
func (v *TokenVault) RenewIfNeeded(ctx context.Context, u *entity.User) (bool, error) {
	claims, ok := v.Load(ctx)
	if !ok || !v.tokens.NearExpiry(claims) {
		return false, nil
	}
	if _, err := v.Save(ctx, u); err != nil {
		return false, err
	}
	v.log.Info().Int64("id", u.ID).Msg("token renovado")
	return true, nil
}

func subjectOf(u *entity.User) jwt.Subject {
	return jwt.Subject{UserID: u.ID, Email: u.Email, Role: u.Role}
}
