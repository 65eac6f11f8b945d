package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
)

// Claves del área privada de la pestaña. Nunca disparan sincronización entre pestañas.
const (
	KeySessionToken = "session_token"
	KeyCurrentUser  = "current_user"
	cartKeyPrefix   = "cart_"
)

// CartKey clave del carrito del usuario en el área privada.
func CartKey(userID int64) string {
	return cartKeyPrefix + strconv.FormatInt(userID, 10)
}

// TabArea acceso tipado al almacenamiento privado de una pestaña.
type TabArea struct {
	st  storage.Storage
	log zerolog.Logger
}

// NewTabArea construye el área sobre el almacenamiento privado st.
func NewTabArea(st storage.Storage, log zerolog.Logger) *TabArea {
	return &TabArea{st: st, log: log}
}

// Token devuelve el token de sesión guardado ("" si no hay).
func (a *TabArea) Token(ctx context.Context) (string, error) {
	v, _, err := a.st.GetItem(ctx, KeySessionToken)
	return v, err
}

func (a *TabArea) SaveToken(ctx context.Context, token string) error {
	return a.st.SetItem(ctx, KeySessionToken, token)
}

func (a *TabArea) RemoveToken(ctx context.Context) error {
	return a.st.RemoveItem(ctx, KeySessionToken)
}

// CurrentUser copia cacheada del usuario de la sesión; nil si no hay o está corrupta.
func (a *TabArea) CurrentUser(ctx context.Context) (*entity.User, error) {
	raw, ok, err := a.st.GetItem(ctx, KeyCurrentUser)
	if err != nil || !ok {
		return nil, err
	}
	var u entity.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		a.log.Warn().Err(err).Msg("usuario en caché corrupto, se descarta")
		return nil, nil
	}
	return &u, nil
}

func (a *TabArea) SaveCurrentUser(ctx context.Context, u *entity.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("serializar usuario: %w", err)
	}
	return a.st.SetItem(ctx, KeyCurrentUser, string(raw))
}

func (a *TabArea) RemoveCurrentUser(ctx context.Context) error {
	return a.st.RemoveItem(ctx, KeyCurrentUser)
}

// Cart ítems del carrito del usuario. Vacío si no existe o está corrupto.
func (a *TabArea) Cart(ctx context.Context, userID int64) ([]entity.CartItem, error) {
	raw, ok, err := a.st.GetItem(ctx, CartKey(userID))
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []entity.CartItem{}, nil
	}
	var items []entity.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		a.log.Warn().Err(err).Int64("userId", userID).Msg("carrito corrupto, se trata como vacío")
		return []entity.CartItem{}, nil
	}
	if items == nil {
		items = []entity.CartItem{}
	}
	return items, nil
}

func (a *TabArea) SaveCart(ctx context.Context, userID int64, items []entity.CartItem) error {
	if items == nil {
		items = []entity.CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("serializar carrito: %w", err)
	}
	return a.st.SetItem(ctx, CartKey(userID), string(raw))
}

func (a *TabArea) ClearCart(ctx context.Context, userID int64) error {
	return a.st.RemoveItem(ctx, CartKey(userID))
}
