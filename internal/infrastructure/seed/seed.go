// Package seed carga los datos iniciales de la tienda (usuarios de sistema, categorías y
// catálogo) en las colecciones compartidas que estén vacías.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/infrastructure/localstore"
	"github.com/jhoicas/maxigas/pkg/clock"
)

// Data contenido de un archivo de semilla.
type Data struct {
	Users      []User     `yaml:"usuarios"`
	Categories []Category `yaml:"categorias"`
	Products   []Product  `yaml:"productos"`
}

// User usuario de semilla; Password va en texto plano y se guarda con bcrypt.
type User struct {
	ID        int64  `yaml:"id"`
	FirstName string `yaml:"nombre"`
	LastName  string `yaml:"apellidos"`
	Rut       string `yaml:"rut"`
	BirthDate string `yaml:"fechaNacimiento"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Phone     string `yaml:"telefono"`
	Role      string `yaml:"rol"`
	Available *bool  `yaml:"disponible"`
}

// Category categoría de semilla.
type Category struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"nombre"`
	Description string `yaml:"descripcion"`
}

// Product producto de semilla. Precio en pesos enteros.
type Product struct {
	ID            int64  `yaml:"id"`
	Name          string `yaml:"nombre"`
	Category      string `yaml:"categoria"`
	Description   string `yaml:"descripcion"`
	Price         int64  `yaml:"precio"`
	Stock         int    `yaml:"stock"`
	CriticalStock int    `yaml:"stockCritico"`
	Image         string `yaml:"imagen"`
}

// Result cuántos registros se insertaron por colección.
type Result struct {
	Users      int
	Categories int
	Products   int
}

// Load decodifica un documento YAML de semilla.
func Load(r io.Reader) (*Data, error) {
	var d Data
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decodificar semilla: %w", err)
	}
	return &d, nil
}

// LoadFile lee path. charset "latin1"/"iso-8859-1" convierte el archivo a UTF-8 antes de decodificar.
func LoadFile(path, charset string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
	case "latin1", "iso-8859-1", "iso8859-1":
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	default:
		return nil, fmt.Errorf("charset no soportado: %q", charset)
	}
	return Load(r)
}

// Default datos con los que parte una tienda nueva.
func Default() *Data {
	available := true
	return &Data{
		Users: []User{
			{
				ID: 9001, FirstName: "Administrador", LastName: "Sistema", Rut: "11.111.111-1",
				BirthDate: "1990-01-01", Email: "admin@maxigas.cl", Password: "Admin123",
				Phone: "+56912345678", Role: entity.RoleAdmin,
			},
			{
				ID: 9002, FirstName: "Juan", LastName: "Pérez", Rut: "22.222.222-2",
				BirthDate: "1995-01-01", Email: "repartidor@maxigas.cl", Password: "Repartidor123",
				Phone: "+56987654321", Role: entity.RoleRepartidor, Available: &available,
			},
		},
		Categories: []Category{
			{ID: 1, Name: "Gas Licuado", Description: "Cilindros de gas para uso doméstico"},
			{ID: 2, Name: "Accesorios", Description: "Accesorios y repuestos para gas"},
		},
		Products: []Product{
			{
				ID: 1, Name: "Cilindro 5 kg", Category: "Gas Licuado", Description: "Ideal para hogares pequeños",
				Price: 8990, Stock: 50, CriticalStock: 10,
				Image: "https://via.placeholder.com/300x300/FF6B6B/FFFFFF?text=5kg",
			},
			{
				ID: 2, Name: "Cilindro 11 kg", Category: "Gas Licuado", Description: "El más popular para uso doméstico",
				Price: 16990, Stock: 100, CriticalStock: 20,
				Image: "https://via.placeholder.com/300x300/4ECDC4/FFFFFF?text=11kg",
			},
			{
				ID: 3, Name: "Cilindro 15 kg", Category: "Gas Licuado", Description: "Mayor rendimiento y duración",
				Price: 22990, Stock: 75, CriticalStock: 15,
				Image: "https://via.placeholder.com/300x300/45B7D1/FFFFFF?text=15kg",
			},
		},
	}
}

// Seeder aplica datos de semilla sobre un Store.
type Seeder struct {
	store *localstore.Store
	clock clock.Clock
	log   zerolog.Logger
	cost  int
}

// Option ajusta el Seeder.
type Option func(*Seeder)

// WithBcryptCost costo de bcrypt para las contraseñas (tests usan bcrypt.MinCost).
func WithBcryptCost(cost int) Option { return func(s *Seeder) { s.cost = cost } }

// NewSeeder construye el Seeder.
func NewSeeder(store *localstore.Store, clk clock.Clock, log zerolog.Logger, opts ...Option) *Seeder {
	s := &Seeder{store: store, clock: clk, log: log, cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Apply inserta cada colección de d solo si la colección compartida está vacía.
func (s *Seeder) Apply(ctx context.Context, d *Data) (Result, error) {
	var res Result
	var err error
	if res.Users, err = s.users(ctx, d.Users); err != nil {
		return res, fmt.Errorf("semilla usuarios: %w", err)
	}
	if res.Categories, err = s.categories(ctx, d.Categories); err != nil {
		return res, fmt.Errorf("semilla categorías: %w", err)
	}
	if res.Products, err = s.products(ctx, d.Products); err != nil {
		return res, fmt.Errorf("semilla productos: %w", err)
	}
	s.log.Info().Int("usuarios", res.Users).Int("categorias", res.Categories).Int("productos", res.Products).
		Msg("semilla aplicada")
	return res, nil
}

func (s *Seeder) users(ctx context.Context, in []User) (int, error) {
	existing, err := s.store.Users.List(ctx)
	if err != nil || len(existing) > 0 {
		return 0, err
	}
	now := s.clock.Now().UTC()
	for _, u := range in {
		if !entity.ValidRole(u.Role) {
			return 0, fmt.Errorf("rol inválido %q para %s", u.Role, u.Email)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
		if err != nil {
			return 0, err
		}
		id := u.ID
		if id == 0 {
			if id, err = s.store.Users.NextID(ctx); err != nil {
				return 0, err
			}
		}
		user := &entity.User{
			ID:           id,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Rut:          u.Rut,
			BirthDate:    u.BirthDate,
			Email:        u.Email,
			PasswordHash: string(hash),
			Phone:        u.Phone,
			RegisteredAt: now,
			Role:         u.Role,
			Photo:        entity.DefaultPhoto,
		}
		if u.Role == entity.RoleRepartidor {
			user.Available = u.Available
		}
		if err := s.store.Users.Create(ctx, user); err != nil {
			return 0, err
		}
	}
	return len(in), nil
}

func (s *Seeder) categories(ctx context.Context, in []Category) (int, error) {
	existing, err := s.store.Categories.List(ctx)
	if err != nil || len(existing) > 0 {
		return 0, err
	}
	for _, c := range in {
		id := c.ID
		if id == 0 {
			if id, err = s.store.Categories.NextID(ctx); err != nil {
				return 0, err
			}
		}
		if err := s.store.Categories.Create(ctx, &entity.Category{ID: id, Name: c.Name, Description: c.Description}); err != nil {
			return 0, err
		}
	}
	return len(in), nil
}

func (s *Seeder) products(ctx context.Context, in []Product) (int, error) {
	existing, err := s.store.Products.List(ctx)
	if err != nil || len(existing) > 0 {
		return 0, err
	}
	for _, p := range in {
		if p.Price < 0 || p.Stock < 0 {
			return 0, fmt.Errorf("producto %q: precio y stock no pueden ser negativos", p.Name)
		}
		id := p.ID
		if id == 0 {
			if id, err = s.store.Products.NextID(ctx); err != nil {
				return 0, err
			}
		}
		product := &entity.Product{
			ID:            id,
			Name:          p.Name,
			Category:      p.Category,
			Description:   p.Description,
			Price:         decimal.NewFromInt(p.Price),
			Stock:         p.Stock,
			CriticalStock: p.CriticalStock,
			Image:         p.Image,
		}
		product.SyncStatus()
		if err := s.store.Products.Create(ctx, product); err != nil {
			return 0, err
		}
	}
	return len(in), nil
}
