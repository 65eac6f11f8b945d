package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	Storage StorageConfig
	DB      DBConfig
	JWT     JWTConfig
	Session SessionConfig
	Shop    ShopConfig
	HTTP    HTTPConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// Drivers de almacenamiento compartido soportados.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// StorageConfig selecciona el backend del almacenamiento compartido entre pestañas.
type StorageConfig struct {
	Driver      string // memory | postgres
	SeedOnStart bool   // carga datos iniciales si las colecciones están vacías
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración del token de sesión.
type JWTConfig struct {
	Secret      string
	Expiration  int // minutos
	RenewWindow int // minutos antes de expirar en que se renueva
}

// TTL duración del token.
func (c JWTConfig) TTL() time.Duration { return time.Duration(c.Expiration) * time.Minute }

// RenewBefore ventana de renovación.
func (c JWTConfig) RenewBefore() time.Duration { return time.Duration(c.RenewWindow) * time.Minute }

// SessionConfig parámetros del coordinador de sesión por pestaña.
type SessionConfig struct {
	RenewIntervalSeconds int
	TabIdleMinutes       int // 0 desactiva el cierre por inactividad
	MaxTabs              int // 0 sin tope
}

// RenewInterval periodo del chequeo proactivo de renovación.
func (c SessionConfig) RenewInterval() time.Duration {
	return time.Duration(c.RenewIntervalSeconds) * time.Second
}

// TabIdleTTL inactividad tras la cual se cierra una pestaña.
func (c SessionConfig) TabIdleTTL() time.Duration {
	return time.Duration(c.TabIdleMinutes) * time.Minute
}

// ShopConfig reglas comerciales de la tienda.
type ShopConfig struct {
	ShippingFee int64 // costo de envío en CLP
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, STORAGE_DRIVER, JWT_SECRET, etc.
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDB lee solo lo necesario para herramientas que hablan directo con la base (sin validar JWT).
func LoadDB() (AppConfig, DBConfig) {
	cfg := read()
	return cfg.App, cfg.DB
}

func read() *Config {
	// .env al entorno del proceso; si no existe no es error
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "maxigas"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getString(v, "STORAGE_DRIVER", StorageMemory)),
			SeedOnStart: getBool(v, "SEED_ON_START", true),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "maxigas"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:      getString(v, "JWT_SECRET", ""),
			Expiration:  getInt(v, "JWT_EXPIRATION_MINUTES", 24*60),
			RenewWindow: getInt(v, "JWT_RENEW_WINDOW_MINUTES", 60),
		},
		Session: SessionConfig{
			RenewIntervalSeconds: getInt(v, "SESSION_RENEW_INTERVAL_SECONDS", 300),
			TabIdleMinutes:       getInt(v, "SESSION_TAB_IDLE_MINUTES", 30),
			MaxTabs:              getInt(v, "SESSION_MAX_TABS", 1000),
		},
		Shop: ShopConfig{
			ShippingFee: int64(getInt(v, "SHOP_SHIPPING_FEE", 2990)),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
	}
	return cfg
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET es obligatorio")
	}
	if c.Storage.Driver != StorageMemory && c.Storage.Driver != StoragePostgres {
		return fmt.Errorf("config: STORAGE_DRIVER desconocido %q", c.Storage.Driver)
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("config: JWT_EXPIRATION_MINUTES debe ser positivo")
	}
	if c.Session.RenewIntervalSeconds <= 0 {
		return fmt.Errorf("config: SESSION_RENEW_INTERVAL_SECONDS debe ser positivo")
	}
	// el chequeo periódico tiene que caer dentro de la ventana o el token vence sin renovarse
	if c.Session.RenewInterval() >= c.JWT.RenewBefore() {
		return fmt.Errorf("config: SESSION_RENEW_INTERVAL_SECONDS debe ser menor que JWT_RENEW_WINDOW_MINUTES")
	}
	if c.Session.TabIdleMinutes < 0 || c.Session.MaxTabs < 0 {
		return fmt.Errorf("config: SESSION_TAB_IDLE_MINUTES y SESSION_MAX_TABS no pueden ser negativos")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
