// seed carga datos iniciales en el almacenamiento compartido PostgreSQL. Solo se escriben las
// colecciones que están vacías; las pestañas abiertas en otros procesos reciben el aviso.
//
// Uso: go run ./cmd/seed [-f semilla.yaml] [--charset latin1] [--dry-run]
// Sin -f se cargan los datos por defecto (admin, repartidor, categorías y cilindros).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/maxigas/internal/infrastructure/localstore"
	"github.com/jhoicas/maxigas/internal/infrastructure/postgres"
	"github.com/jhoicas/maxigas/internal/infrastructure/seed"
	"github.com/jhoicas/maxigas/pkg/clock"
	"github.com/jhoicas/maxigas/pkg/config"
	"github.com/jhoicas/maxigas/pkg/logger"
)

func main() {
	var (
		file    string
		charset string
		dryRun  bool
		cost    int
	)
	flags := pflag.NewFlagSet("seed", pflag.ExitOnError)
	flags.StringVarP(&file, "file", "f", "", "archivo YAML con usuarios, categorías y productos")
	flags.StringVar(&charset, "charset", "utf-8", "codificación del archivo (utf-8 | latin1)")
	flags.BoolVar(&dryRun, "dry-run", false, "muestra los datos a cargar sin escribir")
	flags.IntVar(&cost, "bcrypt-cost", bcrypt.DefaultCost, "costo bcrypt de las contraseñas")
	_ = flags.Parse(os.Args[1:])

	data := seed.Default()
	if file != "" {
		var err error
		if data, err = seed.LoadFile(file, charset); err != nil {
			fmt.Fprintf(os.Stderr, "Leer semilla: %v\n", err)
			os.Exit(1)
		}
	}

	if dryRun {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			fmt.Fprintf(os.Stderr, "Mostrar semilla: %v\n", err)
			os.Exit(1)
		}
		return
	}

	app, dbCfg := config.LoadDB()
	log := logger.New(logger.Config{Env: app.Env, Level: app.LogLevel, Service: app.Name + "-seed"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema kv_store")
	}

	clk := clock.Real()
	hub := postgres.NewKVHub(pool, log.Component("kv_hub"))
	store := localstore.NewStore(hub.Tab("seed-"+uuid.NewString()), localstore.NewIDGenerator(clk), log.Component("localstore"))

	res, err := seed.NewSeeder(store, clk, log.Component("seed"), seed.WithBcryptCost(cost)).Apply(ctx, data)
	if err != nil {
		log.Fatal().Err(err).Msg("aplicar semilla")
	}
	fmt.Printf("Usuarios: %d, categorías: %d, productos: %d\n", res.Users, res.Categories, res.Products)
}
