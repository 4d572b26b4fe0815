// import carga materiales desde un libro XLSX al almacén configurado (STORE_DRIVER).
//
// Uso: go run ./cmd/import materiales.xlsx
// La primera hoja debe tener cabecera; la columna materialId es obligatoria.
// Los materiales ya existentes (mismo materialId) se omiten.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jhoicas/solar-inventario/internal/domain"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/store"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/xlsx"
	"github.com/jhoicas/solar-inventario/pkg/config"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: import <archivo.xlsx>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("abrir libro")
	}
	defer f.Close()

	materials, rowErrs, err := xlsx.ReadMaterials(f)
	if err != nil {
		log.Fatal().Err(err).Msg("leer libro")
	}
	for _, re := range rowErrs {
		log.Warn().Int("row", re.Row).Err(re.Err).Msg("fila omitida")
	}

	ctx := context.Background()
	repo, closeStore, err := store.OpenRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacén de materiales")
	}
	defer closeStore()

	var created, skipped, failed int
	for _, m := range materials {
		err := repo.Create(ctx, m)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
			log.Debug().Str("material_id", m.MaterialID).Msg("ya existe, omitido")
		default:
			failed++
			log.Error().Err(err).Str("material_id", m.MaterialID).Msg("no se pudo crear")
		}
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("failed", failed).
		Int("invalid_rows", len(rowErrs)).
		Msg("importación terminada")
	if failed > 0 {
		os.Exit(1)
	}
}
