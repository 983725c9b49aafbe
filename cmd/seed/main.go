// Seeds a batch of unused access codes, for bootstrapping a fresh environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"immersive-english/internal/config"
	"immersive-english/internal/domain/model"
	pg "immersive-english/internal/infra/db/postgres"
	"immersive-english/internal/infra/logging"
	"immersive-english/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	count := flag.Int("n", 50, "number of codes to generate")
	kind := flag.String("kind", "standard", "code kind: standard|trial")
	validDays := flag.Int("valid-days", 0, "trial validity in days (trial kind only)")
	expiresIn := flag.Duration("expires-in", 0, "optional pool expiry, e.g. 720h (0 = never)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	adminUC := usecase.NewCodeAdminUseCase(pg.NewAccessCodeRepo(pool), logger)

	var days *int
	if *validDays > 0 {
		days = validDays
	}
	var expiresAt *time.Time
	if *expiresIn > 0 {
		t := time.Now().Add(*expiresIn)
		expiresAt = &t
	}

	codes, err := adminUC.GenerateBatch(ctx, *count, model.CodeKind(*kind), days, expiresAt)
	if err != nil {
		log.Fatalf("generate codes: %v", err)
	}

	fmt.Printf("generated %d %s codes:\n", len(codes), *kind)
	for _, c := range codes {
		fmt.Printf("  %s\n", c.Code)
	}
}
