// Package main provides the statblock import binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/app"
	"github.com/cory-johannsen/pf2e-toolbox/internal/config"
	"github.com/cory-johannsen/pf2e-toolbox/internal/importer"
	"github.com/cory-johannsen/pf2e-toolbox/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and TOOLBOX_ env")
	format := flag.String("format", "yaml", "source format: yaml or json")
	sourceDir := flag.String("source", "", "path to the statblock directory")
	folder := flag.String("folder", "", "folder receiving the statblocks; empty stores at the top level")
	flag.Parse()

	if *sourceDir == "" {
		fmt.Fprintln(os.Stderr, "usage: import-content -source <dir> [-format yaml|json] [-folder <name>]")
		os.Exit(1)
	}
	src, err := importer.SourceFor(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v (supported: yaml, json)\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	rt, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening runtime", zap.Error(err))
	}
	defer rt.Close()

	sum, err := rt.Importer(src).Run(ctx, *sourceDir, *folder)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	fmt.Printf("import complete: %d created, %d replaced in %s\n",
		sum.Created, sum.Replaced, time.Since(start).Round(time.Millisecond))
}
