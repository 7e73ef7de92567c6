// Package main provides the NPC rescaler binary.
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
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/scaler"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/importer"
	"github.com/cory-johannsen/pf2e-toolbox/internal/observability"
	"github.com/cory-johannsen/pf2e-toolbox/internal/report"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/memory"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and TOOLBOX_ env")
	actorName := flag.String("actor", "", "name of the statblock to rescale (required)")
	level := flag.Int("level", 0, "target level for a single rescale")
	from := flag.Int("from", 0, "first level of a range rescale")
	to := flag.Int("to", 0, "last level of a range rescale")
	sourceDir := flag.String("source", "", "directory of statblock YAML files imported before rescaling")
	xlsxPath := flag.String("xlsx", "", "write the rescaled statblocks to this workbook")
	dryRun := flag.Bool("dry-run", false, "rescale in a scratch store and print the result as YAML")
	flag.Parse()

	single := isSet("level")
	ranged := isSet("from") || isSet("to")
	if *actorName == "" || single == ranged {
		fmt.Fprintln(os.Stderr, "usage: scaler -actor <name> (-level N | -from N -to M) [-source dir] [-xlsx out.xlsx] [-dry-run]")
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

	ctx, stop := app.SignalContext(context.Background())
	defer stop()

	rt, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening runtime", zap.Error(err))
	}
	defer rt.Close()

	if *sourceDir != "" {
		if _, err := rt.Importer(importer.YAMLSource{}).Run(ctx, *sourceDir, ""); err != nil {
			logger.Fatal("importing source", zap.Error(err))
		}
	}

	actor, err := rt.Actor(ctx, *actorName)
	if err != nil {
		logger.Fatal("resolving actor", zap.Error(err))
	}

	sc := rt.Scaler()
	if *dryRun {
		sc, actor, err = scratch(ctx, rt, actor)
		if err != nil {
			logger.Fatal("preparing dry run", zap.Error(err))
		}
	}

	var (
		results  []*statblock.StatBlock
		rangeErr error
	)
	if single {
		out, err := sc.Rescale(ctx, actor, *level)
		if err != nil {
			logger.Fatal("rescaling", zap.String("actor", actor.Name), zap.Error(err))
		}
		results = append(results, out)
	} else {
		results, rangeErr = sc.RescaleRange(ctx, actor, *from, *to)
		if rangeErr != nil {
			logger.Error("range rescale stopped", zap.Int("completed", len(results)), zap.Error(rangeErr))
		}
	}

	if *dryRun {
		for _, sb := range results {
			out, err := sb.EncodeYAML()
			if err != nil {
				logger.Fatal("encoding result", zap.Error(err))
			}
			fmt.Fprintf(os.Stdout, "---\n%s", out)
		}
	}
	if *xlsxPath != "" {
		if err := report.WriteWorkbook(*xlsxPath, results); err != nil {
			logger.Fatal("writing workbook", zap.Error(err))
		}
	}

	fmt.Fprintf(os.Stderr, "rescaled %s to %d level(s) [%s]\n",
		actor.Name, len(results), time.Since(start).Round(time.Millisecond))
	if rangeErr != nil {
		os.Exit(1)
	}
}

// scratch copies actor into a fresh memory store and returns a scaler over it.
func scratch(ctx context.Context, rt *app.Runtime, actor *statblock.StatBlock) (*scaler.Scaler, *statblock.StatBlock, error) {
	store := memory.NewStore()
	cp := *actor
	cp.ID, cp.Folder = "", ""
	stored, err := store.PutActor(ctx, &cp)
	if err != nil {
		return nil, nil, err
	}
	return scaler.New(rt.Tables, store, rt.Config.Scaler, nil, rt.Logger), stored, nil
}

func isSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
