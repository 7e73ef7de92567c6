// Package main provides the table-top helper binary: NPC rolls, group saves,
// secret skill checks, damage application, creature building, flattening,
// treasure, and party distributions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/pf2e-toolbox/internal/app"
	"github.com/cory-johannsen/pf2e-toolbox/internal/config"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/builder"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/loot"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/roller"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/scaler"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/observability"
)

const usage = `usage: roller <command> [flags] [actor names...]

commands:
  damage  -level N -rank R [-crit]       roll tabulated strike damage
  attack  -level N -rank R               roll a tabulated strike attack
  save    -save S [-dc N] actors...      roll a group save
  skill   -skill S [-secret] actor       roll a skill or perception check
  apply   -amount N [-mode M] actor      apply damage or healing (full|half|double|heal)
  build   [-roadmap R -level N] [-choices file.yaml] actor
                                         set an actor's statistics from ranks
  roadmaps                               list the creature roadmaps
  flatten actor                          add proficiency without level
  unflatten actor                        remove proficiency without level
  loot    [-vary] actor                  total treasure; -vary multiplies each value by 1d4
  xp      -amount N actors...            award experience
  hero    -amount N actors...            award hero points up to the configured cap`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file; empty uses defaults and TOOLBOX_ env")
	level := fs.Int("level", 1, "creature level")
	rank := fs.String("rank", string(reference.Moderate), "table rank")
	crit := fs.Bool("crit", false, "roll a critical hit")
	save := fs.String("save", "", "fortitude, reflex or will")
	dc := fs.Int("dc", 0, "difficulty class; 0 rolls without grading")
	amount := fs.Int("amount", 0, "damage, xp or hero point amount")
	mode := fs.String("mode", string(roller.Full), "damage mode")
	choicesPath := fs.String("choices", "", "YAML file of builder choices")
	roadmap := fs.String("roadmap", "", "creature roadmap the choices file is layered over")
	skill := fs.String("skill", roller.Perception, "skill, three-letter abbreviation, lore name, or perception")
	secret := fs.Bool("secret", false, "log the check total without printing it")
	vary := fs.Bool("vary", false, "multiply each treasure value by 1d4 before totalling")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}
	names := fs.Args()

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
	r := rt.Roller()

	switch cmd {
	case "damage":
		res, err := r.RollDamage(*level, reference.Rank(*rank), *crit)
		if err != nil {
			logger.Fatal("rolling damage", zap.Error(err))
		}
		fmt.Println(res)
	case "attack":
		res, err := r.RollAttack(*level, reference.Rank(*rank))
		if err != nil {
			logger.Fatal("rolling attack", zap.Error(err))
		}
		fmt.Println(res)
	case "save":
		actors, err := rt.Actors(ctx, names)
		if err != nil {
			logger.Fatal("resolving actors", zap.Error(err))
		}
		var dcp *int
		if *dc > 0 {
			dcp = dc
		}
		results, err := r.GroupSave(ctx, actors, *save, dcp)
		if err != nil {
			logger.Fatal("rolling save", zap.Error(err))
		}
		for _, res := range results {
			line := fmt.Sprintf("%s: %d (d20 %d)", res.Name, res.Total, res.Roll)
			if dcp != nil {
				line += " " + res.Degree
			}
			fmt.Println(line)
		}
	case "apply":
		actor := single(ctx, rt, names, logger)
		hp, err := r.ApplyDamage(ctx, actor, *amount, roller.DamageMode(*mode))
		if err != nil {
			logger.Fatal("applying damage", zap.Error(err))
		}
		fmt.Printf("%s: %d/%d HP\n", actor.Name, hp, actor.Data.Attributes.HP.Max)
	case "skill":
		actor := single(ctx, rt, names, logger)
		res, err := r.RollSkill(ctx, actor, *skill, *secret)
		if err != nil {
			logger.Fatal("rolling skill", zap.Error(err))
		}
		if *secret {
			fmt.Printf("%s rolled %s secretly\n", res.Name, res.Skill)
		} else {
			fmt.Printf("%s %s: %d (d20 %d)\n", res.Name, res.Skill, res.Total, res.Roll)
		}
	case "build":
		actor := single(ctx, rt, names, logger)
		choices, err := loadChoices(*choicesPath, *roadmap, *level)
		if err != nil {
			logger.Fatal("loading choices", zap.Error(err))
		}
		out, err := rt.Builder().Apply(ctx, actor.ID, choices)
		if err != nil {
			logger.Fatal("building actor", zap.Error(err))
		}
		fmt.Printf("%s: level %d, AC %d, HP %d\n", out.Name, out.Level(), out.Data.Attributes.AC.Base, out.Data.Attributes.HP.Max)
	case "roadmaps":
		roadmaps, err := builder.DefaultRoadmaps()
		if err != nil {
			logger.Fatal("loading roadmaps", zap.Error(err))
		}
		for _, rm := range roadmaps {
			fmt.Printf("%-16s %s\n", rm.Name, rm.Tooltip)
		}
	case "flatten", "unflatten":
		actor := single(ctx, rt, names, logger)
		sc := rt.Scaler()
		var out *statblock.StatBlock
		if cmd == "flatten" {
			out, err = sc.Flatten(ctx, actor)
		} else {
			out, err = sc.Unflatten(ctx, actor)
		}
		if err != nil {
			logger.Fatal(cmd, zap.Error(err))
		}
		fmt.Printf("%s: flattened=%t\n", out.Name, scaler.IsFlattened(out))
	case "loot":
		actor := single(ctx, rt, names, logger)
		if *vary {
			actor, err = rt.Appraiser().Vary(ctx, actor)
			if err != nil {
				logger.Fatal("varying treasure", zap.Error(err))
			}
		}
		fmt.Printf("%s: %s\n", actor.Name, loot.Wealth(actor.Items))
	case "xp", "hero":
		actors, err := rt.Actors(ctx, names)
		if err != nil {
			logger.Fatal("resolving actors", zap.Error(err))
		}
		d := rt.Distributor()
		var n int
		if cmd == "xp" {
			n, err = d.DistributeXP(ctx, actors, *amount)
		} else {
			n, err = d.DistributeHeroPoints(ctx, actors, *amount, cfg.Party.MaxHeroPoints)
		}
		if err != nil {
			logger.Fatal("distributing", zap.String("kind", cmd), zap.Error(err))
		}
		fmt.Printf("updated %d of %d actor(s)\n", n, len(actors))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s\n", cmd, usage)
		os.Exit(1)
	}
}

func single(ctx context.Context, rt *app.Runtime, names []string, logger *zap.Logger) *statblock.StatBlock {
	if len(names) != 1 {
		logger.Fatal("expected exactly one actor name", zap.String("names", strings.Join(names, ", ")))
	}
	actor, err := rt.Actor(ctx, names[0])
	if err != nil {
		logger.Fatal("resolving actor", zap.Error(err))
	}
	return actor
}

// loadChoices reads the choices file, layered over roadmap at level when a
// roadmap is named.
func loadChoices(path, roadmap string, level int) (builder.Choices, error) {
	var c builder.Choices
	if path == "" && roadmap == "" {
		return c, fmt.Errorf("-choices or -roadmap is required")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parsing %q: %w", path, err)
		}
	}
	if roadmap == "" {
		return c, nil
	}
	roadmaps, err := builder.DefaultRoadmaps()
	if err != nil {
		return c, err
	}
	rm, err := builder.FindRoadmap(roadmaps, roadmap)
	if err != nil {
		return c, err
	}
	return builder.Overlay(rm.Choices(level), c), nil
}
