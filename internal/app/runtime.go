package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/config"
	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/builder"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/loot"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/party"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/roller"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/scaler"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/importer"
	"github.com/cory-johannsen/pf2e-toolbox/internal/scripting"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/memory"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/postgres"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/sqlite"
)

// Runtime holds the shared components of a toolbox binary.
type Runtime struct {
	Config  config.Config
	Logger  *zap.Logger
	Tables  *reference.Tables
	Store   *document.Store
	Bus     *event.Bus
	Source  dice.Source
	Scripts *scripting.Manager

	lifecycle *Lifecycle
}

// Open builds a Runtime from cfg: it loads the reference tables, opens the
// configured store, and, when a scripts directory is set, loads the Lua hooks
// and subscribes them to the event bus.
//
// Precondition: cfg must pass Validate; logger must be non-nil.
// Postcondition: on success the caller must Close the Runtime; on error every
// resource opened so far is already released.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Runtime, error) {
	start := time.Now()
	rt := &Runtime{
		Config:    cfg,
		Logger:    logger,
		Bus:       event.NewBus(logger),
		Source:    dice.NewCryptoSource(),
		lifecycle: NewLifecycle(logger),
	}

	tables, err := loadTables(cfg.Content)
	if err != nil {
		return nil, err
	}
	rt.Tables = tables

	store, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = store

	if cfg.Content.ScriptsDir != "" {
		mgr := scripting.NewManager(tables, dice.NewLoggedRoller(rt.Source, logger), logger, cfg.Content.ScriptInstructionLimit)
		rt.lifecycle.Add("scripts", mgr.Close)
		if err := mgr.Load(cfg.Content.ScriptsDir); err != nil {
			rt.Close()
			return nil, err
		}
		if err := mgr.Subscribe(rt.Bus); err != nil {
			rt.Close()
			return nil, err
		}
		rt.Scripts = mgr
	}

	logger.Info("runtime ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("levels", len(tables.Levels())),
		zap.Bool("scripts", rt.Scripts != nil),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rt, nil
}

func loadTables(c config.ContentConfig) (*reference.Tables, error) {
	if c.TablesPath == "" {
		return reference.Default()
	}
	t, err := reference.LoadFile(c.TablesPath)
	if err != nil {
		return nil, fmt.Errorf("loading reference tables: %w", err)
	}
	return t, nil
}

func (rt *Runtime) openStore(ctx context.Context) (*document.Store, error) {
	switch rt.Config.Storage.Driver {
	case "memory":
		return memory.NewStore(), nil
	case "sqlite":
		store, backend, err := sqlite.OpenStore(rt.Config.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		rt.lifecycle.Add("sqlite", func() {
			if err := backend.Close(); err != nil {
				rt.Logger.Warn("closing sqlite", zap.Error(err))
			}
		})
		return store, nil
	case "postgres":
		store, pool, err := postgres.Open(ctx, rt.Config.Database)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		rt.lifecycle.Add("postgres", pool.Close)
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", rt.Config.Storage.Driver)
}

// Close releases the store and scripts in reverse order of opening.
func (rt *Runtime) Close() { rt.lifecycle.Close() }

// Scaler returns a rescaler publishing to the runtime bus.
func (rt *Runtime) Scaler() *scaler.Scaler {
	return scaler.New(rt.Tables, rt.Store, rt.Config.Scaler, rt.Bus, rt.Logger)
}

// Roller returns an NPC roller publishing to the runtime bus.
func (rt *Runtime) Roller() *roller.Roller {
	return roller.New(rt.Tables, rt.Source, rt.Store, rt.Bus, rt.Logger)
}

// Builder returns a creature builder publishing to the runtime bus.
func (rt *Runtime) Builder() *builder.Builder {
	return builder.New(rt.Tables, rt.Store, rt.Bus, rt.Logger)
}

// Distributor returns a party distributor over the runtime store.
func (rt *Runtime) Distributor() *party.Distributor {
	return party.NewDistributor(rt.Store, rt.Logger)
}

// Appraiser returns a treasure appraiser rolling with the runtime source.
func (rt *Runtime) Appraiser() *loot.Appraiser {
	return loot.NewAppraiser(rt.Store, rt.Source, rt.Logger)
}

// Importer returns an importer reading src into the runtime store.
func (rt *Runtime) Importer(src importer.Source) *importer.Importer {
	return importer.New(src, rt.Store, rt.Logger)
}

// Actors resolves names in the top-level scope, then in any folder.
//
// Postcondition: returns one statblock per name in order, or an error
// wrapping statblock.ErrActorNotFound for the first unknown name.
func (rt *Runtime) Actors(ctx context.Context, names []string) ([]*statblock.StatBlock, error) {
	out := make([]*statblock.StatBlock, 0, len(names))
	for _, name := range names {
		sb, err := rt.Actor(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, sb)
	}
	return out, nil
}

// Actor resolves one name: a top-level actor wins, otherwise the first match
// across the store. Store failures other than a missing actor are returned
// as is.
func (rt *Runtime) Actor(ctx context.Context, name string) (*statblock.StatBlock, error) {
	sb, err := rt.Store.FindActor(ctx, name, "")
	if err == nil {
		return sb, nil
	}
	if !errors.Is(err, statblock.ErrActorNotFound) {
		return nil, fmt.Errorf("finding %q: %w", name, err)
	}
	all, lerr := rt.Store.ListActors(ctx, "")
	if lerr != nil {
		return nil, lerr
	}
	for _, a := range all {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", statblock.ErrActorNotFound, name)
}
