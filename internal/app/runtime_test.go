package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/pf2e-toolbox/internal/app"
	"github.com/cory-johannsen/pf2e-toolbox/internal/config"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/loot"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/memory"
	"github.com/cory-johannsen/pf2e-toolbox/internal/testutil"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestOpen_MemoryRescaleFiresHooks(t *testing.T) {
	ctx := context.Background()
	scripts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "hooks.lua"), []byte(`
		last = ""
		function on_actor_rescaled(name, old_level, new_level, created)
			last = string.format("%s %d->%d", name, old_level, new_level)
		end
		function last_rescale() return last end
	`), 0644))

	cfg := testConfig(t)
	cfg.Content.ScriptsDir = scripts
	rt, err := app.Open(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer rt.Close()
	require.NotNil(t, rt.Scripts)

	src, err := rt.Store.PutActor(ctx, testutil.SampleStatBlock())
	require.NoError(t, err)
	out, err := rt.Scaler().Rescale(ctx, src, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Level())

	ret, err := rt.Scripts.CallHook("last_rescale")
	require.NoError(t, err)
	assert.Equal(t, "Cave Troll 5->10", ret.String())
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "db", "toolbox.db")

	rt, err := app.Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = rt.Store.PutActor(ctx, testutil.SampleStatBlock())
	require.NoError(t, err)
	rt.Close()

	rt, err = app.Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()
	got, err := rt.Actor(ctx, "Cave Troll")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Level())
}

func TestOpen_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.TablesPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := app.Open(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Content.ScriptsDir = filepath.Join(t.TempDir(), "missing")
	_, err = app.Open(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Storage.Driver = "floppy"
	_, err = app.Open(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRuntime_Actor(t *testing.T) {
	ctx := context.Background()
	rt, err := app.Open(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	folder, err := rt.Store.FindOrCreateFolder(ctx, "Bestiary", "")
	require.NoError(t, err)
	nested := testutil.SampleStatBlock()
	nested.Folder = folder.ID
	_, err = rt.Store.PutActor(ctx, nested)
	require.NoError(t, err)

	got, err := rt.Actor(ctx, "Cave Troll")
	require.NoError(t, err)
	assert.Equal(t, folder.ID, got.Folder)

	top := testutil.SampleStatBlock()
	top.Data.Details.Level.Value = 3
	_, err = rt.Store.PutActor(ctx, top)
	require.NoError(t, err)
	got, err = rt.Actor(ctx, "Cave Troll")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Level())

	_, err = rt.Actors(ctx, []string{"Cave Troll", "Imp"})
	assert.ErrorIs(t, err, statblock.ErrActorNotFound)
}

var errDiskFailure = errors.New("disk failure")

// failingFind reports a backend failure from every name lookup.
type failingFind struct {
	*memory.Backend
}

func (failingFind) FindDoc(context.Context, string, string) ([]byte, error) {
	return nil, errDiskFailure
}

func TestRuntime_Actor_BackendFailureIsNotMasked(t *testing.T) {
	ctx := context.Background()
	backend := failingFind{Backend: memory.NewBackend()}
	store := document.NewStore(backend)
	_, err := store.PutActor(ctx, testutil.SampleStatBlock())
	require.NoError(t, err)

	rt := &app.Runtime{Store: store, Logger: zap.NewNop()}
	_, err = rt.Actor(ctx, "Cave Troll")
	assert.ErrorIs(t, err, errDiskFailure)
	assert.NotErrorIs(t, err, statblock.ErrActorNotFound)
}

func TestRuntime_FlattenAndAppraise(t *testing.T) {
	ctx := context.Background()
	rt, err := app.Open(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	sb := testutil.SampleStatBlock()
	sb.Items = append(sb.Items, statblock.Item{
		ID: "ruby", Name: "Ruby", Type: statblock.ItemTreasure,
		Data: statblock.ItemData{
			Value:        &statblock.IntValue{Value: 20},
			Denomination: &statblock.TextValue{Value: "gp"},
		},
	})
	actor, err := rt.Store.PutActor(ctx, sb)
	require.NoError(t, err)

	flat, err := rt.Scaler().Flatten(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, -5, flat.Data.CustomModifiers.All[0].Modifier)

	varied, err := rt.Appraiser().Vary(ctx, flat)
	require.NoError(t, err)
	gp := loot.Wealth(varied.Items).GP
	assert.Contains(t, []int{20, 40, 60, 80}, gp)
}
