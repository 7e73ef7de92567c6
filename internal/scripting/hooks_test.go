package scripting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
)

const recorderScript = `
calls = {}

function on_actor_rescaled(name, old_level, new_level, created)
	table.insert(calls, string.format("rescaled %s %d->%d %s", name, old_level, new_level, tostring(created)))
end

function on_actor_built(name, level)
	table.insert(calls, string.format("built %s %d", name, level))
end

function on_group_save_rolled(save, dc, results)
	local parts = {}
	for _, r in ipairs(results) do
		table.insert(parts, string.format("%s=%d(%s)", r.name, r.total, r.degree))
	end
	table.insert(calls, string.format("save %s %s %s", save, tostring(dc), table.concat(parts, ",")))
end

function on_damage_applied(name, amount, mode, old_value, new_value)
	table.insert(calls, string.format("damage %s %d %s %d->%d", name, amount, mode, old_value, new_value))
end

function on_actor_flattened(name, modifier, flattened)
	table.insert(calls, string.format("flattened %s %d %s", name, modifier, tostring(flattened)))
end

function on_skill_rolled(name, skill, total, secret)
	table.insert(calls, string.format("skill %s %s %d %s", name, skill, total, tostring(secret)))
end

function recorded()
	return table.concat(calls, "|")
end
`

func TestSubscribe_DispatchesEveryKind(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "recorder.lua", recorderScript)))

	bus := event.NewBus(zap.NewNop())
	require.NoError(t, mgr.Subscribe(bus))
	for _, k := range event.Kinds {
		assert.Equal(t, 1, bus.HandlerCount(k), k)
	}

	dc := 20
	bus.Publish(ctx, event.ActorRescaled{Name: "Cave Troll", FromLevel: 5, ToLevel: 10, Created: true})
	bus.Publish(ctx, event.ActorBuilt{Name: "Imp", Level: 1})
	bus.Publish(ctx, event.GroupSaveRolled{Save: "will", DC: &dc, Results: []event.SaveResult{
		{Name: "Imp", Total: 31, Degree: "critical success"},
		{Name: "Troll", Total: 12, Degree: "failure"},
	}})
	bus.Publish(ctx, event.GroupSaveRolled{Save: "reflex"})
	bus.Publish(ctx, event.DamageApplied{Name: "Imp", Amount: 6, Mode: "half", OldValue: 10, NewValue: 7})
	bus.Publish(ctx, event.ActorFlattened{Name: "Imp", Modifier: -1, Flattened: true})
	bus.Publish(ctx, event.SkillRolled{Name: "Imp", Skill: "stealth", Total: 19, Secret: true})

	ret, err := mgr.CallHook("recorded")
	require.NoError(t, err)
	assert.Equal(t, lua.LString(
		"rescaled Cave Troll 5->10 true|"+
			"built Imp 1|"+
			"save will 20 Imp=31(critical success),Troll=12(failure)|"+
			"save reflex nil |"+
			"damage Imp 6 half 10->7|"+
			"flattened Imp -1 true|"+
			"skill Imp stealth 19 true",
	), ret)
}

func TestSubscribe_UndefinedHooksAreSkipped(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "empty.lua", `-- no hooks`)))

	bus := event.NewBus(zap.NewNop())
	require.NoError(t, mgr.Subscribe(bus))
	bus.Publish(context.Background(), event.ActorBuilt{Name: "Imp", Level: 1})
	assert.False(t, hasLevel(logs, zap.WarnLevel))
}

func TestSubscribe_HookErrorIsLoggedNotPropagated(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "bad.lua", `
		function on_actor_built(name, level) error("boom") end
	`)))

	bus := event.NewBus(zap.NewNop())
	require.NoError(t, mgr.Subscribe(bus))
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), event.ActorBuilt{Name: "Imp", Level: 1})
	})
	assert.True(t, hasLevel(logs, zap.WarnLevel))
}
