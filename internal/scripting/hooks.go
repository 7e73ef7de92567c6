package scripting

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
)

// Hook names called for each event kind. Arguments are listed in call order.
const (
	// on_actor_rescaled(name, old_level, new_level, created)
	HookActorRescaled = "on_actor_rescaled"
	// on_actor_built(name, level)
	HookActorBuilt = "on_actor_built"
	// on_group_save_rolled(save, dc, results); dc is nil without a DC and
	// results is an array of {name, roll, total, degree} tables.
	HookGroupSaveRolled = "on_group_save_rolled"
	// on_damage_applied(name, amount, mode, old_value, new_value)
	HookDamageApplied = "on_damage_applied"
	// on_actor_flattened(name, modifier, flattened)
	HookActorFlattened = "on_actor_flattened"
	// on_skill_rolled(name, skill, total, secret)
	HookSkillRolled = "on_skill_rolled"
)

// Subscriber registers event handlers.
type Subscriber interface {
	Subscribe(k event.Kind, h event.Handler) error
}

// Subscribe registers one handler per event kind on bus. Each handler calls
// the matching hook, which may be left undefined.
func (m *Manager) Subscribe(bus Subscriber) error {
	for _, k := range event.Kinds {
		if err := bus.Subscribe(k, m.dispatch); err != nil {
			return fmt.Errorf("scripting: subscribing to %s: %w", k, err)
		}
	}
	return nil
}

func (m *Manager) dispatch(_ context.Context, e event.Event) error {
	var (
		hook  string
		build func(L *lua.LState) []lua.LValue
	)
	switch ev := e.(type) {
	case event.ActorRescaled:
		hook = HookActorRescaled
		build = constArgs(lua.LString(ev.Name), lua.LNumber(ev.FromLevel), lua.LNumber(ev.ToLevel), lua.LBool(ev.Created))
	case event.ActorBuilt:
		hook = HookActorBuilt
		build = constArgs(lua.LString(ev.Name), lua.LNumber(ev.Level))
	case event.GroupSaveRolled:
		hook = HookGroupSaveRolled
		build = func(L *lua.LState) []lua.LValue {
			var dc lua.LValue = lua.LNil
			if ev.DC != nil {
				dc = lua.LNumber(*ev.DC)
			}
			return []lua.LValue{lua.LString(ev.Save), dc, saveResults(L, ev.Results)}
		}
	case event.DamageApplied:
		hook = HookDamageApplied
		build = constArgs(
			lua.LString(ev.Name), lua.LNumber(ev.Amount), lua.LString(ev.Mode),
			lua.LNumber(ev.OldValue), lua.LNumber(ev.NewValue),
		)
	case event.ActorFlattened:
		hook = HookActorFlattened
		build = constArgs(lua.LString(ev.Name), lua.LNumber(ev.Modifier), lua.LBool(ev.Flattened))
	case event.SkillRolled:
		hook = HookSkillRolled
		build = constArgs(lua.LString(ev.Name), lua.LString(ev.Skill), lua.LNumber(ev.Total), lua.LBool(ev.Secret))
	default:
		return fmt.Errorf("scripting: unhandled event kind %s", e.Kind())
	}
	_, err := m.call(hook, build)
	return err
}

func constArgs(args ...lua.LValue) func(*lua.LState) []lua.LValue {
	return func(*lua.LState) []lua.LValue { return args }
}

// saveResults converts results into a Lua array of tables.
func saveResults(L *lua.LState, results []event.SaveResult) *lua.LTable {
	arr := L.NewTable()
	for _, r := range results {
		row := L.NewTable()
		row.RawSetString("name", lua.LString(r.Name))
		row.RawSetString("roll", lua.LNumber(r.Roll))
		row.RawSetString("total", lua.LNumber(r.Total))
		row.RawSetString("degree", lua.LString(r.Degree))
		arr.Append(row)
	}
	return arr
}
