package scripting_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-toolbox/internal/scripting"
)

func runScript(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	require.NoError(t, mgr.Load(writeTempLua(t, "test.lua", luaSrc)))
	ret, err := mgr.CallHook(hook, args...)
	require.NoError(t, err)
	return ret
}

func TestToolboxLog_WritesToLogger(t *testing.T) {
	mgr, logs := newTestManager(t)
	runScript(t, mgr, `
		function do_log()
			toolbox.log("hello from lua")
		end
	`, "do_log")

	entries := logs.FilterMessage("script").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "hello from lua", entries[0].ContextMap()["msg"])
}

func TestToolboxValue_ReadsTables(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function ac()
			return toolbox.value("armorClass", 5, "high")
		end
	`, "ac")
	assert.Equal(t, lua.LNumber(22), ret)
}

func TestToolboxValue_ErrorReturnsNilAndMessage(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function bad()
			local v, err = toolbox.value("armorClass", 5, "legendary")
			assert(v == nil, "expected nil value")
			return err
		end
	`, "bad")
	require.Equal(t, lua.LTString, ret.Type())
	assert.Contains(t, ret.String(), "unknown rank")
}

func TestToolboxAverage(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function avg(expr)
			local v, err = toolbox.average(expr)
			if v == nil then return err end
			return v
		end
	`, "avg", lua.LString("2d6+3"))
	assert.Equal(t, lua.LNumber(10), ret)

	ret, err := mgr.CallHook("avg", lua.LString("lots"))
	require.NoError(t, err)
	assert.Equal(t, lua.LTString, ret.Type())
}

func TestProperty_ToolboxRollWithinBounds(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load(writeTempLua(t, "roll.lua", `
		function roll(expr) return toolbox.roll(expr) end
	`)))
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 6).Draw(rt, "count")
		sides := rapid.SampledFrom([]int{4, 6, 8, 10, 12, 20}).Draw(rt, "sides")
		expr := lua.LString(fmt.Sprintf("%dd%d", count, sides))

		ret, err := mgr.CallHook("roll", expr)
		require.NoError(rt, err)
		n, ok := ret.(lua.LNumber)
		require.True(rt, ok, "roll returned %v", ret)
		assert.GreaterOrEqual(rt, int(n), count)
		assert.LessOrEqual(rt, int(n), count*sides)
	})
}
