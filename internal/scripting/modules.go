package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
)

// RegisterModules registers the toolbox.* Lua table into L:
//
//	toolbox.log(msg)                  logs msg at info
//	toolbox.roll(expr)                rolls a dice expression; returns total or nil, err
//	toolbox.average(expr)             returns the expression's average or nil, err
//	toolbox.value(cat, level, rank)   returns a reference table value or nil, err
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: toolbox global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"log":     m.luaLog,
		"roll":    m.luaRoll,
		"average": luaAverage,
		"value":   m.luaValue,
	})
	L.SetGlobal("toolbox", mod)
}

func (m *Manager) luaLog(L *lua.LState) int {
	m.logger.Info("script", zap.String("msg", L.CheckString(1)))
	return 0
}

func (m *Manager) luaRoll(L *lua.LState) int {
	res, err := m.roller.RollExpr(L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}

func luaAverage(L *lua.LState) int {
	expr, err := dice.Parse(L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LNumber(expr.Average()))
	return 1
}

func (m *Manager) luaValue(L *lua.LState) int {
	cat := reference.Category(L.CheckString(1))
	level := L.CheckInt(2)
	rank := reference.Rank(L.CheckString(3))
	v, err := m.tables.Value(cat, level, rank)
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func pushError(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}
