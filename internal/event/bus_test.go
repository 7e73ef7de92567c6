package event_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
)

func TestBus_DeliversInRegistrationOrder(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, bus.Subscribe(event.KindActorRescaled, func(_ context.Context, e event.Event) error {
			order = append(order, i)
			return nil
		}))
	}
	bus.Publish(context.Background(), event.ActorRescaled{Name: "Goblin", FromLevel: 1, ToLevel: 3})
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestBus_OnlyMatchingKind(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	called := false
	require.NoError(t, bus.Subscribe(event.KindDamageApplied, func(context.Context, event.Event) error {
		called = true
		return nil
	}))
	bus.Publish(context.Background(), event.ActorBuilt{Name: "Orc"})
	assert.False(t, called)
	assert.Equal(t, 1, bus.HandlerCount(event.KindDamageApplied))
	assert.Equal(t, 0, bus.HandlerCount(event.KindActorBuilt))
}

func TestBus_TypedPayload(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	var got event.ActorRescaled
	require.NoError(t, bus.Subscribe(event.KindActorRescaled, func(_ context.Context, e event.Event) error {
		got = e.(event.ActorRescaled)
		return nil
	}))
	bus.Publish(context.Background(), event.ActorRescaled{TargetID: "t1", FromLevel: 2, ToLevel: 5, Created: true})
	assert.Equal(t, "t1", got.TargetID)
	assert.Equal(t, 5, got.ToLevel)
	assert.True(t, got.Created)
}

func TestBus_HandlerErrorIsLoggedNotPropagated(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	bus := event.NewBus(zap.New(core))
	second := false
	require.NoError(t, bus.Subscribe(event.KindActorBuilt, func(context.Context, event.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(event.KindActorBuilt, func(context.Context, event.Event) error {
		panic("worse")
	}))
	require.NoError(t, bus.Subscribe(event.KindActorBuilt, func(context.Context, event.Event) error {
		second = true
		return nil
	}))

	bus.Publish(context.Background(), event.ActorBuilt{})
	assert.True(t, second, "later handlers still run")
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestBus_SubscribeRejectsUnknown(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	assert.Error(t, bus.Subscribe("mystery", func(context.Context, event.Event) error { return nil }))
	assert.Error(t, bus.Subscribe(event.KindActorBuilt, nil))
}

func TestProperty_EveryKindMatchesPayload(t *testing.T) {
	payloads := []event.Event{
		event.ActorRescaled{}, event.ActorBuilt{}, event.GroupSaveRolled{}, event.DamageApplied{},
		event.ActorFlattened{}, event.SkillRolled{},
	}
	rapid.Check(t, func(rt *rapid.T) {
		i := rapid.IntRange(0, len(payloads)-1).Draw(rt, "i")
		assert.Equal(rt, event.Kinds[i], payloads[i].Kind())
	})
}
