package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
)

// SampleStatBlock returns a level 5 statblock with a skill, a spellcasting
// entry, a strike, and an action whose description embeds a DC and damage.
func SampleStatBlock() *statblock.StatBlock {
	return &statblock.StatBlock{
		Name: "Cave Troll",
		Type: "npc",
		Data: statblock.Data{
			Details: statblock.Details{Level: statblock.IntValue{Value: 5}},
			Abilities: statblock.Abilities{
				Str: statblock.AbilityFromMod(5),
				Dex: statblock.AbilityFromMod(2),
				Con: statblock.AbilityFromMod(4),
				Int: statblock.AbilityFromMod(-2),
				Wis: statblock.AbilityFromMod(0),
				Cha: statblock.AbilityFromMod(-2),
			},
			Attributes: statblock.Attributes{
				AC:          statblock.Base{Base: 22},
				Perception:  statblock.Base{Base: 12},
				HP:          statblock.HP{Value: 78, Max: 78},
				Resistances: []statblock.Resistance{{Type: "physical", Value: 5, Exceptions: "silver"}},
				Weaknesses:  []statblock.Resistance{{Type: "fire", Value: 10, Label: "Fire"}},
			},
			Saves: statblock.Saves{
				Fortitude: statblock.Base{Base: 15},
				Reflex:    statblock.Base{Base: 9},
				Will:      statblock.Base{Base: 12},
			},
		},
		Items: []statblock.Item{
			{ID: "athletics", Name: "Athletics", Type: statblock.ItemLore,
				Data: statblock.ItemData{Mod: &statblock.IntValue{Value: 14}}},
			{ID: "primal", Name: "Primal Innate Spells", Type: statblock.ItemSpellcasting,
				Data: statblock.ItemData{SpellDC: &statblock.SpellDC{Value: 13, DC: 22}}},
			{ID: "claw", Name: "Claw", Type: statblock.ItemMelee,
				Data: statblock.ItemData{
					Description: statblock.TextValue{Value: "Reach 10 feet"},
					Bonus:       &statblock.Bonus{Value: 15, Total: 15},
					DamageRolls: []statblock.DamageRoll{{Damage: "2d8+7", DamageType: "slashing"}},
				}},
			{ID: "roar", Name: "Roar", Type: "action",
				Data: statblock.ItemData{Description: statblock.TextValue{Value: "DC 22 Will save or take 2d8+7 sonic damage."}}},
		},
	}
}

// RunStoreContract exercises the statblock store contract against the store
// returned by newStore. Each subtest gets a fresh store.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) *document.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutAndGet", func(t *testing.T) {
		s := newStore(t)
		src := SampleStatBlock()
		src.Items = append(src.Items, statblock.Item{Name: "Unnamed", Type: "action"})
		stored, err := s.PutActor(ctx, src)
		require.NoError(t, err)
		require.NotEmpty(t, stored.ID)
		assert.NotEmpty(t, stored.Items[len(stored.Items)-1].ID, "missing item ids are assigned")

		got, err := s.GetActor(ctx, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetActor(ctx, "nope")
		assert.ErrorIs(t, err, statblock.ErrActorNotFound)
	})

	t.Run("FolderFindOrCreate", func(t *testing.T) {
		s := newStore(t)
		root, err := s.FindOrCreateFolder(ctx, "Scaled", "")
		require.NoError(t, err)
		lvl, err := s.FindOrCreateFolder(ctx, "Level 3", root.ID)
		require.NoError(t, err)
		again, err := s.FindOrCreateFolder(ctx, "Level 3", root.ID)
		require.NoError(t, err)
		assert.Equal(t, lvl.ID, again.ID)
		assert.Equal(t, root.ID, lvl.Parent)

		other, err := s.FindOrCreateFolder(ctx, "Level 3", "")
		require.NoError(t, err)
		assert.NotEqual(t, lvl.ID, other.ID, "same name under a different parent is a different folder")

		_, err = s.FindOrCreateFolder(ctx, "Orphan", "missing-parent")
		assert.ErrorIs(t, err, statblock.ErrFolderNotFound)

		folders, err := s.ListFolders(ctx)
		require.NoError(t, err)
		assert.Len(t, folders, 3)
	})

	t.Run("FindByNameAndFolder", func(t *testing.T) {
		s := newStore(t)
		f, err := s.FindOrCreateFolder(ctx, "Level 1", "")
		require.NoError(t, err)
		sb := SampleStatBlock()
		sb.Folder = f.ID
		stored, err := s.PutActor(ctx, sb)
		require.NoError(t, err)

		found, err := s.FindActor(ctx, "Cave Troll", f.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.ID, found.ID)

		_, err = s.FindActor(ctx, "Cave Troll", "")
		assert.ErrorIs(t, err, statblock.ErrActorNotFound)
	})

	t.Run("CloneKeepsItemIDs", func(t *testing.T) {
		s := newStore(t)
		src, err := s.PutActor(ctx, SampleStatBlock())
		require.NoError(t, err)

		clone, err := s.CloneActor(ctx, src, statblock.Fields{
			statblock.FieldLevel: 7,
			statblock.FieldAC:    25,
		})
		require.NoError(t, err)
		assert.NotEqual(t, src.ID, clone.ID)
		assert.Equal(t, 7, clone.Level())
		assert.Equal(t, 25, clone.Data.Attributes.AC.Base)
		require.Len(t, clone.Items, len(src.Items))
		for i := range src.Items {
			assert.Equal(t, src.Items[i].ID, clone.Items[i].ID)
		}

		orig, err := s.GetActor(ctx, src.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, orig.Level(), "source is untouched")
	})

	t.Run("UpdateMergesPartialFields", func(t *testing.T) {
		s := newStore(t)
		src, err := s.PutActor(ctx, SampleStatBlock())
		require.NoError(t, err)

		require.NoError(t, s.UpdateActor(ctx, src.ID, statblock.Fields{
			statblock.FieldHPMax:          90,
			statblock.AbilityField("str"): statblock.AbilityFromMod(6),
			statblock.FieldTokenDimSight:  120,
			statblock.FieldTokenRandomImg: true,
			statblock.FieldWeaknesses:     []statblock.Resistance{{Type: "fire", Value: 12, Label: "Fire"}},
		}))
		got, err := s.GetActor(ctx, src.ID)
		require.NoError(t, err)
		assert.Equal(t, 90, got.Data.Attributes.HP.Max)
		assert.Equal(t, 78, got.Data.Attributes.HP.Value, "unlisted paths are untouched")
		assert.Equal(t, statblock.AbilityFromMod(6), got.Data.Abilities.Str)
		assert.Equal(t, 120, got.Token.DimSight)
		assert.True(t, got.Token.RandomImg)
		assert.Equal(t, "Fire", got.Data.Attributes.Weaknesses[0].Label)
		assert.Equal(t, 12, got.Data.Attributes.Weaknesses[0].Value)

		assert.ErrorIs(t, s.UpdateActor(ctx, "nope", statblock.Fields{statblock.FieldAC: 1}), statblock.ErrActorNotFound)
	})

	t.Run("UpdateItems", func(t *testing.T) {
		s := newStore(t)
		src, err := s.PutActor(ctx, SampleStatBlock())
		require.NoError(t, err)

		require.NoError(t, s.UpdateItems(ctx, src.ID, []statblock.ItemUpdate{
			{ID: "athletics", Fields: statblock.Fields{statblock.FieldItemMod: 20}},
			{ID: "claw", Fields: statblock.Fields{
				statblock.FieldItemBonus:                   21,
				statblock.DamageRollField(0, "damage"):     "3d8+10",
				statblock.DamageRollField(0, "damageType"): "slashing",
			}},
		}))
		got, err := s.GetActor(ctx, src.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.Items[0].Data.Mod.Value)
		assert.Equal(t, 21, got.Items[2].Data.Bonus.Value)
		assert.Equal(t, 15, got.Items[2].Data.Bonus.Total)
		assert.Equal(t, "3d8+10", got.Items[2].Data.DamageRolls[0].Damage)
		assert.Equal(t, "Reach 10 feet", got.Items[2].Data.Description.Value)

		err = s.UpdateItems(ctx, src.ID, []statblock.ItemUpdate{
			{ID: "athletics", Fields: statblock.Fields{statblock.FieldItemMod: 99}},
			{ID: "ghost", Fields: statblock.Fields{statblock.FieldItemMod: 1}},
		})
		assert.ErrorIs(t, err, document.ErrItemNotFound)
		got, err = s.GetActor(ctx, src.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.Items[0].Data.Mod.Value, "a failed batch writes nothing")
	})

	t.Run("ListActors", func(t *testing.T) {
		s := newStore(t)
		f, err := s.FindOrCreateFolder(ctx, "Bestiary", "")
		require.NoError(t, err)
		a := SampleStatBlock()
		_, err = s.PutActor(ctx, a)
		require.NoError(t, err)
		b := SampleStatBlock()
		b.Name = "Hill Troll"
		b.Folder = f.ID
		_, err = s.PutActor(ctx, b)
		require.NoError(t, err)

		all, err := s.ListActors(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Cave Troll", all[0].Name)

		inFolder, err := s.ListActors(ctx, f.ID)
		require.NoError(t, err)
		require.Len(t, inFolder, 1)
		assert.Equal(t, "Hill Troll", inFolder[0].Name)
	})

	t.Run("PutRejectsInvalid", func(t *testing.T) {
		s := newStore(t)
		sb := SampleStatBlock()
		sb.Name = ""
		_, err := s.PutActor(ctx, sb)
		assert.Error(t, err)

		sb = SampleStatBlock()
		sb.Folder = "missing"
		_, err = s.PutActor(ctx, sb)
		assert.ErrorIs(t, err, statblock.ErrFolderNotFound)
	})
}
