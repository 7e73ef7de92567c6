package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
	"github.com/cory-johannsen/pf2e-toolbox/internal/testutil"
)

func TestApply_MergesDottedPaths(t *testing.T) {
	doc, err := document.Encode(testutil.SampleStatBlock())
	require.NoError(t, err)

	out, err := document.Apply(doc, statblock.Fields{
		statblock.FieldAC:               27,
		statblock.FieldTokenBrightSight: 60,
		statblock.AbilityField("dex"):   statblock.AbilityFromMod(4),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(27), document.Get(out, statblock.FieldAC).Int())
	assert.Equal(t, int64(60), document.Get(out, statblock.FieldTokenBrightSight).Int())
	assert.Equal(t, int64(18), document.Get(out, "data.abilities.dex.value").Int())
	assert.Equal(t, int64(12), document.Get(out, statblock.FieldPerception).Int(), "untouched")
	assert.Equal(t, "Cave Troll", document.Name(out))

	sb, err := document.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 27, sb.Data.Attributes.AC.Base)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	doc, err := document.Encode(testutil.SampleStatBlock())
	require.NoError(t, err)
	before := string(doc)
	_, err = document.Apply(doc, statblock.Fields{statblock.FieldAC: 1})
	require.NoError(t, err)
	assert.Equal(t, before, string(doc))
}

func TestApplyItems(t *testing.T) {
	doc, err := document.Encode(testutil.SampleStatBlock())
	require.NoError(t, err)

	out, err := document.ApplyItems(doc, []statblock.ItemUpdate{
		{ID: "roar", Fields: statblock.Fields{statblock.FieldItemDescription: "DC 30 Will save."}},
		{ID: "primal", Fields: statblock.Fields{statblock.FieldItemSpellDC: 30}},
	})
	require.NoError(t, err)
	assert.Equal(t, "DC 30 Will save.", document.Get(out, "items.3.data.description.value").String())
	assert.Equal(t, int64(30), document.Get(out, "items.1.data.spelldc.dc").Int())
	assert.Equal(t, int64(13), document.Get(out, "items.1.data.spelldc.value").Int())

	_, err = document.ApplyItems(doc, []statblock.ItemUpdate{{ID: "missing"}})
	assert.ErrorIs(t, err, document.ErrItemNotFound)
	_, err = document.ApplyItems(doc, []statblock.ItemUpdate{{ID: ""}})
	assert.ErrorIs(t, err, document.ErrItemNotFound)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := document.Decode([]byte(`{"name": 5}`))
	assert.Error(t, err)
}

func TestProperty_ApplyThenGet(t *testing.T) {
	doc, err := document.Encode(testutil.SampleStatBlock())
	require.NoError(t, err)
	paths := []string{
		statblock.FieldAC, statblock.FieldPerception, statblock.FieldHPMax,
		statblock.FieldFortitude, statblock.FieldReflex, statblock.FieldWill,
		statblock.FieldXP, statblock.FieldHeroPoints,
	}
	rapid.Check(t, func(rt *rapid.T) {
		path := rapid.SampledFrom(paths).Draw(rt, "path")
		v := rapid.IntRange(-100, 1000).Draw(rt, "value")
		out, err := document.Apply(doc, statblock.Fields{path: v})
		require.NoError(rt, err)
		assert.Equal(rt, int64(v), document.Get(out, path).Int())
		assert.Equal(rt, document.Get(doc, statblock.FieldName).String(), document.Get(out, statblock.FieldName).String())
	})
}
