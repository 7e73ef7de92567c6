package statblock

import "strconv"

// Fields is a partial update: dotted document paths mapped to new values.
// Stores merge it into the existing document; unlisted paths are untouched.
type Fields map[string]any

// ItemUpdate is a partial update of one embedded item.
type ItemUpdate struct {
	ID     string
	Fields Fields
}

// Statblock field paths.
const (
	FieldName        = "name"
	FieldFolder      = "folder"
	FieldLevel       = "data.details.level.value"
	FieldXP          = "data.details.xp.value"
	FieldAC          = "data.attributes.ac.base"
	FieldPerception  = "data.attributes.perception.base"
	FieldHPValue     = "data.attributes.hp.value"
	FieldHPMax       = "data.attributes.hp.max"
	FieldHeroPoints  = "data.attributes.heroPoints.rank"
	FieldResistances = "data.attributes.resistances"
	FieldWeaknesses  = "data.attributes.weaknesses"
	FieldFortitude   = "data.saves.fortitude.base"
	FieldModifiers   = "data.customModifiers.all"
	FieldReflex      = "data.saves.reflex.base"
	FieldWill        = "data.saves.will.base"
)

// Token field paths.
const (
	FieldTokenDisplayBars = "token.displayBars"
	FieldTokenDisplayName = "token.displayName"
	FieldTokenDisposition = "token.disposition"
	FieldTokenRandomImg   = "token.randomImg"
	FieldTokenVision      = "token.vision"
	FieldTokenDimSight    = "token.dimSight"
	FieldTokenBrightSight = "token.brightSight"
)

// Item field paths, relative to the item document.
const (
	FieldItemDescription = "data.description.value"
	FieldItemMod         = "data.mod.value"
	FieldItemSpellAttack = "data.spelldc.value"
	FieldItemSpellDC     = "data.spelldc.dc"
	FieldItemBonus       = "data.bonus.value"
	FieldItemBonusTotal  = "data.bonus.total"
	FieldItemValue       = "data.value.value"
)

// AbilityField returns the path of the ability object stored under key.
func AbilityField(key string) string {
	return "data.abilities." + key
}

// SaveField returns the base path of the named save.
func SaveField(save string) string {
	return "data.saves." + save + ".base"
}

// DamageRollField returns the path of field within the i-th damage roll.
func DamageRollField(i int, field string) string {
	return "data.damageRolls." + strconv.Itoa(i) + "." + field
}
