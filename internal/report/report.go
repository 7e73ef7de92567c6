// Package report exports statblocks to spreadsheet workbooks.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// SheetName is the worksheet holding one row per statblock.
const SheetName = "Statblocks"

// Header is the first row of the sheet.
var Header = []any{
	"Name", "Level",
	"Str", "Dex", "Con", "Int", "Wis", "Cha",
	"AC", "Perception", "Fortitude", "Reflex", "Will",
	"HP", "Strikes",
}

// Row renders sb in Header order. Abilities are modifiers.
func Row(sb *statblock.StatBlock) []any {
	d := sb.Data
	row := []any{sb.Name, sb.Level()}
	for _, key := range statblock.AbilityKeys {
		a, _ := d.Abilities.Get(key)
		row = append(row, a.Mod)
	}
	return append(row,
		d.Attributes.AC.Base,
		d.Attributes.Perception.Base,
		d.Saves.Fortitude.Base,
		d.Saves.Reflex.Base,
		d.Saves.Will.Base,
		d.Attributes.HP.Max,
		Strikes(sb),
	)
}

// Strikes summarizes melee items as "Claw +23 (2d12+13 slashing)", joined by
// "; ".
func Strikes(sb *statblock.StatBlock) string {
	var parts []string
	for _, it := range sb.ItemsOfType(statblock.ItemMelee) {
		var b strings.Builder
		b.WriteString(it.Name)
		if it.Data.Bonus != nil {
			fmt.Fprintf(&b, " %+d", it.Data.Bonus.Value)
		}
		var dmg []string
		for _, r := range it.Data.DamageRolls {
			dmg = append(dmg, strings.TrimSpace(r.Damage+" "+r.DamageType))
		}
		if len(dmg) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(dmg, " plus "))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "; ")
}

// WriteWorkbook writes blocks to a new workbook at path, one row each after
// a bold header row.
//
// Precondition: path must end in .xlsx and its directory must exist.
// Postcondition: the file at path is replaced; on error it may be absent.
func WriteWorkbook(path string, blocks []*statblock.StatBlock) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, sb := range blocks {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := Row(sb)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing %q: %w", sb.Name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %q: %w", path, err)
	}
	return nil
}
