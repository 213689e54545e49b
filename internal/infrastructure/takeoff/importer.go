// Package takeoff reads measurement takeoff sheets into quote areas.
package takeoff

import (
	"fmt"
	"io"
	"strings"

	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column headers, matched case-insensitively on the first row
const (
	colArea     = "area"
	colSurface  = "surface"
	colCategory = "category"
	colUnit     = "unit"
	colQuantity = "quantity"
	colHours    = "hours"
)

var requiredColumns = []string{colArea, colSurface, colCategory, colUnit, colQuantity}

// Importer parses xlsx takeoff sheets. Each data row is one surface; rows
// sharing an Area name are grouped into one area in first-seen order.
type Importer struct {
	sheet  string
	logger *zap.Logger
}

// NewImporter creates an importer. An empty sheet reads the first sheet.
func NewImporter(sheet string, logger *zap.Logger) *Importer {
	return &Importer{sheet: sheet, logger: logger}
}

// Import reads areas from an xlsx workbook
func (im *Importer) Import(r io.Reader) ([]entity.Area, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("file", "not a readable xlsx workbook: %v", err)
	}
	defer f.Close()

	sheet := im.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.Validation("sheet", "cannot read sheet %q: %v", sheet, err)
	}
	if len(rows) == 0 {
		return nil, apperr.Validation("sheet", "sheet %q is empty", sheet)
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var areas []entity.Area
	byName := map[string]int{}
	ids := map[string]int{}

	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		areaName := cell(row, cols[colArea])
		if areaName == "" {
			return nil, apperr.Validation("area", "row %d: area is required", line)
		}
		surface, err := parseSurface(row, cols, line)
		if err != nil {
			return nil, err
		}

		idx, ok := byName[strings.ToLower(areaName)]
		if !ok {
			idx = len(areas)
			byName[strings.ToLower(areaName)] = idx
			areas = append(areas, entity.Area{ID: uniqueID(slug(areaName), ids, ""), Name: areaName})
		}
		surface.ID = uniqueID(slug(cell(row, cols[colSurface])), ids, areas[idx].ID+"/")
		areas[idx].Surfaces = append(areas[idx].Surfaces, surface)
	}

	if len(areas) == 0 {
		return nil, apperr.Validation("sheet", "sheet %q has no measurement rows", sheet)
	}
	im.logger.Info("Takeoff sheet imported",
		zap.String("sheet", sheet),
		zap.Int("areas", len(areas)),
		zap.Int("rows", len(rows)-1))
	return areas, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := map[string]int{colHours: -1}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, apperr.Validation("header", "missing column %q", name)
		}
	}
	return cols, nil
}

func parseSurface(row []string, cols map[string]int, line int) (entity.Surface, error) {
	name := cell(row, cols[colSurface])
	if name == "" {
		return entity.Surface{}, apperr.Validation("surface", "row %d: surface is required", line)
	}
	category := strings.ToLower(cell(row, cols[colCategory]))
	if category == "" {
		return entity.Surface{}, apperr.Validation("category", "row %d: category is required", line)
	}
	unit := entity.MeasurementUnit(strings.ToLower(cell(row, cols[colUnit])))
	if !unit.IsValid() {
		return entity.Surface{}, apperr.Validation("unit", "row %d: unknown unit %q", line, unit)
	}
	qty, err := decimal.NewFromString(cell(row, cols[colQuantity]))
	if err != nil || qty.IsNegative() {
		return entity.Surface{}, apperr.Validation("quantity", "row %d: quantity must be a non-negative number", line)
	}

	surface := entity.Surface{Category: category, Unit: unit, Quantity: qty}
	if raw := cell(row, cols[colHours]); raw != "" {
		hours, err := decimal.NewFromString(raw)
		if err != nil || hours.IsNegative() {
			return entity.Surface{}, apperr.Validation("hours", "row %d: hours must be a non-negative number", line)
		}
		surface.EstimatedHours = decimal.NewNullDecimal(hours)
	}
	return surface, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// slug lowercases s and joins its alphanumeric runs with dashes
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// uniqueID suffixes base with -2, -3, ... until it is unused within scope
func uniqueID(base string, seen map[string]int, scope string) string {
	if base == "" {
		base = "item"
	}
	key := scope + base
	seen[key]++
	if n := seen[key]; n > 1 {
		id := fmt.Sprintf("%s-%d", base, n)
		seen[scope+id]++
		return id
	}
	return base
}
