// Package catalog loads the curated (municipality, school) list the
// run is scoped to from an xlsx spreadsheet.
package catalog

import (
	"fmt"

	"consultaescolas-backend/lib/textutil"

	"github.com/xuri/excelize/v2"
)

const (
	DefaultSchoolColumn = "Estabelecimento_scrapping"
	DefaultCityColumn   = "mun2"
)

// Entry is one spreadsheet row. Immutable once loaded.
type Entry struct {
	City      string
	School    string
	CityKey   string
	SchoolKey string
}

type Catalog struct {
	Entries []Entry
}

type Columns struct {
	School string `json:"school"`
	City   string `json:"city"`
}

func (c Columns) withDefaults() Columns {
	if c.School == "" {
		c.School = DefaultSchoolColumn
	}
	if c.City == "" {
		c.City = DefaultCityColumn
	}
	return c
}

func Load(path string, cols Columns) (Catalog, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return Catalog{}, err
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return Catalog{}, fmt.Errorf("%s: no worksheet found", path)
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return Catalog{}, err
	}
	if len(rows) == 0 {
		return Catalog{}, fmt.Errorf("%s: empty worksheet", path)
	}

	return FromRows(rows, cols)
}

// FromRows builds a catalog from a header row followed by data rows.
func FromRows(rows [][]string, cols Columns) (Catalog, error) {
	cols = cols.withDefaults()

	schoolIdx, cityIdx := -1, -1
	for i, header := range rows[0] {
		switch header {
		case cols.School:
			schoolIdx = i
		case cols.City:
			cityIdx = i
		}
	}
	if schoolIdx < 0 {
		return Catalog{}, fmt.Errorf("missing school column %q", cols.School)
	}
	if cityIdx < 0 {
		return Catalog{}, fmt.Errorf("missing city column %q", cols.City)
	}

	var entries []Entry
	for _, row := range rows[1:] {
		if schoolIdx >= len(row) || cityIdx >= len(row) {
			continue
		}
		school := row[schoolIdx]
		city := row[cityIdx]
		if school == "" || city == "" {
			continue
		}
		entries = append(entries, Entry{
			City:      city,
			School:    school,
			CityKey:   textutil.NormalizeName(city),
			SchoolKey: textutil.NormalizeName(school),
		})
	}

	return Catalog{Entries: entries}, nil
}

// CityKeys returns the distinct normalized municipality keys in
// first-seen order.
func (c Catalog) CityKeys() []string {
	seen := map[string]bool{}
	var keys []string
	for _, e := range c.Entries {
		if seen[e.CityKey] {
			continue
		}
		seen[e.CityKey] = true
		keys = append(keys, e.CityKey)
	}
	return keys
}

// SchoolKeys returns the set of normalized school keys requested for a
// city.
func (c Catalog) SchoolKeys(cityKey string) map[string]bool {
	keys := map[string]bool{}
	for _, e := range c.Entries {
		if e.CityKey == cityKey {
			keys[e.SchoolKey] = true
		}
	}
	return keys
}
