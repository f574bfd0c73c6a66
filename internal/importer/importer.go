// Package importer loads products and customers from spreadsheet CSV exports.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrUnknownKind = errors.New("unknown import kind")
	ErrNoHeader    = errors.New("no matching header row")
)

type Kind string

const (
	KindProducts  Kind = "products"
	KindCustomers Kind = "customers"
)

// column is one logical field and the header spellings accepted for it.
type column struct {
	field    string
	aliases  []string
	required bool
}

type profile struct {
	kind    Kind
	columns []column
}

var profiles = map[Kind]profile{
	KindProducts: {
		kind: KindProducts,
		columns: []column{
			{field: "name", aliases: []string{"name", "product", "product name", "item"}, required: true},
			{field: "price", aliases: []string{"price", "unit price", "price per lb"}, required: true},
			{field: "category", aliases: []string{"category", "type"}},
			{field: "pricing", aliases: []string{"pricing", "pricing type", "unit", "sold by"}},
			{field: "stock", aliases: []string{"stock", "stock quantity", "qty", "quantity"}},
			{field: "threshold", aliases: []string{"threshold", "low stock", "low stock threshold"}},
			{field: "description", aliases: []string{"description", "notes"}},
			{field: "active", aliases: []string{"active", "enabled"}},
		},
	},
	KindCustomers: {
		kind: KindCustomers,
		columns: []column{
			{field: "name", aliases: []string{"name", "customer", "customer name", "full name"}, required: true},
			{field: "phone", aliases: []string{"phone", "phone number", "telephone", "mobile"}, required: true},
			{field: "email", aliases: []string{"email", "e-mail", "email address"}},
			{field: "address", aliases: []string{"address", "delivery address"}},
			{field: "notes", aliases: []string{"notes", "comments"}},
		},
	},
}

// record is one data row keyed by logical field.
type record struct {
	line   int
	fields map[string]string
}

func (r record) get(field string) string {
	return r.fields[field]
}

// readRecords decodes r, sniffs the delimiter and maps every row after the
// first matching header onto the profile's fields.
func readRecords(kind Kind, r io.Reader) ([]record, error) {
	p, ok := profiles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	utf8r, err := NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows  [][]string
		lines []int
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}

	cols, headerIdx, ok := detectHeader(p, rows)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoHeader, kind)
	}

	var records []record

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}

		rec := record{line: lines[i], fields: make(map[string]string, len(cols))}
		for field, idx := range cols {
			rec.fields[field] = cellValue(row, idx)
		}

		records = append(records, rec)
	}

	return records, nil
}

// sniffDelimiter picks ';', tab or ',' by counting them in the first line.
func sniffDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))

	best, bestCount := ',', bytes.Count(line, []byte(","))

	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}

// detectHeader returns the field to column index map of the first row that
// carries every required column.
func detectHeader(p profile, rows [][]string) (map[string]int, int, bool) {
	for rowIdx, row := range rows {
		byName := make(map[string]int, len(row))

		for i, cell := range row {
			if name := normalize(cell); name != "" {
				if _, dup := byName[name]; !dup {
					byName[name] = i
				}
			}
		}

		cols := make(map[string]int)
		missing := false

		for _, c := range p.columns {
			idx, found := -1, false

			for _, alias := range c.aliases {
				if idx, found = byName[normalize(alias)]; found {
					break
				}
			}

			if found {
				cols[c.field] = idx
			} else if c.required {
				missing = true
				break
			}
		}

		if !missing {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ", "(", "", ")", "", ":", "").Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
