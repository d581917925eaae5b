package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/hfadhel/consolepull/internal/metadata"
)

/*
Responsibilities

- Transform a sequence of loosely-typed JSON records into a Table with a
  deterministic column set
- Apply an ordered fallback ladder when the naive transform is unsafe

Fallback ladder, in order:
 1. empty input → empty table (flagged, not an error)
 2. non-mapping input coerced: a bare mapping becomes a one-element
    sequence; a scalar list is projected onto a single `value` column;
    anything else is stringified into a `data` column
 3. structural flattening: nested mappings become `parent_child` columns,
    one level only; structured leaf values (arrays, mappings below the
    flattening depth) are stringified in place
 4. column-union normalization: taken when flattening would collide keys;
    missing keys become empty cells, structures are stringified
 5. full stringification into a `data` column

Normalization is a total function: it always returns a table and never
propagates a fault. Stage selection is explicit control flow, not
exception-driven.
*/

const (
	scalarColumn = "value"
	blobColumn   = "data"
)

type SchemaNormalizer struct {
	metadataSink metadata.MetadataSink
}

func NewSchemaNormalizer(metadataSink metadata.MetadataSink) SchemaNormalizer {
	return SchemaNormalizer{
		metadataSink: metadataSink,
	}
}

// Normalize turns any JSON payload into a Table. Row count equals the
// effective record count after coercion; columns are the union of observed
// keys in first-seen order.
func (n *SchemaNormalizer) Normalize(payload any, dataset string) Table {
	records := coerceRecords(payload)
	if len(records) == 0 {
		return NewTable()
	}

	mappings, allMappings := asMappings(records)
	if !allMappings {
		return n.normalizeNonTabular(records, dataset)
	}

	table, err := flattenStrict(mappings)
	if err == nil {
		return table
	}
	n.recordFallback(dataset, "structural flattening", err.Error())

	table, err = normalizeByColumnUnion(mappings)
	if err == nil {
		return table
	}
	n.recordFallback(dataset, "column-union normalization", err.Error())

	return stringifyRecords(records)
}

func (n *SchemaNormalizer) recordFallback(dataset string, stage string, details string) {
	n.metadataSink.RecordError(
		time.Now(),
		"normalize",
		"SchemaNormalizer.Normalize",
		metadata.CauseContentInvalid,
		stage+" failed, degrading to next stage: "+details,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrDataset, dataset),
		},
	)
}

// normalizeNonTabular handles record sequences that are not mappings:
// all-scalar lists project onto a single value column, anything else is
// stringified wholesale.
func (n *SchemaNormalizer) normalizeNonTabular(records []any, dataset string) Table {
	allScalar := true
	for _, record := range records {
		if _, ok := formatScalar(record); !ok {
			allScalar = false
			break
		}
	}

	if allScalar {
		table := NewTable()
		for _, record := range records {
			cell, _ := formatScalar(record)
			table.AddRow(map[string]string{scalarColumn: cell}, []string{scalarColumn})
		}
		return table
	}

	n.recordFallback(dataset, "scalar projection", "mixed non-mapping records")
	return stringifyRecords(records)
}

// coerceRecords projects any JSON payload onto a record sequence.
func coerceRecords(payload any) []any {
	switch v := payload.(type) {
	case nil:
		return nil
	case []any:
		return v
	case map[string]any:
		return []any{v}
	default:
		return []any{v}
	}
}

func asMappings(records []any) ([]map[string]any, bool) {
	mappings := make([]map[string]any, 0, len(records))
	for _, record := range records {
		m, ok := record.(map[string]any)
		if !ok {
			return nil, false
		}
		mappings = append(mappings, m)
	}
	return mappings, true
}

// flattenStrict is the preferred transform: nested mappings flatten to
// parent_child keys, one level only. Structured leaf values (arrays,
// mappings below the flattening depth) are stringified in place rather
// than rejecting the record. The stage rejects only when a flattened key
// collides with an existing key, a shape column-union represents safely.
func flattenStrict(records []map[string]any) (Table, error) {
	table := NewTable()

	for _, record := range records {
		row := make(map[string]string, len(record))
		var keys []string

		addCell := func(key string, cell string) *NormalizeError {
			if _, taken := row[key]; taken {
				return &NormalizeError{
					Message:   "flattened key " + key + " collides with an existing key",
					Retryable: false,
					Cause:     ErrCauseColumnCollision,
				}
			}
			row[key] = cell
			keys = append(keys, key)
			return nil
		}

		for _, key := range sortedKeys(record) {
			switch value := record[key].(type) {
			case map[string]any:
				for _, subKey := range sortedKeys(value) {
					if err := addCell(key+"_"+subKey, stringifyCell(value[subKey])); err != nil {
						return Table{}, err
					}
				}
			default:
				if err := addCell(key, stringifyCell(value)); err != nil {
					return Table{}, err
				}
			}
		}

		table.AddRow(row, keys)
	}

	return table, nil
}

// normalizeByColumnUnion is the lenient transform: every value becomes a
// string cell (structures via JSON), and rows simply omit keys they lack.
func normalizeByColumnUnion(records []map[string]any) (Table, error) {
	table := NewTable()

	for _, record := range records {
		row := make(map[string]string, len(record))
		keys := sortedKeys(record)
		for _, key := range keys {
			row[key] = stringifyCell(record[key])
		}
		table.AddRow(row, keys)
	}

	return table, nil
}

// stringifyRecords is the last resort: one data column, one stringified
// record per row.
func stringifyRecords(records []any) Table {
	table := NewTable()
	for _, record := range records {
		table.AddRow(map[string]string{blobColumn: stringifyCell(record)}, []string{blobColumn})
	}
	return table
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// formatScalar renders a JSON scalar as its CSV cell text. The second
// return is false for structured values.
func formatScalar(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func stringifyCell(value any) string {
	if cell, ok := formatScalar(value); ok {
		return cell
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(encoded)
}
