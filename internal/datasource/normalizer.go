package datasource

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/streak-oracle/internal/models"
)

// Field aliases, most preferred first.
var (
	indexKeys  = []string{"session", "phien", "id", "s", "index"}
	totalKeys  = []string{"total", "tong", "sum", "t", "total_points"}
	diceKeys   = []string{"dice", "xuc_xac", "xucxac", "x", "d"}
	resultKeys = []string{"result", "ket_qua", "res", "outcome", "kq"}
)

var bigThreshold = decimal.NewFromFloat(models.BigThreshold)

// Normalize maps heterogeneous upstream records to events. Records without an index, a total
// or a resolvable label are dropped; a repeated index keeps its last occurrence. The result is
// sorted ascending by index.
func Normalize(records []RawRecord) []models.Event {
	events := make([]models.Event, 0, len(records))
	position := make(map[int64]int, len(records))
	for _, rec := range records {
		e, ok := NormalizeRecord(rec)
		if !ok {
			continue
		}
		if i, seen := position[e.Index]; seen {
			events[i] = e
			continue
		}
		position[e.Index] = len(events)
		events = append(events, e)
	}
	slices.SortFunc(events, func(a, b models.Event) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return events
}

// NormalizeRecord converts one record, reporting false when it cannot be used.
func NormalizeRecord(rec RawRecord) (models.Event, bool) {
	idx, ok := numeric(first(rec, indexKeys))
	if !ok || !idx.IsInteger() {
		return models.Event{}, false
	}

	rawResult := first(rec, resultKeys)
	total, hasTotal := numeric(first(rec, totalKeys))
	if !hasTotal {
		total, hasTotal = numeric(rawResult)
	}
	if !hasTotal {
		return models.Event{}, false
	}

	label, ok := resolveLabel(rawResult, total)
	if !ok {
		return models.Event{}, false
	}

	value := total.InexactFloat64()
	return models.Event{
		Index:         idx.IntPart(),
		MeasuredValue: &value,
		Label:         label,
		Dice:          dice(first(rec, diceKeys)),
	}, true
}

// resolveLabel applies the category string first, then a numeric result, then the total.
func resolveLabel(rawResult any, total decimal.Decimal) (models.Label, bool) {
	if s, isString := rawResult.(string); isString {
		if l, ok := ParseResultLabel(s); ok {
			return l, true
		}
		if d, ok := numeric(s); ok {
			return thresholdLabel(d), true
		}
		return "", false
	}
	if d, ok := numeric(rawResult); ok {
		return thresholdLabel(d), true
	}
	return thresholdLabel(total), true
}

// ParseResultLabel resolves a category string such as "Tài", "xiu", "big" or "x".
func ParseResultLabel(raw string) (models.Label, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "t") && strings.Contains(s, "ài"), strings.Contains(s, "tai"), s == "t", strings.Contains(s, "big"):
		return models.LabelA, true
	case strings.Contains(s, "x") && strings.Contains(s, "ỉu"), strings.Contains(s, "xiu"), s == "x", strings.Contains(s, "small"):
		return models.LabelB, true
	}
	return "", false
}

func thresholdLabel(d decimal.Decimal) models.Label {
	if d.GreaterThan(bigThreshold) {
		return models.LabelA
	}
	return models.LabelB
}

// first returns the value of the first alias present with a non-null value.
func first(rec RawRecord, keys []string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func numeric(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	}
	return decimal.Decimal{}, false
}

func dice(v any) []int {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		d, ok := numeric(item)
		if !ok || !d.IsInteger() {
			return nil
		}
		out = append(out, int(d.IntPart()))
	}
	return out
}
