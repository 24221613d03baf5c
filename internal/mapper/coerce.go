package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/catalise/fundingest/internal/models"
)

// Date layouts accepted from the source, tried in order. The custodian
// mixes ISO dates, RFC3339 timestamps and Brazilian day-first dates.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
}

var truthy = map[string]bool{"true": true, "1": true, "yes": true, "sim": true, "s": true, "t": true}
var falsy = map[string]bool{"false": true, "0": true, "no": true, "nao": true, "não": true, "n": true, "f": true}

// coerce converts one raw source value to the declared column type.
// String values arrive trimmed; decimals are rounded half away from zero
// to the declared scale.
func coerce(raw any, typ models.ColumnType, scale int32) (any, error) {
	switch typ {
	case models.ColumnString, models.ColumnText:
		return strings.TrimSpace(stringify(raw)), nil
	case models.ColumnDate:
		return coerceDate(raw)
	case models.ColumnDecimal:
		d, err := coerceDecimal(raw)
		if err != nil {
			return nil, err
		}
		return d.Round(scale), nil
	case models.ColumnPercent:
		// Delivered as a percentage; stored as its decimal fraction.
		d, err := coerceDecimal(raw)
		if err != nil {
			return nil, err
		}
		return d.Div(decimal.NewFromInt(100)).Round(scale), nil
	case models.ColumnInteger:
		return coerceInteger(raw)
	case models.ColumnBoolean:
		return coerceBool(raw)
	default:
		return nil, fmt.Errorf("unsupported column type %q", typ)
	}
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceDate(raw any) (time.Time, error) {
	s := strings.TrimSpace(stringify(raw))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	// Timestamps keep only the calendar date ("2025-05-29T00:00:00").
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func coerceDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimPrefix(s, "R$")
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Decimal{}, fmt.Errorf("empty decimal")
		}
		// Brazilian formatting: "1.234,56" → "1234.56".
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("unparseable decimal %q", v)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unparseable decimal %v (%T)", raw, raw)
	}
}

func coerceInteger(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("non-integral value %v for integer column", v)
		}
		return int64(v), nil
	case string:
		s := strings.TrimSpace(v)
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable integer %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unparseable integer %v (%T)", raw, raw)
	}
}

func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if truthy[s] {
			return true, nil
		}
		if falsy[s] {
			return false, nil
		}
		return false, fmt.Errorf("unparseable boolean %q", v)
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("unparseable boolean %v (%T)", raw, raw)
	}
}
