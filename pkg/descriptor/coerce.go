package descriptor

import (
	"strconv"
	"strings"
)

// Coerce normalises a raw value to the field kind's native type so rule
// evaluation and default seeding always see a typed value. Values that do not
// look like the target type pass through unchanged.
func (t FieldType) Coerce(value any) any {
	switch t {
	case FieldTypeNumber:
		return coerceNumber(value)
	case FieldTypeCheckbox:
		return coerceBool(value)
	default:
		return value
	}
}

func coerceNumber(value any) any {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint64:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return value
		}
		return parsed
	default:
		return value
	}
}

func coerceBool(value any) any {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true
		case "false":
			return false
		}
		return value
	default:
		return value
	}
}
