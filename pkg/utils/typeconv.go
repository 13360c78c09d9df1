package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ConvertDateTime converts a CSV cell, SQL column or BSON value to a time.
// A non-empty format is tried before the built-in layouts.
func ConvertDateTime(val interface{}, format string) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case primitive.DateTime:
		return v.Time().UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		if format != "" {
			if t, err := time.Parse(format, s); err == nil {
				return t, nil
			}
		}
		for _, f := range dateLayouts {
			if t, err := time.Parse(f, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse datetime: %s", v)
	case []byte:
		return ConvertDateTime(string(v), format)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to datetime", val)
	}
}

// ConvertToFloat converts a numeric value. Nil and blank strings yield nil.
func ConvertToFloat(val interface{}) (*float64, error) {
	var f float64
	switch v := val.(type) {
	case nil:
		return nil, nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case primitive.Decimal128:
		return ConvertToFloat(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to number", v)
		}
		f = parsed
	case []byte:
		return ConvertToFloat(string(v))
	default:
		return nil, fmt.Errorf("cannot convert %T to number", val)
	}
	return &f, nil
}

// ConvertToString renders a scalar as text; nil becomes "".
func ConvertToString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case primitive.ObjectID:
		return v.Hex()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
