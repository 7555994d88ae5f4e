package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Results holds the named result fields of a response.
type Results map[string]any

// Has returns true if the field is present.
func (r Results) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Raw returns the undecoded value of a field.
func (r Results) Raw(field string) (any, error) {
	v, ok := r[field]
	if !ok {
		return nil, &FieldError{Field: field, Kind: FieldMissing}
	}
	return v, nil
}

// Int returns a field as an int.
func (r Results) Int(field string) (int, error) {
	v, err := r.Raw(field)
	if err != nil {
		return 0, err
	}
	n, err := toInt64(v)
	if err != nil || n < math.MinInt || n > math.MaxInt {
		return 0, &FieldError{Field: field, Kind: FieldType, Want: "int", Value: v}
	}
	return int(n), nil
}

// Float returns a field as a float64.
func (r Results) Float(field string) (float64, error) {
	v, err := r.Raw(field)
	if err != nil {
		return 0, err
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, &FieldError{Field: field, Kind: FieldType, Want: "float", Value: v}
	}
	return f, nil
}

// Bool returns a field as a bool.
// The ICL is not consistent about booleans; "true"/"false" strings and
// 0/1 numbers are accepted as well.
func (r Results) Bool(field string) (bool, error) {
	v, err := r.Raw(field)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, perr := strconv.ParseBool(b); perr == nil {
			return parsed, nil
		}
	default:
		if n, nerr := toInt64(v); nerr == nil && (n == 0 || n == 1) {
			return n == 1, nil
		}
	}
	return false, &FieldError{Field: field, Kind: FieldType, Want: "bool", Value: v}
}

// String returns a field as a string. Numbers and booleans are formatted.
func (r Results) String(field string) (string, error) {
	v, err := r.Raw(field)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	case int, int64, int32, uint32, uint64:
		return fmt.Sprint(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	}
	return "", &FieldError{Field: field, Kind: FieldType, Want: "string", Value: v}
}

// Map returns a nested object field.
func (r Results) Map(field string) (map[string]any, error) {
	v, err := r.Raw(field)
	if err != nil {
		return nil, err
	}
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case Results:
		return m, nil
	}
	return nil, &FieldError{Field: field, Kind: FieldType, Want: "object", Value: v}
}

// Slice returns an array field.
func (r Results) Slice(field string) ([]any, error) {
	v, err := r.Raw(field)
	if err != nil {
		return nil, err
	}
	s, ok := v.([]any)
	if !ok {
		return nil, &FieldError{Field: field, Kind: FieldType, Want: "array", Value: v}
	}
	return s, nil
}

// Decode converts a field into v by re-encoding it as JSON.
// Some ICL versions send nested data as a JSON string; that form is
// decoded as well.
func (r Results) Decode(field string, v any) error {
	raw, err := r.Raw(field)
	if err != nil {
		return err
	}
	var data []byte
	if s, ok := raw.(string); ok {
		data = []byte(s)
	} else {
		data, err = json.Marshal(raw)
		if err != nil {
			return &FieldError{Field: field, Kind: FieldType, Want: fmt.Sprintf("%T", v), Value: raw}
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &FieldError{Field: field, Kind: FieldType, Want: fmt.Sprintf("%T", v), Value: raw}
	}
	return nil
}

// Clone returns a shallow copy of the results.
func (r Results) Clone() Results {
	out := make(Results, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToInt64 converts a decoded JSON value to int64.
// It returns false if the value is not an integral number.
func ToInt64(v any) (int64, bool) {
	n, err := toInt64(v)
	return n, err == nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("value %v is not integral", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	return float64(i), nil
}
