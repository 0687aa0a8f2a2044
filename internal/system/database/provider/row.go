package provider

import "strconv"

// String returns the string value of a column, or "" when absent.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// Int64 returns the integer value of a column, or 0 when absent.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// NullInt64 returns a pointer to the integer value of a column, or nil for NULL.
func (r Row) NullInt64(col string) *int64 {
	if r[col] == nil {
		return nil
	}
	v := r.Int64(col)
	return &v
}

// NullString returns a pointer to the string value of a column, or nil for NULL.
func (r Row) NullString(col string) *string {
	if r[col] == nil {
		return nil
	}
	v := r.String(col)
	return &v
}

// Bool reads a boolean column; MySQL reports TINYINT(1) as an integer.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}
