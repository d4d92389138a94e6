package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Access flags for attributes.
type Access uint8

const (
	// AccessRead allows reading the attribute.
	AccessRead Access = 1 << iota

	// AccessWrite allows writing the attribute.
	AccessWrite

	// AccessReadOnly allows reading only.
	AccessReadOnly = AccessRead

	// AccessReadWrite allows reading and writing.
	AccessReadWrite = AccessRead | AccessWrite
)

// CanRead returns true if reading is allowed.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite returns true if writing is allowed.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// String returns the access flags as a string.
func (a Access) String() string {
	var s string
	if a.CanRead() {
		s += "R"
	}
	if a.CanWrite() {
		s += "W"
	}
	if s == "" {
		return "-"
	}
	return s
}

// ParseAccess parses "r", "w", "rw" (case-insensitive).
func ParseAccess(s string) (Access, error) {
	var a Access
	for _, c := range s {
		switch c {
		case 'r', 'R':
			a |= AccessRead
		case 'w', 'W':
			a |= AccessWrite
		default:
			return 0, fmt.Errorf("invalid access flag %q", c)
		}
	}
	if a == 0 {
		return 0, fmt.Errorf("empty access flags")
	}
	return a, nil
}

// DataType represents the type of an attribute value.
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypeBool
	DataTypeInt8
	DataTypeInt16
	DataTypeInt32
	DataTypeInt64
	DataTypeUint8
	DataTypeUint16
	DataTypeUint32
	DataTypeUint64
	DataTypeFloat32
	DataTypeFloat64
	DataTypeString
	DataTypeBytes
	DataTypeTime
)

var dataTypeNames = []string{
	"unknown", "bool", "int8", "int16", "int32", "int64",
	"uint8", "uint16", "uint32", "uint64", "float32", "float64",
	"string", "bytes", "time",
}

// String returns the data type name.
func (d DataType) String() string {
	if int(d) < len(dataTypeNames) {
		return dataTypeNames[d]
	}
	return "unknown"
}

// ParseDataType returns the DataType with the given name.
func ParseDataType(name string) (DataType, error) {
	for i, n := range dataTypeNames {
		if n == name && i != int(DataTypeUnknown) {
			return DataType(i), nil
		}
	}
	return DataTypeUnknown, fmt.Errorf("unknown data type %q", name)
}

// ZeroValue returns the canonical zero value for the type.
func (d DataType) ZeroValue() any {
	switch d {
	case DataTypeBool:
		return false
	case DataTypeInt8:
		return int8(0)
	case DataTypeInt16:
		return int16(0)
	case DataTypeInt32:
		return int32(0)
	case DataTypeInt64:
		return int64(0)
	case DataTypeUint8:
		return uint8(0)
	case DataTypeUint16:
		return uint16(0)
	case DataTypeUint32:
		return uint32(0)
	case DataTypeUint64:
		return uint64(0)
	case DataTypeFloat32:
		return float32(0)
	case DataTypeFloat64:
		return float64(0)
	case DataTypeString:
		return ""
	case DataTypeBytes:
		return []byte{}
	case DataTypeTime:
		return time.Time{}
	default:
		return nil
	}
}

// AttributeMetadata describes an attribute's properties.
// It is immutable once handed to a registry.
type AttributeMetadata struct {
	// Name identifies the attribute within its resource.
	Name string

	// Type is the data type of the attribute value.
	Type DataType

	// Access defines the allowed operations.
	Access Access

	// Nullable indicates if nil is a valid value.
	Nullable bool

	// MinValue is the minimum allowed value (for numeric types).
	MinValue any

	// MaxValue is the maximum allowed value (for numeric types).
	MaxValue any

	// Default is the value reported before the first write.
	Default any

	// Unit is the unit of measurement (e.g., "C", "W", "%").
	Unit string

	// Description is a human-readable description.
	Description string

	// ReadTimeout bounds a single backend read. Zero means no bound.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single backend write. Zero means no bound.
	WriteTimeout time.Duration
}

// Identity returns the attribute name, or "" for nil metadata.
func (m *AttributeMetadata) Identity() string {
	if m == nil {
		return ""
	}
	return m.Name
}

// Kind returns KindAttribute.
func (m *AttributeMetadata) Kind() Kind { return KindAttribute }

// Accept calls v.VisitAttribute.
func (m *AttributeMetadata) Accept(v Visitor) error { return v.VisitAttribute(m) }

func (*AttributeMetadata) sealed() {}

// DefaultValue returns Default, or the zero value of Type when unset.
func (m *AttributeMetadata) DefaultValue() any {
	if m.Default != nil {
		if v, err := m.Convert(m.Default); err == nil {
			return v
		}
		return m.Default
	}
	if m.Nullable {
		return nil
	}
	return m.Type.ZeroValue()
}

// Validate checks nullability, type and range of value.
func (m *AttributeMetadata) Validate(value any) error {
	if value == nil {
		if !m.Nullable {
			return ErrAttributeNotNullable
		}
		return nil
	}

	switch m.Type {
	case DataTypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: expected bool", ErrAttributeValueType)
		}
	case DataTypeInt8, DataTypeInt16, DataTypeInt32, DataTypeInt64:
		if !isIntegerType(value) {
			return fmt.Errorf("%w: expected integer", ErrAttributeValueType)
		}
	case DataTypeUint8, DataTypeUint16, DataTypeUint32, DataTypeUint64:
		if !isIntegerType(value) {
			return fmt.Errorf("%w: expected unsigned integer", ErrAttributeValueType)
		}
		if v, _ := toFloat64(value); v < 0 {
			return fmt.Errorf("%w: %v < 0", ErrAttributeOutOfRange, value)
		}
	case DataTypeFloat32, DataTypeFloat64:
		if !isNumericType(value) {
			return fmt.Errorf("%w: expected float", ErrAttributeValueType)
		}
	case DataTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: expected string", ErrAttributeValueType)
		}
	case DataTypeBytes:
		if _, ok := value.([]byte); !ok {
			return fmt.Errorf("%w: expected bytes", ErrAttributeValueType)
		}
	case DataTypeTime:
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("%w: expected time", ErrAttributeValueType)
		}
	}

	if m.MinValue != nil || m.MaxValue != nil {
		return m.checkRange(value)
	}
	return nil
}

// checkRange validates numeric range constraints.
func (m *AttributeMetadata) checkRange(value any) error {
	v, ok := toFloat64(value)
	if !ok {
		return nil
	}

	if m.MinValue != nil {
		min, _ := toFloat64(m.MinValue)
		if v < min {
			return fmt.Errorf("%w: %v < %v", ErrAttributeOutOfRange, value, m.MinValue)
		}
	}

	if m.MaxValue != nil {
		max, _ := toFloat64(m.MaxValue)
		if v > max {
			return fmt.Errorf("%w: %v > %v", ErrAttributeOutOfRange, value, m.MaxValue)
		}
	}

	return nil
}

// Convert normalizes value to the canonical Go type of the attribute's
// DataType. Strings are parsed, numeric values of other widths are
// converted when they fit. The result is not range checked; call Validate.
func (m *AttributeMetadata) Convert(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok && m.Type != DataTypeString {
		return m.parse(s)
	}

	switch m.Type {
	case DataTypeBool, DataTypeString, DataTypeBytes, DataTypeUnknown:
		return value, nil
	case DataTypeTime:
		return toTime(value)
	case DataTypeFloat32, DataTypeFloat64:
		f, ok := toFloat64(value)
		if !ok {
			return nil, fmt.Errorf("%w: expected float, got %T", ErrAttributeValueType, value)
		}
		if m.Type == DataTypeFloat32 {
			return float32(f), nil
		}
		return f, nil
	}

	if !isIntegerType(value) {
		return nil, fmt.Errorf("%w: expected integer, got %T", ErrAttributeValueType, value)
	}
	return m.fromInteger(value)
}

func (m *AttributeMetadata) parse(s string) (any, error) {
	switch m.Type {
	case DataTypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttributeValueType, err)
		}
		return b, nil
	case DataTypeInt8, DataTypeInt16, DataTypeInt32, DataTypeInt64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttributeValueType, err)
		}
		return m.fromInteger(n)
	case DataTypeUint8, DataTypeUint16, DataTypeUint32, DataTypeUint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttributeValueType, err)
		}
		return m.fromInteger(n)
	case DataTypeFloat32, DataTypeFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttributeValueType, err)
		}
		if m.Type == DataTypeFloat32 {
			return float32(f), nil
		}
		return f, nil
	case DataTypeBytes:
		return []byte(s), nil
	case DataTypeTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttributeValueType, err)
		}
		return t, nil
	default:
		return s, nil
	}
}

// fromInteger narrows an integer value. Bounds are checked in the integer
// domain of the input, so values near the 64-bit limits are exact.
func (m *AttributeMetadata) fromInteger(value any) (any, error) {
	i, isSigned := toInt64(value)
	u, _ := toUint64(value)

	var fits bool
	switch m.Type {
	case DataTypeInt8:
		fits = fitsSigned(i, u, isSigned, math.MinInt8, math.MaxInt8)
	case DataTypeInt16:
		fits = fitsSigned(i, u, isSigned, math.MinInt16, math.MaxInt16)
	case DataTypeInt32:
		fits = fitsSigned(i, u, isSigned, math.MinInt32, math.MaxInt32)
	case DataTypeInt64:
		fits = fitsSigned(i, u, isSigned, math.MinInt64, math.MaxInt64)
	case DataTypeUint8:
		fits = fitsUnsigned(i, u, isSigned, math.MaxUint8)
	case DataTypeUint16:
		fits = fitsUnsigned(i, u, isSigned, math.MaxUint16)
	case DataTypeUint32:
		fits = fitsUnsigned(i, u, isSigned, math.MaxUint32)
	default:
		fits = fitsUnsigned(i, u, isSigned, math.MaxUint64)
	}
	if !fits {
		return nil, fmt.Errorf("%w: %v does not fit %s", ErrAttributeOutOfRange, value, m.Type)
	}

	if isSigned {
		u = uint64(i)
	} else {
		i = int64(u)
	}
	switch m.Type {
	case DataTypeInt8:
		return int8(i), nil
	case DataTypeInt16:
		return int16(i), nil
	case DataTypeInt32:
		return int32(i), nil
	case DataTypeInt64:
		return i, nil
	case DataTypeUint8:
		return uint8(u), nil
	case DataTypeUint16:
		return uint16(u), nil
	case DataTypeUint32:
		return uint32(u), nil
	default:
		return u, nil
	}
}

func fitsSigned(i int64, u uint64, isSigned bool, lo, hi int64) bool {
	if isSigned {
		return i >= lo && i <= hi
	}
	return u <= uint64(hi)
}

func fitsUnsigned(i int64, u uint64, isSigned bool, hi uint64) bool {
	if isSigned {
		return i >= 0 && uint64(i) <= hi
	}
	return u <= hi
}

// toTime accepts a time.Time or a Unix timestamp in seconds. Fractional
// seconds are kept to the nanosecond.
func toTime(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case float32, float64:
		f, _ := toFloat64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v is not a time", ErrAttributeValueType, v)
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	if i, ok := toInt64(value); ok {
		return time.Unix(i, 0).UTC(), nil
	}
	if u, ok := toUint64(value); ok {
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %v is not a time", ErrAttributeOutOfRange, u)
		}
		return time.Unix(int64(u), 0).UTC(), nil
	}
	return nil, fmt.Errorf("%w: expected time, got %T", ErrAttributeValueType, value)
}

// Helper functions for type checking.

func isIntegerType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func isNumericType(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// toInt64 returns the value as int64 and whether it came from a signed type.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
