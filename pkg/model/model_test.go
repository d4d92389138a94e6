package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestAttributeMetadataIdentity(t *testing.T) {
	meta := &AttributeMetadata{Name: "temperature", Type: DataTypeFloat64, Access: AccessReadWrite}

	if meta.Identity() != "temperature" {
		t.Errorf("Identity() = %q, want %q", meta.Identity(), "temperature")
	}
	if meta.Kind() != KindAttribute {
		t.Errorf("Kind() = %v, want %v", meta.Kind(), KindAttribute)
	}
}

func TestNotificationMetadataIdentity(t *testing.T) {
	meta := &NotificationMetadata{Types: []string{"alarm", "alarm.cleared"}}

	if meta.Identity() != "alarm" {
		t.Errorf("Identity() = %q, want %q", meta.Identity(), "alarm")
	}
	if !meta.Matches("alarm.cleared") {
		t.Error("expected Matches(alarm.cleared)")
	}
	if meta.Matches("other") {
		t.Error("unexpected Matches(other)")
	}

	empty := &NotificationMetadata{}
	if empty.Identity() != "" {
		t.Errorf("Identity() of empty = %q, want empty", empty.Identity())
	}
}

func TestSameFeature(t *testing.T) {
	a1 := &AttributeMetadata{Name: "x"}
	a2 := &AttributeMetadata{Name: "x", Unit: "C"}
	n1 := &NotificationMetadata{Types: []string{"x"}}

	if !SameFeature(a1, a2) {
		t.Error("attributes with same name should be the same feature")
	}
	if SameFeature(a1, n1) {
		t.Error("attribute and notification must never be the same feature")
	}
	if SameFeature(a1, nil) {
		t.Error("nil is never the same feature")
	}
}

type kindCounter struct {
	attributes    int
	notifications int
}

func (k *kindCounter) VisitAttribute(*AttributeMetadata) error {
	k.attributes++
	return nil
}

func (k *kindCounter) VisitNotification(*NotificationMetadata) error {
	k.notifications++
	return nil
}

func TestVisitorDispatch(t *testing.T) {
	var k kindCounter
	features := []Metadata{
		&AttributeMetadata{Name: "a"},
		&NotificationMetadata{Types: []string{"n"}},
		&AttributeMetadata{Name: "b"},
	}
	for _, f := range features {
		if err := f.Accept(&k); err != nil {
			t.Fatalf("Accept failed: %v", err)
		}
	}
	if k.attributes != 2 || k.notifications != 1 {
		t.Errorf("got %d attributes, %d notifications; want 2, 1", k.attributes, k.notifications)
	}
}

func TestAttributeValidateNullable(t *testing.T) {
	notNullable := &AttributeMetadata{Name: "a", Type: DataTypeInt32}
	nullable := &AttributeMetadata{Name: "b", Type: DataTypeInt32, Nullable: true}

	if err := notNullable.Validate(nil); !errors.Is(err, ErrAttributeNotNullable) {
		t.Errorf("expected ErrAttributeNotNullable, got %v", err)
	}
	if err := nullable.Validate(nil); err != nil {
		t.Errorf("expected no error for nullable, got %v", err)
	}
}

func TestAttributeValidateRange(t *testing.T) {
	meta := &AttributeMetadata{
		Name:     "level",
		Type:     DataTypeInt32,
		MinValue: int32(0),
		MaxValue: int32(100),
	}

	tests := []struct {
		value   any
		wantErr error
	}{
		{int32(0), nil},
		{int32(100), nil},
		{int32(-1), ErrAttributeOutOfRange},
		{int32(101), ErrAttributeOutOfRange},
		{"50", ErrAttributeValueType},
		{3.5, ErrAttributeValueType},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.value), func(t *testing.T) {
			err := meta.Validate(tt.value)
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil && !errors.Is(err, ErrInvalidAttributeValue) {
				t.Errorf("expected error to be classified invalid-value, got %v", err)
			}
		})
	}
}

func TestAttributeValidateUnsignedNegative(t *testing.T) {
	meta := &AttributeMetadata{Name: "count", Type: DataTypeUint16}
	if err := meta.Validate(-3); !errors.Is(err, ErrAttributeOutOfRange) {
		t.Errorf("expected ErrAttributeOutOfRange, got %v", err)
	}
}

func TestAttributeConvert(t *testing.T) {
	tests := []struct {
		typ  DataType
		in   any
		want any
	}{
		{DataTypeFloat64, "99.5", 99.5},
		{DataTypeFloat64, int(3), float64(3)},
		{DataTypeFloat32, 1.5, float32(1.5)},
		{DataTypeInt16, "-12", int16(-12)},
		{DataTypeInt64, uint64(7), int64(7)},
		{DataTypeUint8, int64(200), uint8(200)},
		{DataTypeInt64, uint64(math.MaxInt64), int64(math.MaxInt64)},
		{DataTypeUint64, uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{DataTypeUint64, "18446744073709551615", uint64(math.MaxUint64)},
		{DataTypeInt64, "-9223372036854775808", int64(math.MinInt64)},
		{DataTypeBool, "true", true},
		{DataTypeString, "99.5", "99.5"},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			meta := &AttributeMetadata{Name: "x", Type: tt.typ}
			got, err := meta.Convert(tt.in)
			if err != nil {
				t.Fatalf("Convert(%v) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Convert(%v) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestAttributeConvertRejects(t *testing.T) {
	if _, err := (&AttributeMetadata{Type: DataTypeUint8}).Convert(300); !errors.Is(err, ErrAttributeOutOfRange) {
		t.Errorf("expected ErrAttributeOutOfRange, got %v", err)
	}
	if _, err := (&AttributeMetadata{Type: DataTypeInt32}).Convert("abc"); !errors.Is(err, ErrAttributeValueType) {
		t.Errorf("expected ErrAttributeValueType, got %v", err)
	}
	if _, err := (&AttributeMetadata{Type: DataTypeFloat64}).Convert(true); !errors.Is(err, ErrAttributeValueType) {
		t.Errorf("expected ErrAttributeValueType, got %v", err)
	}
}

func TestAttributeConvertRejectsAtIntegerLimits(t *testing.T) {
	tests := []struct {
		name string
		typ  DataType
		in   any
		want error
	}{
		{"uint64 above int64", DataTypeInt64, uint64(1) << 63, ErrAttributeOutOfRange},
		{"uint64 max to int64", DataTypeInt64, uint64(math.MaxUint64), ErrAttributeOutOfRange},
		{"uint32 above int32", DataTypeInt32, uint32(math.MaxInt32) + 1, ErrAttributeOutOfRange},
		{"negative to uint64", DataTypeUint64, int64(-1), ErrAttributeOutOfRange},
		{"min int64 to uint64", DataTypeUint64, int64(math.MinInt64), ErrAttributeOutOfRange},
		{"uint64 above uint32", DataTypeUint32, uint64(math.MaxUint32) + 1, ErrAttributeOutOfRange},
		{"string above int64", DataTypeInt64, "9223372036854775808", ErrAttributeValueType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&AttributeMetadata{Name: "x", Type: tt.typ}).Convert(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("Convert(%v) = %v (%T), %v; want %v", tt.in, got, got, err, tt.want)
			}
		})
	}
}

func TestAttributeConvertTime(t *testing.T) {
	meta := &AttributeMetadata{Name: "seen", Type: DataTypeTime}
	want := time.Date(2026, 1, 2, 3, 4, 5, 600000000, time.UTC)

	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"time", want, want},
		{"rfc3339", "2026-01-02T03:04:05.6Z", want},
		{"unix seconds", uint64(want.Unix()), want.Truncate(time.Second)},
		{"signed seconds", want.Unix(), want.Truncate(time.Second)},
		{"fractional seconds", 1767323045.5, time.Date(2026, 1, 2, 3, 4, 5, 500000000, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := meta.Convert(tt.in)
			if err != nil {
				t.Fatalf("Convert(%v) failed: %v", tt.in, err)
			}
			tm, ok := got.(time.Time)
			if !ok {
				t.Fatalf("Convert(%v) = %v (%T), want time.Time", tt.in, got, got)
			}
			if !tm.Equal(tt.want) {
				t.Errorf("Convert(%v) = %v, want %v", tt.in, tm, tt.want)
			}
			if err := meta.Validate(got); err != nil {
				t.Errorf("Validate(%v) failed: %v", got, err)
			}
		})
	}

	if _, err := meta.Convert(true); !errors.Is(err, ErrAttributeValueType) {
		t.Errorf("expected ErrAttributeValueType, got %v", err)
	}
	if _, err := meta.Convert(uint64(math.MaxUint64)); !errors.Is(err, ErrInvalidAttributeValue) {
		t.Errorf("expected invalid value, got %v", err)
	}
}

func TestAttributeDefaultValue(t *testing.T) {
	withDefault := &AttributeMetadata{Type: DataTypeFloat64, Default: 21}
	if v := withDefault.DefaultValue(); v != float64(21) {
		t.Errorf("DefaultValue() = %v (%T), want 21 (float64)", v, v)
	}

	zero := &AttributeMetadata{Type: DataTypeString}
	if v := zero.DefaultValue(); v != "" {
		t.Errorf("DefaultValue() = %v, want empty string", v)
	}

	nullable := &AttributeMetadata{Type: DataTypeInt32, Nullable: true}
	if v := nullable.DefaultValue(); v != nil {
		t.Errorf("DefaultValue() = %v, want nil", v)
	}
}

func TestParseHelpers(t *testing.T) {
	dt, err := ParseDataType("float64")
	if err != nil || dt != DataTypeFloat64 {
		t.Errorf("ParseDataType(float64) = %v, %v", dt, err)
	}
	if _, err := ParseDataType("unknown"); err == nil {
		t.Error("expected error for unknown data type")
	}

	a, err := ParseAccess("rw")
	if err != nil || a != AccessReadWrite {
		t.Errorf("ParseAccess(rw) = %v, %v", a, err)
	}
	if a.String() != "RW" {
		t.Errorf("String() = %q, want RW", a.String())
	}
	if _, err := ParseAccess("x"); err == nil {
		t.Error("expected error for invalid access")
	}

	if ParseSeverity("warning") != SeverityWarning {
		t.Error("ParseSeverity(warning) mismatch")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Category
	}{
		{nil, CategoryNone},
		{ErrAttributeNotFound, CategoryNotFound},
		{ErrFeatureDisconnected, CategoryNotFound},
		{fmt.Errorf("%w: resource %q", ErrNotificationNotFound, "r"), CategoryNotFound},
		{ErrAttributeOutOfRange, CategoryInvalidValue},
		{ErrAttributeNotWritable, CategoryInvalidValue},
		{ErrValueExpired, CategoryStale},
		{&InternalError{Op: "get", Feature: "x", Err: errors.New("boom")}, CategoryInternal},
		{errors.New("anything else"), CategoryInternal},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestTranslate(t *testing.T) {
	if Translate("get", "r", "a", nil) != nil {
		t.Error("Translate(nil) should be nil")
	}

	if err := Translate("get", "r", "a", ErrAttributeNotFound); err != ErrAttributeNotFound {
		t.Errorf("taxonomy errors must pass through unchanged, got %v", err)
	}

	cause := errors.New("socket closed")
	err := Translate("get", "r", "a", cause)
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InternalError, got %T", err)
	}
	if ie.Resource != "r" || ie.Feature != "a" || ie.Op != "get" {
		t.Errorf("unexpected InternalError fields: %+v", ie)
	}
	if !errors.Is(err, cause) || !errors.Is(err, ErrInternal) {
		t.Error("InternalError must wrap the cause and match ErrInternal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	if Classify(Translate("set", "r", "a", ctx.Err())) != CategoryInternal {
		t.Error("deadline errors must be internal")
	}
}
