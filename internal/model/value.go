package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// ValueKind tags a CellValue. The set is closed: extraction coerces every
// cell into exactly one of these kinds and all downstream comparison logic
// dispatches on the tag.
type ValueKind string

const (
	KindNumber  ValueKind = "number"
	KindText    ValueKind = "text"
	KindDate    ValueKind = "date"
	KindBoolean ValueKind = "boolean"
	KindMissing ValueKind = "missing"
)

// CellValue is a typed value extracted from one spreadsheet cell. Exactly one
// of the payload fields is meaningful, selected by Kind.
type CellValue struct {
	Kind   ValueKind `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Text   string    `json:"text,omitempty"`
	Date   time.Time `json:"date,omitempty"`
	Bool   bool      `json:"bool,omitempty"`
}

// NumberValue returns a CellValue tagged as a number.
func NumberValue(n float64) CellValue { return CellValue{Kind: KindNumber, Number: n} }

// TextValue returns a CellValue tagged as text.
func TextValue(s string) CellValue { return CellValue{Kind: KindText, Text: s} }

// DateValue returns a CellValue tagged as a date.
func DateValue(t time.Time) CellValue { return CellValue{Kind: KindDate, Date: t} }

// BoolValue returns a CellValue tagged as a boolean.
func BoolValue(b bool) CellValue { return CellValue{Kind: KindBoolean, Bool: b} }

// MissingValue returns the missing sentinel. All nine extraction error
// categories resolve to this value rather than propagating.
func MissingValue() CellValue { return CellValue{Kind: KindMissing} }

// IsMissing reports whether the value is the missing sentinel.
func (v CellValue) IsMissing() bool { return v.Kind == KindMissing }

// String renders the value for reports and logs.
func (v CellValue) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindText:
		return v.Text
	case KindDate:
		return v.Date.Format("2006-01-02")
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// MarshalJSON emits a compact {kind, value} form so the missing sentinel and
// zero numbers remain distinguishable in persisted results.
func (v CellValue) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind  ValueKind `json:"kind"`
		Value any       `json:"value,omitempty"`
	}{Kind: v.Kind}
	switch v.Kind {
	case KindNumber:
		out.Value = v.Number
	case KindText:
		out.Value = v.Text
	case KindDate:
		out.Value = v.Date.Format(time.RFC3339)
	case KindBoolean:
		out.Value = v.Bool
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *CellValue) UnmarshalJSON(data []byte) error {
	var in struct {
		Kind  ValueKind       `json:"kind"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	v.Kind = in.Kind
	switch in.Kind {
	case KindNumber:
		return json.Unmarshal(in.Value, &v.Number)
	case KindText:
		return json.Unmarshal(in.Value, &v.Text)
	case KindDate:
		var s string
		if err := json.Unmarshal(in.Value, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		v.Date = t
	case KindBoolean:
		return json.Unmarshal(in.Value, &v.Bool)
	}
	return nil
}
