package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type ValueKind int

const (
	KindText ValueKind = iota
	KindList
	KindBool
)

// FieldValue is a captured custom-field answer: free text, a list of
// selected options, or a toggle.
type FieldValue struct {
	Kind ValueKind
	Text string
	List []string
	Bool bool
}

func TextValue(s string) FieldValue        { return FieldValue{Kind: KindText, Text: s} }
func ListValue(items ...string) FieldValue { return FieldValue{Kind: KindList, List: items} }
func BoolValue(b bool) FieldValue          { return FieldValue{Kind: KindBool, Bool: b} }

// UnmarshalJSON accepts strings, arrays, booleans and numbers. Other JSON
// values are kept as their literal text.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty field value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				items = append(items, s)
				continue
			}
			items = append(items, string(bytes.TrimSpace(item)))
		}
		*v = ListValue(items...)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case 'n':
		*v = TextValue("")
	default:
		*v = TextValue(string(data))
	}
	return nil
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Text)
	}
}

// IsEmpty reports whether the value counts as unanswered. A toggle is
// always an answer, including false.
func (v FieldValue) IsEmpty() bool {
	switch v.Kind {
	case KindList:
		return len(v.List) == 0
	case KindBool:
		return false
	default:
		return strings.TrimSpace(v.Text) == ""
	}
}

// Encode renders the value for storage: text as is, lists as a JSON array,
// toggles as "true"/"false".
func (v FieldValue) Encode() string {
	switch v.Kind {
	case KindList:
		if v.List == nil {
			return "[]"
		}
		b, _ := json.Marshal(v.List)
		return string(b)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return v.Text
	}
}

// DecodeStoredValue reads a stored value back. JSON arrays become lists and
// JSON booleans toggles; JSON strings are unquoted; anything that does not
// parse as one of those is treated as raw text.
func DecodeStoredValue(raw string) FieldValue {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TextValue(raw)
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			list := make([]string, 0, len(items))
			for _, item := range items {
				var s string
				if err := json.Unmarshal(item, &s); err == nil {
					list = append(list, s)
				} else {
					list = append(list, string(bytes.TrimSpace(item)))
				}
			}
			return ListValue(list...)
		}
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return TextValue(s)
		}
	}
	switch trimmed {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	return TextValue(raw)
}

// DisplayValue renders a stored value for people: lists joined with ", ",
// toggles mapped to the field's first/second option (default Yes/No), and
// "-" for empty values.
func DisplayValue(field *CustomField, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "-"
	}
	v := DecodeStoredValue(raw)

	isToggle := field != nil && field.ControlType == ControlToggle
	if isToggle && v.Kind == KindText && (v.Text == "true" || v.Text == "false") {
		v = BoolValue(v.Text == "true")
	}
	if isToggle && v.Kind == KindBool {
		yes, no := "Yes", "No"
		if len(field.Options) >= 2 {
			yes, no = field.Options[0], field.Options[1]
		}
		if v.Bool {
			return yes
		}
		return no
	}

	switch v.Kind {
	case KindList:
		if len(v.List) == 0 {
			return "-"
		}
		return strings.Join(v.List, ", ")
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		if strings.TrimSpace(v.Text) == "" {
			return "-"
		}
		return v.Text
	}
}
