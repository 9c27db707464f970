package domain

import "strings"

type ControlType string

const (
	ControlText        ControlType = "text"
	ControlTextarea    ControlType = "textarea"
	ControlToggle      ControlType = "toggle"
	ControlMultiselect ControlType = "multiselect"
)

// ParseControlType maps unknown values to text.
func ParseControlType(s string) ControlType {
	switch ct := ControlType(strings.TrimSpace(s)); ct {
	case ControlText, ControlTextarea, ControlToggle, ControlMultiselect:
		return ct
	default:
		return ControlText
	}
}

type CustomField struct {
	ID          string      `json:"id"`
	EventID     string      `json:"eventId"`
	Label       string      `json:"label"`
	ControlType ControlType `json:"controlType"`
	IsRequired  bool        `json:"isRequired"`
	Options     []string    `json:"options"`
	Order       int         `json:"order"`
}

// FieldInput is a custom field as submitted by a manager. A nil Options
// slice means "not provided".
type FieldInput struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	ControlType string   `json:"controlType"`
	IsRequired  bool     `json:"isRequired"`
	Options     []string `json:"options"`
	Order       *int     `json:"order"`
}

// NewFields turns submitted fields into fields for a new event. Blank
// labels are skipped; order defaults to the position among kept fields.
func NewFields(inputs []FieldInput) []CustomField {
	out := make([]CustomField, 0, len(inputs))
	for _, in := range inputs {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			continue
		}
		order := len(out)
		if in.Order != nil && *in.Order != 0 {
			order = *in.Order
		}
		out = append(out, CustomField{
			Label:       label,
			ControlType: ParseControlType(in.ControlType),
			IsRequired:  in.IsRequired,
			Options:     cleanOptions(in.Options),
			Order:       order,
		})
	}
	return out
}

// FieldPlan is the set of changes that brings stored fields in line with a
// submitted list.
type FieldPlan struct {
	Update []CustomField
	Create []CustomField
	Delete []string
}

// ReconcileFields compares the stored fields of an event with the submitted
// list. Submitted fields whose id matches a stored field update it, others
// are created, and stored fields not matched are deleted. Order becomes the
// position in the submitted list; options left out keep their stored value.
func ReconcileFields(existing []CustomField, incoming []FieldInput) FieldPlan {
	byID := make(map[string]CustomField, len(existing))
	for _, f := range existing {
		byID[f.ID] = f
	}

	var plan FieldPlan
	kept := make(map[string]bool, len(existing))
	position := 0
	for _, in := range incoming {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			continue
		}
		field := CustomField{
			Label:       label,
			ControlType: ParseControlType(in.ControlType),
			IsRequired:  in.IsRequired,
			Options:     cleanOptions(in.Options),
			Order:       position,
		}
		position++

		if cur, ok := byID[in.ID]; ok && in.ID != "" && !kept[in.ID] {
			field.ID = cur.ID
			field.EventID = cur.EventID
			if in.Options == nil {
				field.Options = cur.Options
			}
			kept[in.ID] = true
			plan.Update = append(plan.Update, field)
			continue
		}
		plan.Create = append(plan.Create, field)
	}

	for _, f := range existing {
		if !kept[f.ID] {
			plan.Delete = append(plan.Delete, f.ID)
		}
	}
	return plan
}

func cleanOptions(opts []string) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
