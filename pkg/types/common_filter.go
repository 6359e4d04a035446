package types

import (
	"regexp"
	"time"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
)

// DateLayout is the layout of date_range values.
const DateLayout = "2006-01-02"

var filterField = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
	Filters  []CommonFilter       `json:"filters"`
}

// Valid reports whether the filter names a plain column.
func (f *CommonFilter) Valid() bool {
	return filterField.MatchString(f.Field)
}

// Build constructs a GORM expression. Filters on invalid fields are skipped.
func (f *CommonFilter) Build(builder clause.Builder) {
	if len(f.Values) == 0 || !f.Valid() {
		builder.WriteString("1=1")
		return
	}

	value := f.Values[0]
	column := clause.Column{Name: f.Field}

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: column, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: column, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: column, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: column, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: column, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: column, Value: value}.Build(builder)
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			builder.WriteString("1=1")
			return
		}
		clause.And(clause.Gte{Column: column, Value: f.Values[0]}, clause.Lte{Column: column, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorDateRange:
		from, to, ok := dateRange(f.Values)
		if !ok {
			builder.WriteString("1=1")
			return
		}
		// inclusive of the whole last day
		clause.And(clause.Gte{Column: column, Value: from}, clause.Lt{Column: column, Value: to.AddDate(0, 0, 1)}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: column, Values: f.Values}.Build(builder)
	default:
		builder.WriteString("1=1")
	}
}

func dateRange(values []any) (time.Time, time.Time, bool) {
	if len(values) < 2 {
		return time.Time{}, time.Time{}, false
	}
	from, err := parseDate(values[0])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := parseDate(values[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func parseDate(v any) (time.Time, error) {
	s, _ := v.(string)
	return time.Parse(DateLayout, s)
}
