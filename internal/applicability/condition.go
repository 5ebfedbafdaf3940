package applicability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rcliao/section-j/internal/model"
)

// Evaluate tests a single condition against the resolved property value.
// A missing property only satisfies "notExists".
func Evaluate(c model.Condition, r gjson.Result) bool {
	present := r.Exists() && r.Type != gjson.Null

	switch c.Operator {
	case model.OpExists:
		return present
	case model.OpNotExists:
		return !present
	}
	if !present {
		return false
	}

	switch c.Operator {
	case model.OpEquals:
		return equalValue(r, c.Value)
	case model.OpNotEquals:
		return !equalValue(r, c.Value)
	case model.OpGreaterThan, model.OpGreaterThanOrEqual, model.OpLessThan, model.OpLessThanOrEqual:
		return compare(c.Operator, r, c.Value)
	case model.OpIn:
		return inList(r, c.Value)
	case model.OpNotIn:
		return !inList(r, c.Value)
	case model.OpContains:
		return contains(r, c.Value)
	}
	return false
}

func equalValue(r gjson.Result, v any) bool {
	switch want := v.(type) {
	case nil:
		return r.Type == gjson.Null
	case bool:
		return r.IsBool() && r.Bool() == want
	case string:
		if r.Type == gjson.Number {
			if f, err := strconv.ParseFloat(want, 64); err == nil {
				return r.Float() == f
			}
		}
		return r.String() == want
	}
	if want, ok := toFloat(v); ok {
		got, ok := resultFloat(r)
		return ok && got == want
	}
	return false
}

func compare(op string, r gjson.Result, v any) bool {
	got, ok := resultFloat(r)
	if !ok {
		return false
	}
	want, ok := toFloat(v)
	if !ok {
		return false
	}
	switch op {
	case model.OpGreaterThan:
		return got > want
	case model.OpGreaterThanOrEqual:
		return got >= want
	case model.OpLessThan:
		return got < want
	case model.OpLessThanOrEqual:
		return got <= want
	}
	return false
}

func inList(r gjson.Result, v any) bool {
	list, ok := v.([]any)
	if !ok {
		return equalValue(r, v)
	}
	for _, item := range list {
		if equalValue(r, item) {
			return true
		}
	}
	return false
}

func contains(r gjson.Result, v any) bool {
	if r.IsArray() {
		for _, item := range r.Array() {
			if equalValue(item, v) {
				return true
			}
		}
		return false
	}
	return strings.Contains(r.String(), fmt.Sprint(v))
}

func resultFloat(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		return f, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
