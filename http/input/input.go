// Package input validates JSON request bodies, collecting every
// problem rather than stopping at the first.
package input

import (
	"strconv"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/sib-utrecht/portal/codes"
	"github.com/sib-utrecht/portal/http/response"
)

type Object map[string]any

// Parse returns false when the body isn't a JSON object. An empty body
// is treated as an empty object.
func Parse(body []byte) (Object, bool) {
	if len(body) == 0 {
		return Object{}, true
	}
	var o Object
	if err := json.Unmarshal(body, &o); err != nil || o == nil {
		return nil, false
	}
	return o, true
}

type Validator struct {
	invalid []response.Invalid
}

func (v *Validator) IsValid() bool {
	return len(v.invalid) == 0
}

func (v *Validator) Response() response.Response {
	return response.Validation(v.invalid)
}

func (v *Validator) add(field string, code int, message string) {
	v.invalid = append(v.invalid, response.Invalid{Field: field, Code: code, Error: message})
}

type StringRule struct {
	Required bool
	Min      int
	Max      int
}

type ArrayRule struct {
	Required bool
	Max      int
	Item     StringRule
}

func (v *Validator) String(o Object, field string, rule StringRule) string {
	raw, ok := o[field]
	if !ok || raw == nil {
		if rule.Required {
			v.add(field, codes.VAL_REQUIRED, "required")
		}
		return ""
	}
	return v.checkString(field, raw, rule)
}

func (v *Validator) StringArray(o Object, field string, rule ArrayRule) []string {
	raw, ok := o[field]
	if !ok || raw == nil {
		if rule.Required {
			v.add(field, codes.VAL_REQUIRED, "required")
		}
		return nil
	}

	values, ok := raw.([]any)
	if !ok {
		v.add(field, codes.VAL_ARRAY_TYPE, "must be an array")
		return nil
	}
	if rule.Max > 0 && len(values) > rule.Max {
		v.add(field, codes.VAL_ARRAY_LEN, "must have at most "+strconv.Itoa(rule.Max)+" items")
		return nil
	}

	result := make([]string, len(values))
	for i, value := range values {
		result[i] = v.checkString(field+"."+strconv.Itoa(i), value, rule.Item)
	}
	return result
}

func (v *Validator) checkString(field string, raw any, rule StringRule) string {
	value, ok := raw.(string)
	if !ok {
		v.add(field, codes.VAL_STRING_TYPE, "must be a string")
		return ""
	}

	l := utf8.RuneCountInString(value)
	if (rule.Min > 0 && l < rule.Min) || (rule.Max > 0 && l > rule.Max) {
		v.add(field, codes.VAL_STRING_LEN, "must be between "+strconv.Itoa(rule.Min)+" and "+strconv.Itoa(rule.Max)+" characters")
		return ""
	}
	return value
}
