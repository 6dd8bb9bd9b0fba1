// Package validate runs struct-tag validation over request inputs.
//
// Rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty
//	nullable            if empty, skip the remaining rules for this field
//	email               valid email address
//	objectid            24-character hex MongoDB ObjectID
//	alpha_dash          letters, digits, hyphens, underscores
//	min=N / max=N       string: char length | number: value
//	gt=N gte=N lte=N    numeric comparisons
//	between=lo,hi       number or string length, inclusive
//	cents               money amount with at most two decimals
//	in=a,b,c            value must be one of the listed items
//	dive                validate each element of a slice, or a nested struct;
//	                    errors are keyed "items[0].quantity", "address.city"
//
// Pointer fields are dereferenced; a nil pointer counts as empty.
//
//	type CheckoutInput struct {
//	    Items   []LineInput `json:"items"           validate:"nullable,dive"`
//	    Address AddressInput `json:"shippingAddress" validate:"dive"`
//	    Method  string      `json:"paymentMethod"   validate:"required,max=50"`
//	}
package validate

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Struct validates all exported fields of v that carry a `validate` tag and
// returns field → message. An empty map means v is valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	walk(rv, "", errs)
	return errs
}

// HasErrors reports whether errs holds any failure.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func walk(rv reflect.Value, prefix string, errs map[string]string) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := prefix + jsonFieldName(field)
		value := rv.Field(i)
		rules := splitRules(tag)

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		value = deref(value)
		for _, rule := range rules {
			switch rule {
			case "nullable":
				continue
			case "dive":
				diveInto(value, name, errs)
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				break
			}
		}
	}
}

func diveInto(v reflect.Value, name string, errs map[string]string) {
	switch v.Kind() {
	case reflect.Struct:
		walk(v, name+".", errs)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			el := deref(v.Index(i))
			if el.Kind() == reflect.Struct {
				walk(el, fmt.Sprintf("%s[%d].", name, i), errs)
			}
		}
	}
}

func applyRule(rule, field string, v reflect.Value) string {
	if !v.IsValid() {
		if rule == "required" {
			return fmt.Sprintf("The %s field is required.", field)
		}
		return ""
	}

	raw := fmt.Sprintf("%v", v.Interface())
	key, param, _ := strings.Cut(rule, "=")

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "objectid":
		if !primitive.IsValidObjectID(raw) {
			return fmt.Sprintf("The %s must be a valid id.", field)
		}
	case "alpha_dash":
		for _, c := range raw {
			if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '-' && c != '_' {
				return fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", field)
			}
		}
	case "min":
		n := parseFloat(param)
		if isNumericKind(v) && toFloat(v) < n {
			return fmt.Sprintf("The %s must be at least %s.", field, param)
		}
		if !isNumericKind(v) && float64(len([]rune(raw))) < n {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		n := parseFloat(param)
		if isNumericKind(v) && toFloat(v) > n {
			return fmt.Sprintf("The %s must not be greater than %s.", field, param)
		}
		if !isNumericKind(v) && float64(len([]rune(raw))) > n {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "gt":
		if toFloat(v) <= parseFloat(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if toFloat(v) < parseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lte":
		if toFloat(v) > parseFloat(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			return ""
		}
		l, h := parseFloat(lo), parseFloat(hi)
		if isNumericKind(v) {
			if f := toFloat(v); f < l || f > h {
				return fmt.Sprintf("The %s must be between %s and %s.", field, lo, hi)
			}
		} else if n := float64(len([]rune(raw))); n < l || n > h {
			return fmt.Sprintf("The %s must be between %s and %s characters.", field, lo, hi)
		}
	case "cents":
		if f := toFloat(v) * 100; math.Abs(f-math.Round(f)) > 1e-6 {
			return fmt.Sprintf("The %s must not have more than two decimals.", field)
		}
	case "in":
		for _, allowed := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(allowed) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}

	return ""
}

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isEmpty(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return parseFloat(fmt.Sprintf("%v", v.Interface()))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(f.Name[:1]) + f.Name[1:]
}

// splitRules splits a tag on commas, keeping the comma-separated parameters
// of in= and between= attached to their rule.
//
//	"required,in=a,b,c,max=3" → ["required", "in=a,b,c", "max=3"]
func splitRules(tag string) []string {
	var (
		rules   []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			rules = append(rules, strings.Join(current, ","))
			current = nil
		}
	}

	for _, tok := range strings.Split(tag, ",") {
		tok = strings.TrimSpace(tok)
		if len(current) > 0 && !isRuleName(tok) {
			current = append(current, tok)
			continue
		}
		flush()
		current = []string{tok}
		if key, _, _ := strings.Cut(tok, "="); key != "in" && key != "between" {
			flush()
		}
	}
	flush()
	return rules
}

var ruleNames = map[string]bool{
	"required": true, "nullable": true, "email": true, "objectid": true,
	"alpha_dash": true, "dive": true, "min": true, "max": true, "gt": true,
	"gte": true, "lte": true, "between": true, "in": true,
}

func isRuleName(tok string) bool {
	key, _, _ := strings.Cut(tok, "=")
	return ruleNames[key]
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if r == target {
			return true
		}
	}
	return false
}
