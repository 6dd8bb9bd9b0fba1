package testkit

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSubset checks that every value in expected appears in actual at the
// same path. Objects may carry extra keys; arrays must match in length.
func AssertSubset(t *testing.T, name string, expected, actual []byte) {
	t.Helper()

	var exp, act interface{}
	require.NoError(t, json.Unmarshal(expected, &exp), "[%s] expectation is not valid JSON", name)
	if !assert.NoError(t, json.Unmarshal(actual, &act), "[%s] response is not JSON\nbody: %s", name, actual) {
		return
	}
	if diffs := Subset("", exp, act); len(diffs) > 0 {
		t.Errorf("[%s] response mismatch:\n%s\nbody: %s", name, strings.Join(diffs, "\n"), actual)
	}
}

// Subset lists where actual departs from expected.
func Subset(path string, expected, actual interface{}) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return []string{fmt.Sprintf("  %s: expected object, got %T", keyPath(path), actual)}
		}
		for k, ev := range exp {
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s.%s: missing", keyPath(path), k))
				continue
			}
			diffs = append(diffs, Subset(path+"."+k, ev, av)...)
		}
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return []string{fmt.Sprintf("  %s: expected array, got %T", keyPath(path), actual)}
		}
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("  %s: length expected=%d actual=%d", keyPath(path), len(exp), len(act)))
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			diffs = append(diffs, Subset(fmt.Sprintf("%s[%d]", path, i), exp[i], act[i])...)
		}
	case string:
		if exp == "*" {
			if actual == nil {
				diffs = append(diffs, fmt.Sprintf("  %s: expected a value, got null", keyPath(path)))
			}
			return diffs
		}
		if exp != actual {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), exp, actual))
		}
	default:
		if fmt.Sprintf("%v", expected) != fmt.Sprintf("%v", actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}
