// internal/mgmt/edit.go
package mgmt

import (
	"fmt"
	"regexp"
	"strconv"
)

// EditableFields lists the host attributes an operator may change.
var EditableFields = []string{
	"name",
	"queue.deadLetterQueueEnabled",
	"storeTransactionIdleTimeoutWarn",
	"storeTransactionIdleTimeoutClose",
	"storeTransactionOpenTimeoutWarn",
	"storeTransactionOpenTimeoutClose",
	"housekeepingCheckPeriod",
	"housekeepingThreadCount",
	"context",
}

var numericFields = map[string]bool{
	"storeTransactionIdleTimeoutWarn":  true,
	"storeTransactionIdleTimeoutClose": true,
	"storeTransactionOpenTimeoutWarn":  true,
	"storeTransactionOpenTimeoutClose": true,
	"housekeepingCheckPeriod":          true,
	"housekeepingThreadCount":          true,
}

var booleanFields = map[string]bool{
	"queue.deadLetterQueueEnabled": true,
}

// numeric literal or a ${context.variable} reference
var numericOrContextVar = regexp.MustCompile(`^(-?[0-9]+|\$\{[^}]+\})$`)

// ChangedFields converts operator input into a partial update body.
// Only fields whose parsed value differs from actual are returned.
func ChangedFields(actual map[string]any, input map[string]string) (map[string]any, error) {
	editable := make(map[string]bool, len(EditableFields))
	for _, f := range EditableFields {
		editable[f] = true
	}

	out := make(map[string]any)
	for field, raw := range input {
		if !editable[field] {
			return nil, fmt.Errorf("%w: %q", ErrNotEditable, field)
		}

		v, err := parseField(field, raw)
		if err != nil {
			return nil, err
		}
		if sameValue(actual[field], v) {
			continue
		}
		out[field] = v
	}
	return out, nil
}

func parseField(field, raw string) (any, error) {
	switch {
	case numericFields[field]:
		if !numericOrContextVar.MatchString(raw) {
			return nil, fmt.Errorf("mgmt: %s: %q is neither a number nor a context variable", field, raw)
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, nil
		}
		return raw, nil

	case booleanFields[field]:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("mgmt: %s: %w", field, err)
		}
		return b, nil

	case field == "context":
		ctxVars := map[string]string{}
		if raw != "" {
			if err := json.UnmarshalFromString(raw, &ctxVars); err != nil {
				return nil, fmt.Errorf("mgmt: context: %w", err)
			}
		}
		return ctxVars, nil

	case field == "name":
		if raw == "" {
			return nil, fmt.Errorf("mgmt: name must not be empty")
		}
		return raw, nil
	}

	return raw, nil
}

// sameValue compares a decoded server value with a parsed input value.
func sameValue(actual, v any) bool {
	switch want := v.(type) {
	case int64:
		switch a := actual.(type) {
		case float64:
			return a == float64(want)
		case int64:
			return a == want
		case string:
			return a == strconv.FormatInt(want, 10)
		}
	case bool:
		a, ok := actual.(bool)
		return ok && a == want
	case string:
		a, ok := actual.(string)
		return ok && a == want
	case map[string]string:
		a, ok := actual.(map[string]any)
		if !ok {
			return actual == nil && len(want) == 0
		}
		if len(a) != len(want) {
			return false
		}
		for k, wv := range want {
			if av, ok := a[k].(string); !ok || av != wv {
				return false
			}
		}
		return true
	}
	return false
}
