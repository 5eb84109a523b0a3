package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/facetbase/facetd/pkg/model"
)

// newEnv builds the CEL environment used to evaluate query predicates against
// flattened documents.
func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
}

// compileFilters compiles the query predicates into a single CEL program.
// Returns nil for an empty filter set (match all).
func compileFilters(env *cel.Env, filters model.Filters) (cel.Program, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	expressions := make([]string, 0, len(filters))
	for _, f := range filters {
		expr, err := filterToExpression(f)
		if err != nil {
			return nil, err
		}
		expressions = append(expressions, expr)
	}

	ast, issues := env.Compile(strings.Join(expressions, " && "))
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program creation error: %w", err)
	}
	return prg, nil
}

// evaluate runs a compiled program against a flattened document. Evaluation
// errors (e.g. a missing field) mean the document does not match.
func evaluate(prg cel.Program, doc map[string]interface{}) bool {
	if prg == nil {
		return true
	}

	out, _, err := prg.Eval(map[string]interface{}{"doc": doc})
	if err != nil {
		return false
	}

	result, ok := out.Value().(bool)
	return ok && result
}

// filterToExpression converts a model.Filter to a CEL expression string.
func filterToExpression(f model.Filter) (string, error) {
	field := "doc"
	for _, p := range strings.Split(f.Field, ".") {
		field += fmt.Sprintf("['%s']", escapeString(p))
	}

	if f.Op == model.OpPrefix {
		prefix, ok := f.Value.(string)
		if !ok {
			return "", fmt.Errorf("prefix filter on %q requires a string value", f.Field)
		}
		pattern := "(?i)^" + regexp.QuoteMeta(prefix)
		return fmt.Sprintf("%s.matches('%s')", field, escapeString(pattern)), nil
	}

	valStr, err := formatValue(f.Value)
	if err != nil {
		return "", err
	}

	switch f.Op {
	case model.OpEq:
		return fmt.Sprintf("%s == %s", field, valStr), nil
	case model.OpNe:
		return fmt.Sprintf("%s != %s", field, valStr), nil
	case model.OpGt:
		return fmt.Sprintf("%s > %s", field, valStr), nil
	case model.OpGte:
		return fmt.Sprintf("%s >= %s", field, valStr), nil
	case model.OpLt:
		return fmt.Sprintf("%s < %s", field, valStr), nil
	case model.OpLte:
		return fmt.Sprintf("%s <= %s", field, valStr), nil
	case model.OpIn:
		return fmt.Sprintf("%s in %s", field, valStr), nil
	default:
		return "", fmt.Errorf("unsupported operator: %s", f.Op)
	}
}

// formatValue formats a value for use in a CEL expression.
func formatValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("'%s'", escapeString(val)), nil
	case int:
		return fmt.Sprintf("%d", val), nil
	case int32:
		return fmt.Sprintf("%d", val), nil
	case int64:
		return fmt.Sprintf("%d", val), nil
	case float32:
		return fmt.Sprintf("%v", val), nil
	case float64:
		return fmt.Sprintf("%v", val), nil
	case bool:
		return fmt.Sprintf("%v", val), nil
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, err := formatValue(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", ")), nil
	default:
		return "", fmt.Errorf("unsupported value type: %T", v)
	}
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escapeString(s string) string {
	return stringEscaper.Replace(s)
}
