package catalogue

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// Rule narrows the allowed values of Field with a boolean CEL expression. The
// expression sees the candidate as `value` and the current selection of every
// other field as `selection` (a map of string lists).
type Rule struct {
	Field string `json:"field" yaml:"field"`
	Expr  string `json:"expr" yaml:"expr"`
}

// RuleError reports a rule that failed to compile or evaluate.
type RuleError struct {
	Field string
	Expr  string
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("catalogue: rule for %q (%s): %v", e.Field, e.Expr, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

var errRuleOutputType = errors.New("expression must evaluate to bool")

// ruleEnv is the one environment every rule compiles against.
var ruleEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("value", cel.StringType),
		cel.Variable("selection", cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
	)
})

// ruleProgramCache maps expression text to its program. A program depends on
// the text and ruleEnv only; the rule's field is applied by filter, so
// collections sharing an expression share the program.
var ruleProgramCache sync.Map

type compiledRule struct {
	Rule
	program cel.Program
}

func compileRule(rule Rule) (compiledRule, error) {
	expr := strings.TrimSpace(rule.Expr)
	if rule.Field == "" {
		return compiledRule{}, &RuleError{Expr: expr, Err: errors.New("field required")}
	}
	if expr == "" {
		return compiledRule{}, &RuleError{Field: rule.Field, Err: errors.New("expression required")}
	}
	if cached, ok := ruleProgramCache.Load(expr); ok {
		return compiledRule{Rule: rule, program: cached.(cel.Program)}, nil
	}

	env, err := ruleEnv()
	if err != nil {
		return compiledRule{}, &RuleError{Field: rule.Field, Expr: expr, Err: err}
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return compiledRule{}, &RuleError{Field: rule.Field, Expr: expr, Err: issues.Err()}
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return compiledRule{}, &RuleError{Field: rule.Field, Expr: expr, Err: errRuleOutputType}
	}
	program, err := env.Program(ast)
	if err != nil {
		return compiledRule{}, &RuleError{Field: rule.Field, Expr: expr, Err: err}
	}
	ruleProgramCache.Store(expr, program)
	return compiledRule{Rule: rule, program: program}, nil
}

// filter keeps the candidates for which the rule holds.
func (r compiledRule) filter(candidates []string, selection Selection) ([]string, error) {
	others := make(map[string][]string, len(selection))
	for name, values := range selection {
		if name == r.Field {
			continue
		}
		others[name] = values
	}

	kept := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		out, _, err := r.program.Eval(map[string]any{
			"value":     candidate,
			"selection": others,
		})
		if err != nil {
			return nil, &RuleError{Field: r.Field, Expr: r.Expr, Err: err}
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return nil, &RuleError{Field: r.Field, Expr: r.Expr, Err: errRuleOutputType}
		}
		if ok {
			kept = append(kept, candidate)
		}
	}
	return kept, nil
}
