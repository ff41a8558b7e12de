package consumer

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
)

// payloadRule is one validation rule evaluated against a decoded
// submission payload
type payloadRule struct {
	name string
	expr string
}

// Rules a submission payload must satisfy before it is applied. Dates
// are ISO-8601 strings, so lexicographic comparison is chronological.
var payloadRules = []payloadRule{
	{
		name: "dependent-present",
		expr: `has(payload.dependent) && payload.dependent.name != ""`,
	},
	{
		name: "relationships-keyed",
		expr: `!has(payload.work_relationships) || payload.work_relationships.all(r, r.org_number != "")`,
	},
	{
		name: "periods-ordered",
		expr: `!has(payload.work_relationships) || payload.work_relationships.all(r, !has(r.periods) || r.periods.all(p, p.from <= p.to))`,
	},
	{
		// Overtime (actual above normal) is a valid assertion; only
		// negative hours are malformed.
		name: "hours-sane",
		expr: `!has(payload.work_relationships) || payload.work_relationships.all(r, !has(r.periods) || r.periods.all(p, p.actual_hours >= 0.0 && p.normal_hours >= 0.0))`,
	},
}

// PayloadValidator checks submission payloads against CEL rules. Rules
// are compiled once at construction and reused for every event.
type PayloadValidator struct {
	programs map[string]cel.Program
}

// NewPayloadValidator compiles the payload rules
func NewPayloadValidator() (*PayloadValidator, error) {
	env, err := cel.NewEnv(cel.Variable("payload", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	programs := make(map[string]cel.Program, len(payloadRules))
	for _, rule := range payloadRules {
		ast, issues := env.Compile(rule.expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile rule %s: %w", rule.name, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build rule %s: %w", rule.name, err)
		}
		programs[rule.name] = prg
	}

	return &PayloadValidator{programs: programs}, nil
}

// Validate evaluates every rule against the raw payload. A rule that
// does not hold, or a payload that does not decode, classifies the
// event as malformed.
func (v *PayloadValidator) Validate(rawPayload []byte) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return Malformedf("payload does not decode: %v", err)
	}

	for _, rule := range payloadRules {
		out, _, err := v.programs[rule.name].Eval(map[string]interface{}{
			"payload": payload,
		})
		if err != nil {
			return Malformedf("rule %s evaluation: %v", rule.name, err)
		}

		ok, isBool := out.Value().(bool)
		if !isBool {
			return Malformedf("rule %s did not return boolean, got %T", rule.name, out.Value())
		}
		if !ok {
			return Malformedf("payload violates rule %s", rule.name)
		}
	}

	return nil
}
