// Package schema validates untyped request bodies against closed JSON
// schemas and decodes them into their typed shapes. Section shapes are
// closed on purpose: a role writes its section wholesale, so unknown extra
// fields are rejected rather than silently dropped. The package is pure and
// never touches the store.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/batonworks/baton/internal/domain/plan"
	"github.com/batonworks/baton/internal/domain/requirement"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Violation is one shape failure, addressed by a JSON pointer into the body.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

var (
	pmUpdateSchema        = mustCompile("pm_update.json")
	pmDecisionSchema      = mustCompile("pm_decision.json")
	architectUpdateSchema = mustCompile("architect_update.json")
	coderUpdateSchema     = mustCompile("coder_update.json")
	testerUpdateSchema    = mustCompile("tester_update.json")
	statusUpdateSchema    = mustCompile("status_update.json")
	bulkCreateSchema      = mustCompile("bulk_create.json")
	planSchema            = mustCompile("plan.json")
)

func mustCompile(name string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	for _, resource := range []string{"defs.json", name} {
		data, err := schemaFS.ReadFile("schemas/" + resource)
		if err != nil {
			panic(fmt.Sprintf("schema %s: %v", resource, err))
		}
		if err := compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("schema %s: %v", resource, err))
		}
	}
	return compiler.MustCompile(name)
}

// PMUpdate validates and decodes a PM section write.
func PMUpdate(raw []byte) (*requirement.PMUpdate, []Violation) {
	var v requirement.PMUpdate
	if violations := validate(pmUpdateSchema, raw, &v); violations != nil {
		return nil, violations
	}
	return &v, nil
}

// PMDecision validates and decodes a PM decision write.
func PMDecision(raw []byte) (*requirement.DecisionUpdate, []Violation) {
	var v requirement.DecisionUpdate
	if violations := validate(pmDecisionSchema, raw, &v); violations != nil {
		return nil, violations
	}
	return &v, nil
}

// ArchitectUpdate validates and decodes an architect section write.
func ArchitectUpdate(raw []byte) (*requirement.ArchitectUpdate, []Violation) {
	var v requirement.ArchitectUpdate
	if violations := validate(architectUpdateSchema, raw, &v); violations != nil {
		return nil, violations
	}
	return &v, nil
}

// CoderUpdate validates and decodes a coder section write.
func CoderUpdate(raw []byte) (*requirement.CoderUpdate, []Violation) {
	var v requirement.CoderUpdate
	if violations := validate(coderUpdateSchema, raw, &v); violations != nil {
		return nil, violations
	}
	return &v, nil
}

// TesterUpdate validates and decodes a tester section write. Omitted
// test_cases and test_results default to empty values.
func TesterUpdate(raw []byte) (*requirement.TesterUpdate, []Violation) {
	var v requirement.TesterUpdate
	if violations := validate(testerUpdateSchema, raw, &v); violations != nil {
		return nil, violations
	}
	if v.Section.TestCases == nil {
		v.Section.TestCases = []requirement.TestCase{}
	}
	return &v, nil
}

// StatusUpdate validates and decodes an overall-status change.
func StatusUpdate(raw []byte) (*requirement.StatusUpdate, []Violation) {
	var v requirement.StatusUpdate
	if violations := validate(statusUpdateSchema, raw, &v); violations != nil {
		return nil, violations
	}
	return &v, nil
}

// BulkCreate validates and decodes a batch create/update request.
func BulkCreate(raw []byte) (*requirement.BulkCreate, []Violation) {
	var v requirement.BulkCreate
	if violations := validate(bulkCreateSchema, raw, &v); violations != nil {
		return nil, violations
	}
	return &v, nil
}

// PlanShape validates a lint request body, which wraps the plan under a
// "plan" member, and decodes the wrapped plan. Semantic checks beyond the
// shape belong to the lint engine.
func PlanShape(raw []byte) (*plan.Plan, []Violation) {
	var v struct {
		Plan plan.Plan `json:"plan"`
	}
	if violations := validate(planSchema, raw, &v); violations != nil {
		return nil, violations
	}
	return &v.Plan, nil
}

func validate(s *jsonschema.Schema, raw []byte, dst any) []Violation {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return []Violation{{Path: "", Message: "invalid JSON: " + err.Error()}}
	}

	if err := s.Validate(decoded); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return collectViolations(ve, nil)
		}
		return []Violation{{Path: "", Message: err.Error()}}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return []Violation{{Path: "", Message: "decode: " + err.Error()}}
	}
	return nil
}

// collectViolations flattens a validation error tree into its leaf causes,
// which carry the most specific instance locations.
func collectViolations(ve *jsonschema.ValidationError, out []Violation) []Violation {
	if len(ve.Causes) == 0 {
		return append(out, Violation{Path: ve.InstanceLocation, Message: ve.Message})
	}
	for _, cause := range ve.Causes {
		out = collectViolations(cause, out)
	}
	return out
}
