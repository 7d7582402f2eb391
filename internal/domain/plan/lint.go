package plan

import (
	"fmt"
	"math"
	"strings"

	"github.com/batonworks/baton/internal/domain/requirement"
)

// Lint runs the full battery of structural and semantic checks against a
// plan. It is a pure function: every violation is returned as data, errors
// block acceptance, warnings are advisory. All checks run independently
// except the empty-slices case, which aborts further checking.
func Lint(p *Plan) Result {
	var res Result

	if p.Version != "1.0" {
		res.addError("P-001", `plan.version must equal "1.0"`, "/plan/version", "")
	}

	if len(p.Slices) == 0 {
		res.addError("P-002", "plan.slices must have at least one entry", "/plan/slices", "")
		return res
	}

	seenIDs := make(map[string]bool, len(p.Slices))
	seenPriority := make(map[string]bool, len(p.Slices))
	allIDs := make(map[string]bool, len(p.Slices))

	for i, slice := range p.Slices {
		base := fmt.Sprintf("/plan/slices/%d", i)

		if !requirement.ValidID(slice.ID) {
			res.addError("P-003", "slice.id must match REQ-n", base+"/id", slice.ID)
		}
		if seenIDs[slice.ID] {
			res.addError("P-004", "slice.id must be unique", base+"/id", slice.ID)
		}
		seenIDs[slice.ID] = true
		allIDs[slice.ID] = true

		if strings.TrimSpace(slice.Title) == "" {
			res.addError("P-005", "slice.title must be non-empty", base+"/title", slice.ID)
		}
		if strings.TrimSpace(slice.Direction) == "" {
			res.addError("P-006", "slice.direction must be non-empty", base+"/direction", slice.ID)
		}

		if countNonBlank(slice.AcceptanceCriteria) < 3 {
			res.addError("P-007", "acceptance_criteria must include at least 3 non-empty entries",
				base+"/acceptance_criteria", slice.ID)
		}

		if !validOutOfScope(slice.OutOfScope) {
			res.addError("P-008", `out_of_scope must be ["none"] or a list of non-empty strings`,
				base+"/out_of_scope", slice.ID)
		}

		if requirement.TierOrder(slice.Priority.Tier) > 2 {
			res.addError("P-009", "priority.tier must be one of p0, p1, p2", base+"/priority/tier", slice.ID)
		}
		if !isPositiveInteger(slice.Priority.Rank) {
			res.addError("P-010", "priority.rank must be a positive integer", base+"/priority/rank", slice.ID)
		}

		priorityKey := fmt.Sprintf("%s:%v", slice.Priority.Tier, slice.Priority.Rank)
		if seenPriority[priorityKey] {
			res.addError("P-011", "priority tier+rank pair must be unique", base+"/priority", slice.ID)
		}
		seenPriority[priorityKey] = true
	}

	for i, slice := range p.Slices {
		for j, dep := range slice.Dependencies {
			if !allIDs[dep] {
				res.addWarning("P-012", "dependency should reference an existing slice id",
					fmt.Sprintf("/plan/slices/%d/dependencies/%d", i, j), slice.ID)
			}
		}
	}

	if !sortedByPriority(p.Slices) {
		res.addWarning("P-013", "slices should be ordered by priority tier then rank", "/plan/slices", "")
	}

	return res
}

func (r *Result) addError(code, message, path, reqID string) {
	r.Errors = append(r.Errors, Finding{
		Severity: SeverityError, Code: code, Message: message, Path: path, ReqID: reqID,
	})
}

func (r *Result) addWarning(code, message, path, reqID string) {
	r.Warnings = append(r.Warnings, Finding{
		Severity: SeverityWarn, Code: code, Message: message, Path: path, ReqID: reqID,
	})
}

func countNonBlank(entries []string) int {
	n := 0
	for _, e := range entries {
		if strings.TrimSpace(e) != "" {
			n++
		}
	}
	return n
}

// validOutOfScope accepts exactly ["none"] (case-insensitive, trimmed) or a
// non-empty list of non-blank strings with no "none" entry mixed in.
func validOutOfScope(entries []string) bool {
	if len(entries) == 0 || countNonBlank(entries) == 0 {
		return false
	}
	noneOnly := len(entries) == 1 && isNone(entries[0])
	for _, e := range entries {
		if isNone(e) && !noneOnly {
			return false
		}
	}
	return true
}

func isNone(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "none")
}

func isPositiveInteger(rank float64) bool {
	return rank > 0 && rank == math.Trunc(rank)
}

// sortedByPriority reports whether the slices already appear in ascending
// (tier order, rank) sequence. Unknown tiers sort last.
func sortedByPriority(slices []Slice) bool {
	for i := 1; i < len(slices); i++ {
		prev, cur := slices[i-1].Priority, slices[i].Priority
		prevTier, curTier := requirement.TierOrder(prev.Tier), requirement.TierOrder(cur.Tier)
		if curTier < prevTier || (curTier == prevTier && cur.Rank < prev.Rank) {
			return false
		}
	}
	return true
}
