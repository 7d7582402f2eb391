package requirement

import (
	"encoding/json"
	"fmt"
)

// recordShape discriminates the persisted schema generation of a raw record.
type recordShape int

const (
	// shapeCurrent carries a sections object and overall_status.
	shapeCurrent recordShape = iota
	// shapeLegacySectioned (generation 1) uses the legacy section names
	// (pm, architecture, engineering, qa) with per-section status fields.
	shapeLegacySectioned
	// shapeLegacyFlat (generation 0) uses the legacy section names without
	// per-section status and a legacy top-level status vocabulary.
	shapeLegacyFlat
)

// rawRecord is the loose envelope a persisted blob is decoded into before
// the shape is decided.
type rawRecord struct {
	ReqID         string          `json:"req_id"`
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Priority      *Priority       `json:"priority"`
	Status        string          `json:"status"`
	OverallStatus string          `json:"overall_status"`
	Sections      json.RawMessage `json:"sections"`

	// Legacy generation 0/1 section names.
	PM           json.RawMessage `json:"pm"`
	Architecture json.RawMessage `json:"architecture"`
	Engineering  json.RawMessage `json:"engineering"`
	QA           json.RawMessage `json:"qa"`
}

// shape decides the record's schema generation once; callers then switch
// exhaustively on the result.
func (r *rawRecord) shape() recordShape {
	if len(r.Sections) > 0 && string(r.Sections) != "null" {
		return shapeCurrent
	}
	for _, section := range [][]byte{r.PM, r.Architecture, r.Engineering, r.QA} {
		if sectionHasStatus(section) {
			return shapeLegacySectioned
		}
	}
	return shapeLegacyFlat
}

func sectionHasStatus(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	var probe struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Status != nil
}

// Normalize converts an arbitrarily-shaped persisted record into the current
// Requirement shape. It accepts the current shape and both legacy
// generations, and is idempotent: normalizing an already-current record
// returns it unchanged in content.
func Normalize(id string, raw []byte) (*Requirement, error) {
	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}

	req := &Requirement{
		ReqID:    firstNonEmpty(rec.ReqID, rec.ID, id),
		Title:    rec.Title,
		Priority: Priority{},
	}
	if rec.Priority != nil {
		req.Priority = *rec.Priority
	}

	switch rec.shape() {
	case shapeCurrent:
		if err := json.Unmarshal(rec.Sections, &req.Sections); err != nil {
			return nil, fmt.Errorf("decode sections %s: %w", id, err)
		}
		req.OverallStatus = normalizeOverallStatus(firstNonEmpty(rec.OverallStatus, rec.Status))
	case shapeLegacySectioned, shapeLegacyFlat:
		sections, err := legacySections(id, &rec)
		if err != nil {
			return nil, err
		}
		req.Sections = sections
		req.OverallStatus = normalizeOverallStatus(firstNonEmpty(rec.Status, rec.OverallStatus))
	}

	fillSectionDefaults(&req.Sections)
	return req, nil
}

// legacySections maps generation 0/1 section names onto the current roles:
// pm->pm, architecture->architect, engineering->coder, qa->tester. Missing
// sections are synthesized with default field values.
func legacySections(id string, rec *rawRecord) (Sections, error) {
	sections := defaultSections()

	if len(rec.PM) > 0 {
		if err := json.Unmarshal(rec.PM, &sections.PM); err != nil {
			return sections, fmt.Errorf("decode pm section %s: %w", id, err)
		}
	}
	if len(rec.Architecture) > 0 {
		if err := json.Unmarshal(rec.Architecture, &sections.Architect); err != nil {
			return sections, fmt.Errorf("decode architecture section %s: %w", id, err)
		}
	}
	if len(rec.Engineering) > 0 {
		if err := json.Unmarshal(rec.Engineering, &sections.Coder); err != nil {
			return sections, fmt.Errorf("decode engineering section %s: %w", id, err)
		}
	}
	if len(rec.QA) > 0 {
		if err := json.Unmarshal(rec.QA, &sections.Tester); err != nil {
			return sections, fmt.Errorf("decode qa section %s: %w", id, err)
		}
	}

	return sections, nil
}

// fillSectionDefaults backfills fields that generation 0 records lack.
func fillSectionDefaults(s *Sections) {
	if s.PM.Status == "" {
		s.PM.Status = SectionUnaddressed
	}
	if s.PM.Decision == "" {
		s.PM.Decision = "pending"
	}
	if s.Architect.Status == "" {
		s.Architect.Status = SectionUnaddressed
	}
	if s.Coder.Status == "" {
		s.Coder.Status = SectionUnaddressed
	}
	if s.Tester.Status == "" {
		s.Tester.Status = SectionUnaddressed
	}
	if s.Tester.TestCases == nil {
		s.Tester.TestCases = []TestCase{}
	}
}

// normalizeOverallStatus maps the legacy top-level status vocabulary onto
// the current one. Current values pass through; anything unknown falls back
// to not_started.
func normalizeOverallStatus(status string) OverallStatus {
	switch status {
	case "ready_for_pm_review":
		return StatusInReview
	case "done":
		return StatusCompleted
	case "open":
		return StatusNotStarted
	}
	for _, known := range OverallStatuses {
		if OverallStatus(status) == known {
			return known
		}
	}
	return StatusNotStarted
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
