package requirement

// PMUpdate is the body of a PM section write. The PM may atomically adjust
// the requirement's priority in the same call.
type PMUpdate struct {
	Section  PMSection `json:"section"`
	Priority *Priority `json:"priority,omitempty"`
}

// DecisionUpdate sets only the PM decision field.
type DecisionUpdate struct {
	Decision string `json:"decision"`
}

// ArchitectUpdate is the body of an architect section write.
type ArchitectUpdate struct {
	Section ArchitectSection `json:"section"`
}

// CoderUpdate is the body of a coder section write.
type CoderUpdate struct {
	Section CoderSection `json:"section"`
}

// TesterUpdate is the body of a tester section write.
type TesterUpdate struct {
	Section TesterSection `json:"section"`
}

// StatusUpdate changes the PM-owned overall status.
type StatusUpdate struct {
	OverallStatus OverallStatus `json:"overall_status"`
}

// BulkEntry is one row of a bulk create/update batch.
type BulkEntry struct {
	ReqID    string   `json:"req_id"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
}

// BulkCreate is the PM-only batch create/update request.
type BulkCreate struct {
	Requirements []BulkEntry `json:"requirements"`
}
