package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/batonworks/baton/internal/domain/requirement"
)

// Sync failure sentinels, mapped to 400 responses by the HTTP layer.
var (
	ErrRequirementsFileMissing = errors.New("requirements file missing")
	ErrNoRequirementsFound     = errors.New("no requirements found")
)

// reqLine matches one requirement declaration in a REQUIREMENTS.md file:
// an optional list bullet or heading marker, the id, an optional separator,
// then the title.
var reqLine = regexp.MustCompile(`(?i)^\s*(?:[-*]\s*)?(?:#+\s*)?(REQ-\d+)\s*(?:[:\-–]\s*)?(.*)$`)

// SyncResult reports the outcome of a requirements-file sync.
type SyncResult struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Found   int      `json:"found"`
}

// SyncFromFile reads the requirements file at path and reconciles the store
// against it: unknown ids get a fresh record, known ids get their title
// refreshed. Sections and priority of existing records are never touched,
// the store stays authoritative for work in flight.
func (s *RequirementService) SyncFromFile(ctx context.Context, actor requirement.Actor, path string) (*SyncResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRequirementsFileMissing, path)
		}
		return nil, fmt.Errorf("read requirements file: %w", err)
	}
	return s.Sync(ctx, actor, string(content))
}

// Sync parses requirement declarations out of content and applies them.
func (s *RequirementService) Sync(ctx context.Context, actor requirement.Actor, content string) (*SyncResult, error) {
	entries := parseRequirementLines(content)
	if len(entries) == 0 {
		return nil, ErrNoRequirementsFound
	}

	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Created: []string{}, Updated: []string{}, Found: len(entries)}
	for _, entry := range entries {
		req, ok := existing[entry.id]
		if ok {
			if req.Title == entry.title {
				continue
			}
			previous := clone(req)
			req.Title = entry.title
			if _, err := s.save(ctx, req, actor, "sync", previous); err != nil {
				return nil, err
			}
			result.Updated = append(result.Updated, entry.id)
			continue
		}

		req = requirement.New(entry.id, entry.title)
		if _, err := s.save(ctx, req, actor, "sync", nil); err != nil {
			return nil, err
		}
		existing[entry.id] = req
		result.Created = append(result.Created, entry.id)
	}

	return result, nil
}

type requirementLine struct {
	id    string
	title string
}

// parseRequirementLines extracts (id, title) pairs from markdown text. The
// first occurrence of an id wins; a blank title falls back to the id.
func parseRequirementLines(content string) []requirementLine {
	var out []requirementLine
	seen := make(map[string]bool)

	for _, line := range strings.Split(content, "\n") {
		m := reqLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id := strings.ToUpper(m[1])
		if seen[id] {
			continue
		}
		seen[id] = true

		title := strings.TrimSpace(m[2])
		if title == "" {
			title = id
		}
		out = append(out, requirementLine{id: id, title: title})
	}
	return out
}
