// Package service contains the business logic between the HTTP layer and
// the ports: requirement reads and role-scoped mutations, bulk intake, and
// the lint engine's HTTP-facing wrapper.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/batonworks/baton/internal/adapter/ws"
	"github.com/batonworks/baton/internal/domain"
	"github.com/batonworks/baton/internal/domain/requirement"
	"github.com/batonworks/baton/internal/port/broadcast"
	"github.com/batonworks/baton/internal/port/cache"
	"github.com/batonworks/baton/internal/port/database"
	"github.com/batonworks/baton/internal/port/messagequeue"
)

// cacheKeyPrefix uses a dot separator: cache keys must stay valid JetStream
// KV keys, which allow [-/_=.a-zA-Z0-9] only.
const (
	cacheKeyPrefix = "req."
	cacheTTL       = 30 * time.Second

	subjectAudit         = "requirements.audit"
	subjectUpdatedPrefix = "requirements.updated."
)

// RequirementService handles requirement reads and role-scoped mutations.
// The cache, queue, and hub are optional; a nil port disables that concern
// without changing behavior elsewhere.
type RequirementService struct {
	store database.Store
	cache cache.Cache
	queue messagequeue.Publisher
	hub   broadcast.Broadcaster
}

// NewRequirementService creates a RequirementService.
func NewRequirementService(store database.Store, c cache.Cache, queue messagequeue.Publisher, hub broadcast.Broadcaster) *RequirementService {
	return &RequirementService{store: store, cache: c, queue: queue, hub: hub}
}

// Ping reports whether the backing store is reachable.
func (s *RequirementService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Get returns one requirement, serving repeated reads from the cache.
func (s *RequirementService) Get(ctx context.Context, id string) (*requirement.Requirement, error) {
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, cacheKeyPrefix+id); ok {
			var req requirement.Requirement
			if err := json.Unmarshal(data, &req); err == nil {
				return &req, nil
			}
			s.cache.Delete(ctx, cacheKeyPrefix+id)
		}
	}

	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(req); err == nil {
			s.cache.Set(ctx, cacheKeyPrefix+id, data, cacheTTL)
		}
	}
	return req, nil
}

// List returns every requirement keyed by id.
func (s *RequirementService) List(ctx context.Context) (map[string]*requirement.Requirement, error) {
	return s.store.List(ctx)
}

// Top returns the n highest-priority requirements, tier first, rank second.
func (s *RequirementService) Top(ctx context.Context, n int) ([]*requirement.Requirement, error) {
	return s.store.ListTop(ctx, n)
}

// UpdatePM replaces the PM section and optionally moves the requirement's
// priority. A priority already held by another requirement is rejected with
// domain.ErrConflict before anything is written.
func (s *RequirementService) UpdatePM(ctx context.Context, id string, actor requirement.Actor, upd requirement.PMUpdate) (*requirement.Requirement, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := clone(req)

	if upd.Priority != nil && *upd.Priority != req.Priority {
		if err := s.checkPriorityFree(ctx, id, *upd.Priority); err != nil {
			return nil, err
		}
		req.Priority = *upd.Priority
	}
	req.Sections.PM = upd.Section

	return s.save(ctx, req, actor, "update_pm", previous)
}

// UpdateDecision sets only the PM decision field.
func (s *RequirementService) UpdateDecision(ctx context.Context, id string, actor requirement.Actor, decision string) (*requirement.Requirement, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := clone(req)

	req.Sections.PM.Decision = decision

	return s.save(ctx, req, actor, "update_pm_decision", previous)
}

// UpdateArchitect replaces the architect section.
func (s *RequirementService) UpdateArchitect(ctx context.Context, id string, actor requirement.Actor, upd requirement.ArchitectUpdate) (*requirement.Requirement, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := clone(req)

	req.Sections.Architect = upd.Section

	return s.save(ctx, req, actor, "update_architecture", previous)
}

// UpdateCoder replaces the coder section.
func (s *RequirementService) UpdateCoder(ctx context.Context, id string, actor requirement.Actor, upd requirement.CoderUpdate) (*requirement.Requirement, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := clone(req)

	req.Sections.Coder = upd.Section

	return s.save(ctx, req, actor, "update_coder", previous)
}

// UpdateTester replaces the tester section.
func (s *RequirementService) UpdateTester(ctx context.Context, id string, actor requirement.Actor, upd requirement.TesterUpdate) (*requirement.Requirement, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := clone(req)

	req.Sections.Tester = upd.Section

	return s.save(ctx, req, actor, "update_tester", previous)
}

// UpdateStatus changes the PM-owned overall status.
func (s *RequirementService) UpdateStatus(ctx context.Context, id string, actor requirement.Actor, status requirement.OverallStatus) (*requirement.Requirement, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := clone(req)

	req.OverallStatus = status

	return s.save(ctx, req, actor, "update_status", previous)
}

// BulkResult reports what a bulk create actually did.
type BulkResult struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
}

// BulkCreate validates the entire batch before persisting any of it: one
// bad entry rejects the whole request and the store is left untouched.
func (s *RequirementService) BulkCreate(ctx context.Context, actor requirement.Actor, batch requirement.BulkCreate) (*BulkResult, error) {
	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]requirement.BulkEntry, len(batch.Requirements))
	seen := make(map[string]bool, len(batch.Requirements))
	taken := make(map[string]string) // "tier:rank" -> req id

	for id, req := range existing {
		if req.Priority.Tier != "" {
			taken[priorityKey(req.Priority)] = id
		}
	}

	for i, entry := range batch.Requirements {
		entry.ReqID = strings.ToUpper(strings.TrimSpace(entry.ReqID))
		if !requirement.ValidID(entry.ReqID) {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, batch.Requirements[i].ReqID)
		}
		if seen[entry.ReqID] {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, entry.ReqID)
		}
		seen[entry.ReqID] = true

		if holder, ok := taken[priorityKey(entry.Priority)]; ok && holder != entry.ReqID {
			return nil, fmt.Errorf("%w: %s/%d already held by %s",
				domain.ErrConflict, entry.Priority.Tier, entry.Priority.Rank, holder)
		}
		taken[priorityKey(entry.Priority)] = entry.ReqID

		entries[i] = entry
	}

	result := &BulkResult{Created: []string{}, Updated: []string{}}
	for _, entry := range entries {
		req, ok := existing[entry.ReqID]
		if ok {
			previous := clone(req)
			req.Title = entry.Title
			req.Priority = entry.Priority
			if _, err := s.save(ctx, req, actor, "bulk_create", previous); err != nil {
				return nil, err
			}
			result.Updated = append(result.Updated, entry.ReqID)
			continue
		}

		req = requirement.New(entry.ReqID, entry.Title)
		req.Priority = entry.Priority
		if _, err := s.save(ctx, req, actor, "bulk_create", nil); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, entry.ReqID)
	}

	return result, nil
}

// checkPriorityFree rejects a (tier, rank) pair already held by a different
// requirement.
func (s *RequirementService) checkPriorityFree(ctx context.Context, id string, p requirement.Priority) error {
	if p.Tier == "" {
		return nil
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for otherID, other := range all {
		if otherID != id && other.Priority == p {
			return fmt.Errorf("%w: %s/%d already held by %s", domain.ErrConflict, p.Tier, p.Rank, otherID)
		}
	}
	return nil
}

// save persists the requirement, drops the cached copy, and fans out the
// change event. Publishing is best-effort: the store write has already
// committed and is never rolled back for a failed publish.
func (s *RequirementService) save(ctx context.Context, req *requirement.Requirement, actor requirement.Actor, action string, previous *requirement.Requirement) (*requirement.Requirement, error) {
	if err := s.store.Save(ctx, req, actor, action, previous); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Delete(ctx, cacheKeyPrefix+req.ReqID)
	}
	s.publishChange(ctx, req, actor, action, previous == nil)

	return req, nil
}

// changeEvent is the payload published to the queue and broadcast over
// WebSocket after every successful mutation.
type changeEvent struct {
	ReqID         string                    `json:"req_id"`
	Action        string                    `json:"action"`
	ActorRole     requirement.Role          `json:"actor_role"`
	ActorID       string                    `json:"actor_id"`
	OverallStatus requirement.OverallStatus `json:"overall_status"`
	Priority      requirement.Priority      `json:"priority"`
	TS            time.Time                 `json:"ts"`
}

func (s *RequirementService) publishChange(ctx context.Context, req *requirement.Requirement, actor requirement.Actor, action string, created bool) {
	event := changeEvent{
		ReqID:         req.ReqID,
		Action:        action,
		ActorRole:     actor.Role,
		ActorID:       actor.ID,
		OverallStatus: req.OverallStatus,
		Priority:      req.Priority,
		TS:            time.Now().UTC(),
	}

	if s.queue != nil {
		data, err := json.Marshal(event)
		if err != nil {
			slog.Error("marshal change event", "req_id", req.ReqID, "error", err)
		} else {
			for _, subject := range []string{subjectAudit, subjectUpdatedPrefix + req.ReqID} {
				if err := s.queue.Publish(ctx, subject, data); err != nil {
					slog.Error("publish change event", "subject", subject, "error", err)
				}
			}
		}
	}

	if s.hub != nil {
		eventType := ws.EventRequirementUpdated
		if created {
			eventType = ws.EventRequirementCreated
		}
		s.hub.BroadcastEvent(ctx, eventType, ws.RequirementEvent{
			ReqID:         req.ReqID,
			Action:        action,
			ActorRole:     string(actor.Role),
			ActorID:       actor.ID,
			OverallStatus: string(req.OverallStatus),
		})
	}
}

func priorityKey(p requirement.Priority) string {
	return fmt.Sprintf("%s:%d", p.Tier, p.Rank)
}

// clone deep-copies a requirement through its JSON form so the audit
// previous-record cannot alias the mutated one.
func clone(r *requirement.Requirement) *requirement.Requirement {
	data, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	var out requirement.Requirement
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}
