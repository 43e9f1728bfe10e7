package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/rule"
)

func (s *Store) CreateRule(_ context.Context, r *rule.Rule) error {
	if r.CompanyID == uuid.Nil || r.Name == "" {
		return ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID, _ = s.assign()
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt

	s.rules[r.ID] = cloneRule(r)

	return nil
}

func (s *Store) GetRule(_ context.Context, id uuid.UUID) (*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rules[id]
	if !ok {
		return nil, rule.ErrNotFound
	}

	return cloneRule(r), nil
}

// ListRules returns every rule for the company, active or not, in creation
// order.
func (s *Store) ListRules(_ context.Context, companyID uuid.UUID) ([]*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rules []*rule.Rule

	for _, r := range s.rules {
		if r.CompanyID == companyID {
			rules = append(rules, cloneRule(r))
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		return s.order[rules[i].ID] < s.order[rules[j].ID]
	})

	return rules, nil
}

func (s *Store) UpdateRule(_ context.Context, r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[r.ID]; !ok {
		return rule.ErrNotFound
	}

	r.UpdatedAt = now()
	s.rules[r.ID] = cloneRule(r)

	return nil
}

// FirstActiveRule picks the company's applied rule: the active rule with the
// earliest creation time, insertion order as the tie-break. Selection is
// explicit rather than relying on collection iteration order.
func (s *Store) FirstActiveRule(_ context.Context, companyID uuid.UUID) (*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var first *rule.Rule

	for _, r := range s.rules {
		if r.CompanyID != companyID || !r.IsActive {
			continue
		}

		if first == nil || ruleBefore(s, r, first) {
			first = r
		}
	}

	if first == nil {
		return nil, rule.ErrNoActiveRule
	}

	return cloneRule(first), nil
}

func ruleBefore(s *Store, a, b *rule.Rule) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}

	return s.order[a.ID] < s.order[b.ID]
}

func cloneRule(r *rule.Rule) *rule.Rule {
	clone := *r

	if r.SequentialApprovers != nil {
		clone.SequentialApprovers = make([]uuid.UUID, len(r.SequentialApprovers))
		copy(clone.SequentialApprovers, r.SequentialApprovers)
	}

	if r.ConditionalValue != nil {
		v := *r.ConditionalValue
		clone.ConditionalValue = &v
	}

	if r.AmountThreshold != nil {
		v := *r.AmountThreshold
		clone.AmountThreshold = &v
	}

	return &clone
}
