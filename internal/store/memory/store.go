// Package memory is the default backing store: one mutex-guarded arena of
// id-indexed records per entity kind. It is the reference implementation of
// the repository interfaces; the postgres store mirrors its semantics.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spendflow/spendflow/internal/company"
	"github.com/spendflow/spendflow/internal/expense"
	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/user"
)

// ErrMissingField is returned by create primitives when a required identity
// field is absent. All other validation belongs to the services.
var ErrMissingField = errors.New("missing required field")

type Store struct {
	mu sync.RWMutex

	companies map[uuid.UUID]*company.Company
	users     map[uuid.UUID]*user.User
	expenses  map[uuid.UUID]*expense.Expense
	approvals map[uuid.UUID]*expense.Approval
	rules     map[uuid.UUID]*rule.Rule

	// seq preserves insertion order across all kinds so listings and
	// creation-time tie-breaks stay deterministic within one process.
	seq   uint64
	order map[uuid.UUID]uint64
}

func New() *Store {
	return &Store{
		companies: make(map[uuid.UUID]*company.Company),
		users:     make(map[uuid.UUID]*user.User),
		expenses:  make(map[uuid.UUID]*expense.Expense),
		approvals: make(map[uuid.UUID]*expense.Approval),
		rules:     make(map[uuid.UUID]*rule.Rule),
		order:     make(map[uuid.UUID]uint64),
	}
}

// assign hands out a fresh id and insertion sequence. Callers hold mu.
func (s *Store) assign() (uuid.UUID, uint64) {
	s.seq++
	id := uuid.New()
	s.order[id] = s.seq

	return id, s.seq
}

func now() time.Time {
	return time.Now().UTC()
}
