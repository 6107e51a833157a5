package store

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"postledger/internal/contract/models"
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// InMemoryStore keeps contract state in maps. One mutex serializes every
// unit of work, so requests never interleave.
type InMemoryStore struct {
	mu      sync.RWMutex
	config  *models.Config
	counter *uint64
	balance map[domain.Address]domain.Uint128
	posts   map[uint64]models.Post
	outbox  []models.BankInstruction
	timeout time.Duration
}

// NewInMemoryStore returns an empty, uninstantiated store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		balance: make(map[domain.Address]domain.Uint128),
		posts:   make(map[uint64]models.Post),
		timeout: defaultTxTimeout,
	}
}

// RunInTx runs fn against a working set that is merged only if fn succeeds.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, st State) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ws := newWorkingSet(s, false)
	if err := fn(ctx, ws); err != nil {
		return err
	}
	ws.commit()
	return nil
}

// View runs fn against the committed state. Writes fail with sentinel.ErrReadOnly.
func (s *InMemoryStore) View(ctx context.Context, fn func(ctx context.Context, st State) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, newWorkingSet(s, true))
}

// PendingInstructions returns undispatched instructions in creation order.
func (s *InMemoryStore) PendingInstructions(_ context.Context, limit int) ([]models.BankInstruction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.BankInstruction
	for _, ins := range s.outbox {
		if len(out) >= limit {
			break
		}
		if ins.DispatchedAt == nil {
			out = append(out, ins)
		}
	}
	return out, nil
}

// MarkDispatched stamps the given instructions as relayed.
func (s *InMemoryStore) MarkDispatched(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if slices.Contains(ids, s.outbox[i].ID) && s.outbox[i].DispatchedAt == nil {
			t := at
			s.outbox[i].DispatchedAt = &t
		}
	}
	return nil
}

// Instructions returns a copy of the whole outbox.
func (s *InMemoryStore) Instructions() []models.BankInstruction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.outbox)
}

// workingSet buffers writes over the committed maps. The caller holds the
// store mutex for its whole lifetime.
type workingSet struct {
	base     *InMemoryStore
	readOnly bool
	config   *models.Config
	counter  *uint64
	balance  map[domain.Address]domain.Uint128
	posts    map[uint64]models.Post
	outbox   []models.BankInstruction
}

func newWorkingSet(base *InMemoryStore, readOnly bool) *workingSet {
	return &workingSet{
		base:     base,
		readOnly: readOnly,
		balance:  make(map[domain.Address]domain.Uint128),
		posts:    make(map[uint64]models.Post),
	}
}

func (w *workingSet) commit() {
	if w.config != nil {
		w.base.config = w.config
	}
	if w.counter != nil {
		n := *w.counter
		w.base.counter = &n
	}
	maps.Copy(w.base.balance, w.balance)
	maps.Copy(w.base.posts, w.posts)
	w.base.outbox = append(w.base.outbox, w.outbox...)
}

func (w *workingSet) writable() error {
	if w.readOnly {
		return sentinel.ErrReadOnly
	}
	return nil
}

func (w *workingSet) GetConfig(_ context.Context) (*models.Config, error) {
	cfg := w.config
	if cfg == nil {
		cfg = w.base.config
	}
	if cfg == nil {
		return nil, fmt.Errorf("config: %w", sentinel.ErrNotFound)
	}
	c := *cfg
	return &c, nil
}

func (w *workingSet) PutConfig(_ context.Context, cfg models.Config) error {
	if err := w.writable(); err != nil {
		return err
	}
	if w.config != nil || w.base.config != nil {
		return fmt.Errorf("config: %w", sentinel.ErrConflict)
	}
	w.config = &cfg
	return nil
}

func (w *workingSet) GetBalance(_ context.Context, addr domain.Address) (domain.Uint128, bool, error) {
	if v, ok := w.balance[addr]; ok {
		return v, true, nil
	}
	v, ok := w.base.balance[addr]
	return v, ok, nil
}

func (w *workingSet) PutBalance(_ context.Context, addr domain.Address, amount domain.Uint128) error {
	if err := w.writable(); err != nil {
		return err
	}
	w.balance[addr] = amount
	return nil
}

func (w *workingSet) GetCounter(_ context.Context) (uint64, error) {
	if w.counter != nil {
		return *w.counter, nil
	}
	if w.base.counter != nil {
		return *w.base.counter, nil
	}
	return 0, fmt.Errorf("post counter: %w", sentinel.ErrNotFound)
}

func (w *workingSet) PutCounter(_ context.Context, n uint64) error {
	if err := w.writable(); err != nil {
		return err
	}
	w.counter = &n
	return nil
}

func (w *workingSet) GetPost(_ context.Context, id uint64) (*models.Post, error) {
	if p, ok := w.posts[id]; ok {
		return &p, nil
	}
	if p, ok := w.base.posts[id]; ok {
		return &p, nil
	}
	return nil, fmt.Errorf("post %d: %w", id, sentinel.ErrNotFound)
}

func (w *workingSet) PutPost(_ context.Context, post models.Post) error {
	if err := w.writable(); err != nil {
		return err
	}
	_, staged := w.posts[post.ID]
	_, committed := w.base.posts[post.ID]
	if staged || committed {
		return fmt.Errorf("post %d: %w", post.ID, sentinel.ErrConflict)
	}
	w.posts[post.ID] = post
	return nil
}

func (w *workingSet) PostsDescending(ctx context.Context, limit int) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		if limit <= 0 {
			return
		}
		top, err := w.GetCounter(ctx)
		if err != nil {
			yield(models.Post{}, err)
			return
		}
		n := 0
		for id := top; id >= 1 && n < limit; id-- {
			p, err := w.GetPost(ctx, id)
			if err != nil {
				continue
			}
			n++
			if !yield(*p, nil) {
				return
			}
		}
	}
}

func (w *workingSet) AppendInstruction(_ context.Context, ins models.BankInstruction) error {
	if err := w.writable(); err != nil {
		return err
	}
	w.outbox = append(w.outbox, ins)
	return nil
}
