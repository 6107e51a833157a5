package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"postledger/internal/contract/models"
	"postledger/internal/contract/store"
	"postledger/pkg/domain"
	dErrors "postledger/pkg/domain-errors"
	"postledger/pkg/platform/sentinel"
	txcontext "postledger/pkg/platform/tx"
)

const (
	defaultTxTimeout = 5 * time.Second

	// writeLockKey serializes all contract write transactions.
	writeLockKey int64 = 0x706f73746c6467
)

// Store implements store.Store and store.Outbox on Postgres.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// New creates a Postgres-backed contract store.
func New(db *sql.DB) *Store {
	return &Store{db: db, timeout: defaultTxTimeout}
}

// RunInTx runs fn inside one serializable unit of work.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, st store.State) error) error {
	return s.inTx(ctx, false, fn)
}

// View runs fn inside a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, st store.State) error) error {
	return s.inTx(ctx, true, fn)
}

func (s *Store) inTx(ctx context.Context, readOnly bool, fn func(ctx context.Context, st store.State) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if !readOnly {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, writeLockKey); err != nil {
			return fmt.Errorf("acquire write lock: %w", err)
		}
	}

	ctx = txcontext.WithTx(ctx, tx)
	if err := fn(ctx, &state{db: s.db, readOnly: readOnly}); err != nil {
		return err
	}
	if readOnly {
		return nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// PendingInstructions returns undispatched instructions in creation order.
func (s *Store) PendingInstructions(ctx context.Context, limit int) ([]models.BankInstruction, error) {
	query := `
		SELECT id, to_address, amount, denom, created_at
		FROM bank_outbox
		WHERE dispatched_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending instructions: %w", err)
	}
	defer rows.Close()

	var out []models.BankInstruction
	for rows.Next() {
		var ins models.BankInstruction
		var to string
		if err := rows.Scan(&ins.ID, &to, &ins.Amount, &ins.Denom, &ins.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan instruction: %w", err)
		}
		ins.To = domain.Address(to)
		out = append(out, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instructions: %w", err)
	}
	return out, nil
}

// MarkDispatched stamps the given instructions as relayed.
func (s *Store) MarkDispatched(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `
		UPDATE bank_outbox
		SET dispatched_at = $1
		WHERE id = ANY($2::uuid[]) AND dispatched_at IS NULL
	`
	if _, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, query, at, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark instructions dispatched: %w", err)
	}
	return nil
}

// state is the store.State of one transaction. Queries pick up the
// transaction from ctx.
type state struct {
	db       *sql.DB
	readOnly bool
}

func (st *state) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, st.db)
}

func (st *state) writable() error {
	if st.readOnly {
		return sentinel.ErrReadOnly
	}
	return nil
}

func (st *state) GetConfig(ctx context.Context) (*models.Config, error) {
	query := `
		SELECT owner, name_char_limit, post_char_limit, agent_cut_percent, post_fee, denom, contract, version
		FROM contract_config
		WHERE singleton
	`
	var cfg models.Config
	var owner string
	var nameLimit, postLimit, cut int16
	err := st.q(ctx).QueryRowContext(ctx, query).Scan(&owner, &nameLimit, &postLimit, &cut, &cfg.PostFee, &cfg.Denom, &cfg.Contract, &cfg.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query config: %w", err)
	}
	cfg.Owner = domain.Address(owner)
	cfg.NameCharLimit = uint8(nameLimit)
	cfg.PostCharLimit = uint8(postLimit)
	cfg.AgentCutPercent = uint8(cut)
	return &cfg, nil
}

func (st *state) PutConfig(ctx context.Context, cfg models.Config) error {
	if err := st.writable(); err != nil {
		return err
	}
	query := `
		INSERT INTO contract_config (owner, name_char_limit, post_char_limit, agent_cut_percent, post_fee, denom, contract, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (singleton) DO NOTHING
	`
	res, err := st.q(ctx).ExecContext(ctx, query,
		cfg.Owner.String(),
		int16(cfg.NameCharLimit),
		int16(cfg.PostCharLimit),
		int16(cfg.AgentCutPercent),
		cfg.PostFee,
		cfg.Denom,
		cfg.Contract,
		cfg.Version,
	)
	if err != nil {
		return fmt.Errorf("insert config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert config: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("config: %w", sentinel.ErrConflict)
	}
	return nil
}

func (st *state) GetBalance(ctx context.Context, addr domain.Address) (domain.Uint128, bool, error) {
	var amount domain.Uint128
	err := st.q(ctx).QueryRowContext(ctx, `SELECT amount FROM balances WHERE address = $1`, addr.String()).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Uint128{}, false, nil
	}
	if err != nil {
		return domain.Uint128{}, false, fmt.Errorf("query balance: %w", err)
	}
	return amount, true, nil
}

func (st *state) PutBalance(ctx context.Context, addr domain.Address, amount domain.Uint128) error {
	if err := st.writable(); err != nil {
		return err
	}
	query := `
		INSERT INTO balances (address, amount)
		VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET amount = EXCLUDED.amount
	`
	if _, err := st.q(ctx).ExecContext(ctx, query, addr.String(), amount); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

func (st *state) GetCounter(ctx context.Context) (uint64, error) {
	var n int64
	err := st.q(ctx).QueryRowContext(ctx, `SELECT value FROM post_counter WHERE singleton`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("post counter: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("query post counter: %w", err)
	}
	return uint64(n), nil
}

func (st *state) PutCounter(ctx context.Context, n uint64) error {
	if err := st.writable(); err != nil {
		return err
	}
	query := `
		INSERT INTO post_counter (value)
		VALUES ($1)
		ON CONFLICT (singleton) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := st.q(ctx).ExecContext(ctx, query, int64(n)); err != nil {
		return fmt.Errorf("upsert post counter: %w", err)
	}
	return nil
}

func (st *state) GetPost(ctx context.Context, id uint64) (*models.Post, error) {
	query := `SELECT id, poster_address, username, content FROM posts WHERE id = $1`
	p, err := scanPost(st.q(ctx).QueryRowContext(ctx, query, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query post: %w", err)
	}
	return &p, nil
}

func (st *state) PutPost(ctx context.Context, post models.Post) error {
	if err := st.writable(); err != nil {
		return err
	}
	query := `
		INSERT INTO posts (id, poster_address, username, content)
		VALUES ($1, $2, $3, $4)
	`
	_, err := st.q(ctx).ExecContext(ctx, query, int64(post.ID), post.PosterAddress.String(), post.Username, post.Content)
	if isUniqueViolation(err) {
		return fmt.Errorf("post %d: %w", post.ID, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (st *state) PostsDescending(ctx context.Context, limit int) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		if limit <= 0 {
			return
		}
		query := `
			SELECT id, poster_address, username, content
			FROM posts
			ORDER BY id DESC
			LIMIT $1
		`
		rows, err := st.q(ctx).QueryContext(ctx, query, limit)
		if err != nil {
			yield(models.Post{}, fmt.Errorf("query posts: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPost(rows)
			if err != nil {
				yield(models.Post{}, fmt.Errorf("scan post: %w", err))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Post{}, fmt.Errorf("iterate posts: %w", err))
		}
	}
}

func (st *state) AppendInstruction(ctx context.Context, ins models.BankInstruction) error {
	if err := st.writable(); err != nil {
		return err
	}
	query := `
		INSERT INTO bank_outbox (id, to_address, amount, denom, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := st.q(ctx).ExecContext(ctx, query, ins.ID, ins.To.String(), ins.Amount, ins.Denom, ins.CreatedAt); err != nil {
		return fmt.Errorf("insert bank instruction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var p models.Post
	var id int64
	var poster string
	if err := row.Scan(&id, &poster, &p.Username, &p.Content); err != nil {
		return models.Post{}, err
	}
	p.ID = uint64(id)
	p.PosterAddress = domain.Address(poster)
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Outbox = (*Store)(nil)
	_ store.State  = (*state)(nil)
)
