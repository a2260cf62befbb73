package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"shiptrack-service/internal/docstore"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// channel is the LISTEN/NOTIFY channel carrying collection names.
const channel = "shiptrack_docs"

// Store is a Postgres-backed document store. Documents live as jsonb
// rows; conditional updates compile preconditions into the UPDATE's
// WHERE clause, which closes the claim race without a re-read.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing connection pool.
func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// NewPool creates and pings a new pgx connection pool.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Get returns the document with the given id.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection=$1 AND id=$2`, collection, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Record{}, docstore.ErrNotFound
		}
		return docstore.Record{}, unavailable("get", err)
	}
	doc, err := decodeDoc(raw)
	if err != nil {
		return docstore.Record{}, err
	}
	return docstore.Record{ID: id, Doc: doc}, nil
}

// Query returns every document matching all filters, ordered by id.
func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Record, error) {
	where, args, err := buildWhere(collection, filters)
	if err != nil {
		return nil, err
	}
	q := `SELECT id, doc FROM documents WHERE ` + where + ` ORDER BY id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, unavailable("query", err)
	}
	defer rows.Close()

	var out []docstore.Record
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, unavailable("query scan", err)
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.Record{ID: id, Doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query rows", err)
	}
	return out, nil
}

// Create stores a new document and returns its generated id.
func (s *Store) Create(ctx context.Context, collection string, doc map[string]any) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("pgstore create: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents(collection, id, doc) VALUES($1, $2, $3)`,
		collection, id, raw)
	if err != nil {
		return "", unavailable("create", err)
	}
	s.notify(ctx, collection)
	return id, nil
}

// Update applies all field paths in a single conditional UPDATE. With
// preconditions, zero affected rows on an existing document means the
// compare-and-set lost.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any, pre ...docstore.Filter) error {
	if len(fields) == 0 {
		return nil
	}

	args := []any{collection, id}
	expr := "doc"
	for path, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("pgstore update %s: %w", path, err)
		}
		args = append(args, pathSegments(path))
		pathArg := len(args)
		args = append(args, string(raw))
		valArg := len(args)
		expr = fmt.Sprintf("jsonb_set(%s, $%d::text[], $%d::jsonb, true)", expr, pathArg, valArg)
	}

	conds := []string{"collection=$1", "id=$2"}
	for _, f := range pre {
		c, err := filterSQL(f, &args)
		if err != nil {
			return err
		}
		conds = append(conds, c)
	}

	q := fmt.Sprintf(`UPDATE documents SET doc = %s, updated_at = now() WHERE %s`,
		expr, strings.Join(conds, " AND "))

	ct, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return unavailable("update", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.Get(ctx, collection, id); errors.Is(err, docstore.ErrNotFound) {
			return docstore.ErrNotFound
		}
		return docstore.ErrPrecondition
	}
	s.notify(ctx, collection)
	return nil
}

// Delete permanently removes a document.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection=$1 AND id=$2`, collection, id)
	if err != nil {
		return unavailable("delete", err)
	}
	if ct.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	s.notify(ctx, collection)
	return nil
}

// notify wakes subscribers. Fan-out loss here degrades to a stale read
// until the next change; writes themselves are already durable.
func (s *Store) notify(ctx context.Context, collection string) {
	_, _ = s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, channel, collection)
}

func decodeDoc(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("pgstore decode: %w", err)
	}
	return doc, nil
}

func pathSegments(path string) []string {
	return strings.Split(path, ".")
}

// filterSQL compiles one filter into a WHERE fragment, appending its
// arguments to args.
func filterSQL(f docstore.Filter, args *[]any) (string, error) {
	if f.Path == docstore.IDPath {
		if f.Op != docstore.OpEq {
			return "", fmt.Errorf("pgstore: unsupported id filter op %q", f.Op)
		}
		*args = append(*args, f.Value)
		return fmt.Sprintf("id = $%d", len(*args)), nil
	}

	*args = append(*args, pathSegments(f.Path))
	pathArg := len(*args)

	switch f.Op {
	case docstore.OpMissing:
		return fmt.Sprintf("((doc #> $%d::text[]) IS NULL OR (doc #> $%d::text[]) = 'null'::jsonb)",
			pathArg, pathArg), nil
	case docstore.OpEq:
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return "", fmt.Errorf("pgstore filter %s: %w", f.Path, err)
		}
		*args = append(*args, string(raw))
		return fmt.Sprintf("(doc #> $%d::text[]) = $%d::jsonb", pathArg, len(*args)), nil
	default:
		return "", fmt.Errorf("pgstore: unsupported filter op %q", f.Op)
	}
}

func buildWhere(collection string, filters []docstore.Filter) (string, []any, error) {
	args := []any{collection}
	conds := []string{"collection=$1"}
	for _, f := range filters {
		c, err := filterSQL(f, &args)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, c)
	}
	return strings.Join(conds, " AND "), args, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("pgstore %s: %w: %v", op, docstore.ErrUnavailable, err)
}

var _ docstore.Store = (*Store)(nil)
