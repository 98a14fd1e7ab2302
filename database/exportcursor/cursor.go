package exportcursor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pool manages PostgreSQL cursors used for streaming grid exports. Each
// export declares a forward-only cursor inside its own transaction and
// fetches rows in batches, so arbitrarily large result sets never load
// into memory at once.
type Pool struct {
	db          *sql.DB
	cursors     map[string]*Cursor
	mu          sync.Mutex
	idleTimeout time.Duration
	absTimeout  time.Duration
	maxCursors  int
	cleanupStop chan struct{}
}

// Cursor holds the session state of one declared cursor.
type Cursor struct {
	ID         string
	CursorName string
	Conn       *sql.Conn
	Tx         *sql.Tx
	CreatedAt  time.Time
	LastUsed   time.Time
	sync.Mutex
}

// NewPool wraps an existing database handle. The pool does not own the
// handle and Close leaves it open.
func NewPool(db *sql.DB, maxCursors int, idleTimeout, absTimeout time.Duration) *Pool {
	pool := &Pool{
		db:          db,
		cursors:     make(map[string]*Cursor),
		idleTimeout: idleTimeout,
		absTimeout:  absTimeout,
		maxCursors:  maxCursors,
		cleanupStop: make(chan struct{}),
	}

	pool.startCleanupRoutine()
	return pool
}

// Close stops the cleanup routine and releases every open cursor.
func (p *Pool) Close() error {
	close(p.cleanupStop)

	p.mu.Lock()
	defer p.mu.Unlock()
	for id, cursor := range p.cursors {
		cursor.Lock()
		p.removeCursor(id, cursor)
		cursor.Unlock()
	}
	return nil
}

func (p *Pool) startCleanupRoutine() {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		for {
			select {
			case <-ticker.C:
				p.cleanupTimeouts()
			case <-p.cleanupStop:
				ticker.Stop()
				return
			}
		}
	}()
}

func (p *Pool) cleanupTimeouts() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for id, cursor := range p.cursors {
		cursor.Lock()
		if now.Sub(cursor.CreatedAt) > p.absTimeout || now.Sub(cursor.LastUsed) > p.idleTimeout {
			slog.Info("Cleaning up expired export cursor", "cursorname", cursor.CursorName)
			p.removeCursor(id, cursor)
		}
		cursor.Unlock()
	}
}

func (p *Pool) removeCursor(id string, cursor *Cursor) {
	if cursor.Tx != nil {
		cursor.Tx.Rollback()
	}
	if cursor.Conn != nil {
		cursor.Conn.Close()
	}
	delete(p.cursors, id)
}

// Open declares a new forward-only cursor for the query and returns its
// id for subsequent Fetch calls.
func (p *Pool) Open(ctx context.Context, query string, args ...interface{}) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.cursors) >= p.maxCursors && p.maxCursors > 0 {
		return "", fmt.Errorf("export cursor pool capacity reached (max %d)", p.maxCursors)
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}

	id := uuid.New().String()
	cursorName := "exp_" + id[:8]
	declareSQL := fmt.Sprintf("DECLARE %s NO SCROLL CURSOR FOR %s", cursorName, query)

	if _, err := tx.ExecContext(ctx, declareSQL, args...); err != nil {
		tx.Rollback()
		conn.Close()
		return "", fmt.Errorf("failed to declare cursor: %w", err)
	}

	p.cursors[id] = &Cursor{
		ID:         id,
		CursorName: cursorName,
		Conn:       conn,
		Tx:         tx,
		CreatedAt:  time.Now(),
		LastUsed:   time.Now(),
	}
	return id, nil
}

// Fetch reads the next batch of rows from an open cursor. An empty
// result means the cursor is drained.
func (p *Pool) Fetch(ctx context.Context, id string, count int) ([]map[string]interface{}, error) {
	p.mu.Lock()
	cursor, ok := p.cursors[id]
	p.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no active export cursor %s", id)
	}

	cursor.Lock()
	defer cursor.Unlock()
	cursor.LastUsed = time.Now()

	fetchSQL := fmt.Sprintf("FETCH FORWARD %d FROM %q", count, cursor.CursorName)
	rows, err := cursor.Tx.QueryContext(ctx, fetchSQL)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Release closes one cursor and its transaction.
func (p *Pool) Release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cursor, ok := p.cursors[id]; ok {
		cursor.Lock()
		p.removeCursor(id, cursor)
		cursor.Unlock()
	}
}

func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{})
		for i, col := range cols {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = val
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
