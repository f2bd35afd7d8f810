// Package dbpool implements a bounded pool of MySQL connections with
// counting-semaphore-style blocking acquire/release and a scoped RAII-style
// handle, adapted from the original's SqlConnPool/SqlConnRAII
// (src/pool/sqlconnpool.hpp, src/pool/sqlconnRAII.hpp). Go's database/sql
// already pools connections internally; this layer reproduces the
// original's explicit bounded-acquire discipline on top of it via
// database/sql's own Conn type and the go-sql-driver/mysql driver.
package dbpool

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// Pool bounds concurrent access to maxCount database/sql connections. Get
// blocks once that many handles are checked out, mirroring the original's
// sem_wait on an empty queue.
type Pool struct {
	db   *sql.DB
	sem  chan struct{}
	size int
}

// Open connects to host:port/dbname as user and returns a Pool bounded to
// maxCount simultaneously checked-out connections.
func Open(host string, port int, user, passwd, dbname string, maxCount int) (*Pool, error) {
	if maxCount <= 0 {
		return nil, fmt.Errorf("dbpool: maxCount must be positive, got %d", maxCount)
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", user, passwd, host, port, dbname)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("dbpool: open: %w", err)
	}
	db.SetMaxOpenConns(maxCount)
	db.SetMaxIdleConns(maxCount)
	return &Pool{
		db:   db,
		sem:  make(chan struct{}, maxCount),
		size: maxCount,
	}, nil
}

// Handle is a checked-out connection; callers must call Release exactly
// once, typically via defer, mirroring SqlConnRAII's destructor-driven
// FreeSqlConn.
type Handle struct {
	conn *sql.Conn
	pool *Pool
}

// Conn returns the underlying *sql.Conn for querying.
func (h *Handle) Conn() *sql.Conn {
	return h.conn
}

// Release returns the connection to the pool. Safe to call via defer
// immediately after Get.
func (h *Handle) Release() {
	h.conn.Close()
	<-h.pool.sem
}

// Get blocks until a slot is available (or ctx is done), acquires a
// database/sql connection, and returns a Handle the caller must Release.
func (p *Pool) Get(ctx context.Context) (*Handle, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	conn, err := p.db.Conn(ctx)
	if err != nil {
		<-p.sem
		return nil, fmt.Errorf("dbpool: acquire connection: %w", err)
	}
	return &Handle{conn: conn, pool: p}, nil
}

// FreeCount reports how many of the pool's slots are currently unused.
func (p *Pool) FreeCount() int {
	return p.size - len(p.sem)
}

// Close releases the underlying *sql.DB. Any Handles still checked out
// become invalid.
func (p *Pool) Close() error {
	return p.db.Close()
}

// Querier is the minimal interface httpserver's login/registration handlers
// need, letting tests substitute a mock instead of a live MySQL server.
type Querier interface {
	// UserExists reports whether username exists, and if so its stored
	// password, mirroring UserVerify_'s SELECT username, password query.
	UserExists(ctx context.Context, username string) (password string, found bool, err error)
	// CreateUser inserts a new user row, mirroring UserVerify_'s INSERT on
	// the registration path.
	CreateUser(ctx context.Context, username, password string) error
}

// SQLQuerier implements Querier against a live database through a Pool.
type SQLQuerier struct {
	Pool *Pool
}

func (q *SQLQuerier) UserExists(ctx context.Context, username string) (string, bool, error) {
	h, err := q.Pool.Get(ctx)
	if err != nil {
		return "", false, err
	}
	defer h.Release()

	row := h.Conn().QueryRowContext(ctx, "SELECT password FROM user WHERE username=?", username)
	var password string
	switch err := row.Scan(&password); err {
	case nil:
		return password, true, nil
	case sql.ErrNoRows:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("dbpool: query user: %w", err)
	}
}

func (q *SQLQuerier) CreateUser(ctx context.Context, username, password string) error {
	h, err := q.Pool.Get(ctx)
	if err != nil {
		return err
	}
	defer h.Release()

	_, err = h.Conn().ExecContext(ctx, "INSERT INTO user(username, password) VALUES(?, ?)", username, password)
	if err != nil {
		return fmt.Errorf("dbpool: insert user: %w", err)
	}
	return nil
}
