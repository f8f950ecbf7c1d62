package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// connPool hands out dedicated *sql.Conn handles up to a fixed maximum.
// Released connections are parked on an idle channel for reuse; when the
// channel is full the surplus connection is closed instead.
type connPool struct {
	db             *sql.DB
	idle           chan *sql.Conn
	acquireTimeout time.Duration

	mu     sync.Mutex
	active int
	max    int
	closed bool
}

func newConnPool(db *sql.DB, max int, acquireTimeout time.Duration) *connPool {
	return &connPool{
		db:             db,
		idle:           make(chan *sql.Conn, max),
		acquireTimeout: acquireTimeout,
		max:            max,
	}
}

// Acquire returns a connection, waiting up to the pool's acquire timeout
// when all connections are checked out.
func (p *connPool) Acquire(ctx context.Context) (*sql.Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("acquire connection: pool is closed")
	}
	p.mu.Unlock()

	select {
	case conn := <-p.idle:
		return conn, nil
	default:
	}

	p.mu.Lock()
	if p.active < p.max {
		p.active++
		p.mu.Unlock()

		conn, err := p.db.Conn(ctx)
		if err != nil {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
			return nil, fmt.Errorf("open connection: %w", err)
		}
		return conn, nil
	}
	p.mu.Unlock()

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case conn := <-p.idle:
		return conn, nil
	case <-timer.C:
		return nil, ErrPoolTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a connection to the pool. If the idle set is already full
// the connection is closed and the active count decremented.
func (p *connPool) Release(conn *sql.Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		conn.Close()
		return
	}

	select {
	case p.idle <- conn:
	default:
		conn.Close()
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}
}

// Close drains the idle connections and marks the pool unusable.
func (p *connPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case conn := <-p.idle:
			conn.Close()
		default:
			return nil
		}
	}
}
