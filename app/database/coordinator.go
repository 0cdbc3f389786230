package database

import (
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrNestedTransaction is returned when a transaction (or a plain
	// read/write) is requested from inside an already-running transaction
	// callback. One transaction may be active at a time, process-wide.
	ErrNestedTransaction = errors.New("database: nested transaction")

	// ErrCoordinatorClosed is returned for operations submitted after Close.
	ErrCoordinatorClosed = errors.New("database: coordinator is closed")
)

// Querier is the read-only statement surface handed to Read callbacks.
type Querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Execer is the mutation statement surface handed to Write callbacks.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Coordinator serializes access to the single SQLite handle. Readers run
// concurrently with each other; writers are exclusive and FIFO-fair. On top
// of the lock, every statement is funneled through one worker goroutine so
// the handle only ever sees a single in-flight request from this process,
// regardless of how many callers hold read locks.
type Coordinator struct {
	db  *DB
	ops chan *operation
	wg  sync.WaitGroup

	mu             sync.Mutex
	activeReaders  int
	writerActive   bool
	waitingReaders []chan struct{}
	waitingWriters []chan struct{}

	txOwner atomic.Int64
	closed  atomic.Bool
}

type operation struct {
	fn    func() error
	done  chan struct{}
	err   error
	panic any
}

// NewCoordinator starts the operation queue worker over the given handle.
func NewCoordinator(db *DB) *Coordinator {
	c := &Coordinator{
		db:  db,
		ops: make(chan *operation, 64),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Coordinator) run() {
	defer c.wg.Done()
	for op := range c.ops {
		op.execute()
	}
}

func (op *operation) execute() {
	defer close(op.done)
	defer func() {
		if r := recover(); r != nil {
			op.panic = r
		}
	}()
	op.err = op.fn()
}

// submit enqueues fn on the operation queue and waits for it to finish.
// A panic raised by fn is re-raised in the caller, not the worker.
func (c *Coordinator) submit(fn func() error) error {
	op := &operation{fn: fn, done: make(chan struct{})}
	c.ops <- op
	<-op.done
	if op.panic != nil {
		panic(op.panic)
	}
	return op.err
}

// Read executes fn with shared access. Multiple readers may be in flight at
// once; fn blocks while a writer is active or queued ahead of it.
func (c *Coordinator) Read(fn func(q Querier) error) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}
	if c.txOwner.Load() == goroutineID() {
		return fmt.Errorf("read inside transaction callback: %w", ErrNestedTransaction)
	}

	c.acquireRead()
	defer c.releaseRead()

	// Close sets closed before taking the write lock, so a waiter promoted
	// by Close's release must not touch the queue.
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}

	return c.submit(func() error {
		return fn(c.db)
	})
}

// Write executes fn with exclusive access. Writers are executed strictly in
// submission order and never interleave with readers.
func (c *Coordinator) Write(fn func(e Execer) error) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}
	if c.txOwner.Load() == goroutineID() {
		return fmt.Errorf("write inside transaction callback: %w", ErrNestedTransaction)
	}

	c.acquireWrite()
	defer c.releaseWrite()

	if c.closed.Load() {
		return ErrCoordinatorClosed
	}

	return c.submit(func() error {
		return fn(c.db)
	})
}

// WithTransaction executes fn with exclusive access inside a transaction.
// Every statement issued on tx is atomic: a returned error or a panic rolls
// the transaction back before the error (or panic) reaches the caller.
// Calling WithTransaction from inside fn fails with ErrNestedTransaction.
func (c *Coordinator) WithTransaction(fn func(tx *sql.Tx) error) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}
	if c.txOwner.Load() == goroutineID() {
		return ErrNestedTransaction
	}

	c.acquireWrite()
	defer c.releaseWrite()

	if c.closed.Load() {
		return ErrCoordinatorClosed
	}

	return c.submit(func() error {
		c.txOwner.Store(goroutineID())
		defer c.txOwner.Store(0)

		tx, err := c.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
				panic(r)
			}
		}()

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// Close waits for in-flight operations, stops the worker and closes the
// underlying handle. Close is idempotent.
func (c *Coordinator) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.acquireWrite()
	defer c.releaseWrite()

	close(c.ops)
	c.wg.Wait()

	return c.db.Close()
}

// Lock state machine: readers are admitted while no writer is active or
// queued; a queued writer blocks new readers so it cannot be starved. On
// writer release all queued readers are promoted as a batch, otherwise the
// next queued writer takes over.

func (c *Coordinator) acquireRead() {
	c.mu.Lock()
	if !c.writerActive && len(c.waitingWriters) == 0 {
		c.activeReaders++
		c.mu.Unlock()
		return
	}
	ready := make(chan struct{})
	c.waitingReaders = append(c.waitingReaders, ready)
	c.mu.Unlock()
	<-ready
}

func (c *Coordinator) releaseRead() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activeReaders--
	if c.activeReaders == 0 && len(c.waitingWriters) > 0 {
		next := c.waitingWriters[0]
		c.waitingWriters = c.waitingWriters[1:]
		c.writerActive = true
		close(next)
	}
}

func (c *Coordinator) acquireWrite() {
	c.mu.Lock()
	if !c.writerActive && c.activeReaders == 0 {
		c.writerActive = true
		c.mu.Unlock()
		return
	}
	ready := make(chan struct{})
	c.waitingWriters = append(c.waitingWriters, ready)
	c.mu.Unlock()
	<-ready
}

func (c *Coordinator) releaseWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writerActive = false
	if len(c.waitingReaders) > 0 {
		batch := c.waitingReaders
		c.waitingReaders = nil
		c.activeReaders = len(batch)
		for _, ready := range batch {
			close(ready)
		}
	} else if len(c.waitingWriters) > 0 {
		next := c.waitingWriters[0]
		c.waitingWriters = c.waitingWriters[1:]
		c.writerActive = true
		close(next)
	}
}

// goroutineID extracts the current goroutine id from the stack header. Used
// only to detect re-entrant transaction callbacks.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(string(buf[:n]))
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return -1
	}
	return id
}
