package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

const tasksDBSuffix = "-tasks"

// Client runs imports and enrichment in the background on a backlite queue.
// Tasks live in their own SQLite file next to the library database so a
// long import never holds the library's write lock.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int
	log      *zap.SugaredLogger
	running  atomic.Bool
}

// DatabasePath derives the task database location from the library database,
// e.g. ./pixeljournal.db becomes ./pixeljournal-tasks.db.
func DatabasePath(libraryDBPath string) string {
	ext := filepath.Ext(libraryDBPath)
	return strings.TrimSuffix(libraryDBPath, ext) + tasksDBSuffix + ext
}

func NewClient(libraryDBPath string, cfg Config, log *zap.SugaredLogger) (*Client, error) {
	log = log.Named("tasks")
	path := DatabasePath(libraryDBPath)

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open tasks database %s: %w", path, err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{log: log},
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create task client: %w", err)
	}
	if err := bl.Install(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("install task schema: %w", err)
	}

	log.Debugw("Task database ready", "path", path)
	return &Client{backlite: bl, db: db, workers: cfg.Workers, log: log}, nil
}

// Register adds task queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start runs the workers until ctx is cancelled or Stop is called.
// Calling it twice is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	c.log.Infow("Task queue started", "workers", c.workers)
	c.backlite.Start(ctx)
}

// Stop waits for in-flight tasks and reports whether they all finished
// before ctx expired.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.Load() {
		return true
	}
	finished := c.backlite.Stop(ctx)
	if finished {
		c.log.Info("Task queue stopped")
	} else {
		c.log.Warn("Task queue stop timed out, some tasks did not finish")
	}
	return finished
}

// Close releases the task database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Enqueue stores a task and returns its id.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	ids, err := c.backlite.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}
	return ids[0], nil
}

// Status reports the state of a task. Purged tasks report TaskStatusNotFound.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.backlite.Status(ctx, taskID)
}

// queueLogger forwards backlite's key-value logs to zap.
type queueLogger struct {
	log *zap.SugaredLogger
}

func (l queueLogger) Info(message string, params ...any) {
	l.log.Infow(message, params...)
}

func (l queueLogger) Error(message string, params ...any) {
	l.log.Errorw(message, params...)
}
