// Package hierarchy implements the task tree engine: a SQLite-backed arena
// of task nodes per project with structural maintenance (insert, cascade
// delete, reparent), sibling-scoped reordering, derived status/completion
// aggregation, and due-date inheritance for proposed subtasks.
//
// Concurrency contract: at most one in-flight structural mutation per
// project. Every mutation takes the project's lock and runs inside a single
// SQLite transaction, so readers observe either the pre- or post-mutation
// state, never an intermediate one. Operations on different projects run in
// parallel.
package hierarchy

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/taskdeck/taskdeck/internal/sizing"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// dbtx is satisfied by both *sql.DB and *sql.Tx, so traversal helpers can
// run inside or outside a transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds hierarchy store configuration.
type Config struct {
	DataDir string
	Policy  sizing.Policy
}

// DefaultConfig returns the default configuration for the hierarchy store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".taskdeck"),
		Policy:  sizing.DefaultPolicy(),
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the task hierarchy engine backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("hierarchy: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "tasks.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("hierarchy: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, locks: make(map[string]*sync.Mutex)}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("hierarchy: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Policy returns the size-to-ceiling policy the store validates against.
func (s *Store) Policy() sizing.Policy {
	return s.cfg.Policy
}

// projectLock returns the mutex serializing structural mutations for one
// project, creating it on first use.
func (s *Store) projectLock(projectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[projectID] = l
	}
	return l
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			due_date   TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id                        TEXT PRIMARY KEY,
			project_id                TEXT    NOT NULL,
			parent_id                 TEXT,
			path                      TEXT    NOT NULL DEFAULT '',
			depth                     INTEGER NOT NULL DEFAULT 0,
			sort_order                INTEGER NOT NULL,
			title                     TEXT    NOT NULL,
			description               TEXT    NOT NULL DEFAULT '',
			status                    TEXT    NOT NULL DEFAULT 'pending',
			priority                  TEXT    NOT NULL DEFAULT 'medium',
			size                      TEXT,
			initial_story_points      INTEGER,
			current_story_points      INTEGER,
			story_points_change_count INTEGER NOT NULL DEFAULT 0,
			completion                REAL    NOT NULL DEFAULT 0,
			due_date                  TEXT,
			iteration_id              TEXT,
			created_at                TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at                TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (project_id) REFERENCES projects(id),
			FOREIGN KEY (parent_id)  REFERENCES tasks(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_project   ON tasks(project_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_parent    ON tasks(parent_id, sort_order);
		CREATE INDEX IF NOT EXISTS idx_tasks_status    ON tasks(project_id, status);
		CREATE INDEX IF NOT EXISTS idx_tasks_iteration ON tasks(iteration_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// ─── Projects ────────────────────────────────────────────────────────────────

// CreateProject registers a new project scope for a task tree.
func (s *Store) CreateProject(name string, dueDate *time.Time) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("hierarchy: project name is required")
	}
	id := uuid.NewString()
	if _, err := s.db.Exec(
		`INSERT INTO projects (id, name, due_date) VALUES (?, ?, ?)`,
		id, name, dateString(dueDate),
	); err != nil {
		return nil, fmt.Errorf("hierarchy: create project: %w", err)
	}
	return s.GetProject(id)
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(id string) (*Project, error) {
	row := s.db.QueryRow(
		`SELECT id, name, due_date, created_at FROM projects WHERE id = ?`, id,
	)
	var p Project
	var due sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &due, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hierarchy: project %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("hierarchy: get project: %w", err)
	}
	p.DueDate = parseDate(due)
	return &p, nil
}

// SetProjectDueDate updates a project's due date. Project due dates are
// never consulted for subtask due-date derivation; they exist for the
// surrounding application's reporting.
func (s *Store) SetProjectDueDate(id string, dueDate *time.Time) error {
	res, err := s.db.Exec(
		`UPDATE projects SET due_date = ? WHERE id = ?`, dateString(dueDate), id,
	)
	if err != nil {
		return fmt.Errorf("hierarchy: set project due date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("hierarchy: project %q: %w", id, ErrNotFound)
	}
	return nil
}

// ─── Task reads ──────────────────────────────────────────────────────────────

// taskColumns is the SELECT list for task rows; queries using it must alias
// the tasks table as t.
const taskColumns = `
	t.id, t.project_id, t.parent_id, t.path, t.depth, t.sort_order,
	t.title, t.description, t.status, t.priority, t.size,
	t.initial_story_points, t.current_story_points, t.story_points_change_count,
	t.completion, t.due_date, t.iteration_id, t.created_at, t.updated_at,
	EXISTS(SELECT 1 FROM tasks c WHERE c.parent_id = t.id) AS has_children`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*TaskNode, error) {
	var n TaskNode
	var parentID, size, due, iteration sql.NullString
	var path string
	var initial, current sql.NullInt64
	if err := row.Scan(
		&n.ID, &n.ProjectID, &parentID, &path, &n.Depth, &n.SortOrder,
		&n.Title, &n.Description, &n.Status, &n.Priority, &size,
		&initial, &current, &n.StoryPointsChangeCount,
		&n.Completion, &due, &iteration, &n.CreatedAt, &n.UpdatedAt,
		&n.HasChildren,
	); err != nil {
		return nil, err
	}
	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	n.Path = splitPath(path)
	if size.Valid {
		n.Size = sizing.Size(size.String)
	}
	if initial.Valid {
		v := int(initial.Int64)
		n.InitialStoryPoints = &v
	}
	if current.Valid {
		v := int(current.Int64)
		n.CurrentStoryPoints = &v
	}
	n.DueDate = parseDate(due)
	if iteration.Valid {
		n.IterationID = iteration.String
	}
	return &n, nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(id string) (*TaskNode, error) {
	return s.getTask(s.db, id)
}

func (s *Store) getTask(q dbtx, id string) (*TaskNode, error) {
	row := q.QueryRow(`SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)
	n, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hierarchy: task %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("hierarchy: get task: %w", err)
	}
	return n, nil
}

// Children returns a task's direct children ordered by sort_order.
func (s *Store) Children(parentID string) ([]*TaskNode, error) {
	return s.children(s.db, parentID)
}

func (s *Store) children(q dbtx, parentID string) ([]*TaskNode, error) {
	return s.queryTasks(q,
		`SELECT `+taskColumns+` FROM tasks t WHERE t.parent_id = ? ORDER BY t.sort_order`,
		parentID,
	)
}

// TopLevel returns a project's top-level tasks ordered by sort_order.
func (s *Store) TopLevel(projectID string) ([]*TaskNode, error) {
	return s.queryTasks(s.db,
		`SELECT `+taskColumns+` FROM tasks t WHERE t.project_id = ? AND t.parent_id IS NULL ORDER BY t.sort_order`,
		projectID,
	)
}

func (s *Store) queryTasks(q dbtx, query string, args ...any) ([]*TaskNode, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*TaskNode
	for rows.Next() {
		n, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("hierarchy: scan task: %w", err)
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

// subtree returns the node and every descendant in breadth-first order.
// A revisited node means the parent chain loops; that aborts with
// CorruptHierarchyError rather than traversing forever.
func (s *Store) subtree(q dbtx, rootID string) ([]*TaskNode, error) {
	root, err := s.getTask(q, rootID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{rootID: true}
	out := []*TaskNode{root}
	queue := []string{rootID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		kids, err := s.children(q, cur)
		if err != nil {
			return nil, err
		}
		for _, k := range kids {
			if visited[k.ID] {
				return nil, &CorruptHierarchyError{TaskID: k.ID, Detail: "cycle detected during subtree traversal"}
			}
			visited[k.ID] = true
			out = append(out, k)
			queue = append(queue, k.ID)
		}
	}
	return out, nil
}

// nearestCeiling walks the ancestor chain starting at (and including) from
// and returns the size of the nearest sized task, or "" if no ancestor
// carries a size.
func (s *Store) nearestCeiling(q dbtx, from *TaskNode) (sizing.Size, error) {
	visited := map[string]bool{}
	cur := from
	for cur != nil {
		if visited[cur.ID] {
			return "", &CorruptHierarchyError{TaskID: cur.ID, Detail: "ancestor cycle"}
		}
		visited[cur.ID] = true
		if cur.Size != "" {
			return cur.Size, nil
		}
		if cur.ParentID == nil {
			return "", nil
		}
		parent, err := s.getTask(q, *cur.ParentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return "", &CorruptHierarchyError{TaskID: cur.ID, Detail: "dangling parent reference"}
			}
			return "", err
		}
		cur = parent
	}
	return "", nil
}

// ─── Date helpers ────────────────────────────────────────────────────────────

// dateLayout is the persisted form for due dates (date-only, UTC).
const dateLayout = "2006-01-02"

func dateString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

func parseDate(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
