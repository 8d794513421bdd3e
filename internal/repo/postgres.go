package repo

import (
    "context"
    "regexp"
    "time"

    "github.com/HamedShams/plane-pulse/internal/config"
    "github.com/HamedShams/plane-pulse/internal/domain"
    "github.com/google/uuid"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

// Repository is the row loader: it materializes the record sets the metrics
// engine consumes. All filtering the tracker requires (soft deletes, project
// scoping) happens here; the engine sees clean in-memory collections.
type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    return r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
}

// Category classification mirrors the label conventions of the tracked
// projects: a project prefix plus variants like "nao-planejada", "bug_glpi".
var (
    unplannedRe = regexp.MustCompile(`(?i)(nao|não)[\s\-_]*planejada|unplanned`)
    bugGLPIRe   = regexp.MustCompile(`(?i)bug[\s\-_]*glpi|glpi[\s\-_]*bug|bugglpi`)
    bugRe       = regexp.MustCompile(`(?i)(^|[,\s\-_])bug([,\s\-_]|$)`)
    featureRe   = regexp.MustCompile(`(?i)(^|[,\s\-_])feature([,\s\-_]|$)`)
)

func classifyCategory(labels, typeName string) string {
    switch {
    case unplannedRe.MatchString(labels):
        return domain.CategoryUnplanned
    case bugGLPIRe.MatchString(labels):
        return domain.CategoryBugGLPI
    case bugRe.MatchString(labels) || typeName == "bug":
        return domain.CategoryBug
    case featureRe.MatchString(labels) || typeName == "feature":
        return domain.CategoryFeature
    default:
        return domain.CategoryOther
    }
}

func (r *Repository) LoadCycles(ctx context.Context, projectID uuid.UUID) ([]domain.Cycle, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT id, name, start_date, end_date
        FROM cycles
        WHERE project_id = $1 AND deleted_at IS NULL
        ORDER BY start_date NULLS FIRST, id`, projectID)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.Cycle
    for rows.Next() {
        var c domain.Cycle
        if err := rows.Scan(&c.ID, &c.Name, &c.StartDate, &c.EndDate); err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

// LoadIssues resolves the point estimate the way the tracker stores it
// (inline point, falling back to the estimate_points row) and derives the
// start-of-work timestamp from the first transition into a "started" state,
// falling back to the issue's own start_date.
func (r *Repository) LoadIssues(ctx context.Context, projectID uuid.UUID) ([]domain.Issue, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT i.id,
               i.name,
               COALESCE(i.point, ep.key, NULLIF(ep.value, '')::int),
               i.created_at,
               COALESCE(
                   (SELECT MIN(ia.created_at)
                    FROM issue_activities ia
                    JOIN states ss ON ss.id = ia.new_identifier
                    WHERE ia.issue_id = i.id AND ia.deleted_at IS NULL
                      AND ia.field = 'state' AND ss."group" = 'started'),
                   i.start_date),
               i.completed_at,
               COALESCE(LOWER(it.name), ''),
               COALESCE(
                   (SELECT STRING_AGG(LOWER(l.name), ',')
                    FROM issue_labels il
                    JOIN labels l ON l.id = il.label_id
                    WHERE il.issue_id = i.id AND il.deleted_at IS NULL),
                   '')
        FROM issues i
        LEFT JOIN estimate_points ep ON ep.id = i.estimate_point_id
        LEFT JOIN issue_types it ON it.id = i.type_id
        WHERE i.project_id = $1 AND i.deleted_at IS NULL
        ORDER BY i.id`, projectID)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.Issue
    for rows.Next() {
        var iss domain.Issue
        var typeName, labels string
        if err := rows.Scan(&iss.ID, &iss.Title, &iss.Points, &iss.CreatedAt, &iss.StartedAt, &iss.CompletedAt, &typeName, &labels); err != nil {
            return nil, err
        }
        iss.Category = classifyCategory(labels, typeName)
        out = append(out, iss)
    }
    return out, rows.Err()
}

func (r *Repository) LoadMemberships(ctx context.Context, projectID uuid.UUID) ([]domain.CycleMembership, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT cycle_id, issue_id
        FROM cycle_issues
        WHERE project_id = $1 AND deleted_at IS NULL
        ORDER BY cycle_id, issue_id`, projectID)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.CycleMembership
    for rows.Next() {
        var m domain.CycleMembership
        if err := rows.Scan(&m.CycleID, &m.IssueID); err != nil { return nil, err }
        out = append(out, m)
    }
    return out, rows.Err()
}

func (r *Repository) LoadAssignments(ctx context.Context, projectID uuid.UUID) ([]domain.Assignment, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT ia.issue_id, ia.assignee_id
        FROM issue_assignees ia
        JOIN issues i ON i.id = ia.issue_id
        WHERE i.project_id = $1 AND ia.deleted_at IS NULL AND i.deleted_at IS NULL
        ORDER BY ia.issue_id, ia.assignee_id`, projectID)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.Assignment
    for rows.Next() {
        var a domain.Assignment
        if err := rows.Scan(&a.IssueID, &a.AssigneeID); err != nil { return nil, err }
        out = append(out, a)
    }
    return out, rows.Err()
}

func (r *Repository) LoadUsers(ctx context.Context) ([]domain.User, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT id, COALESCE(display_name, username), COALESCE(email, '')
        FROM users
        WHERE is_active = TRUE
        ORDER BY id`)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.User
    for rows.Next() {
        var u domain.User
        if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email); err != nil { return nil, err }
        out = append(out, u)
    }
    return out, rows.Err()
}

// LoadSnapshot materializes the full engine input for one project.
func (r *Repository) LoadSnapshot(ctx context.Context, projectID uuid.UUID) (domain.Snapshot, error) {
    var snap domain.Snapshot
    var err error
    if snap.Cycles, err = r.LoadCycles(ctx, projectID); err != nil { return snap, err }
    if snap.Issues, err = r.LoadIssues(ctx, projectID); err != nil { return snap, err }
    if snap.Memberships, err = r.LoadMemberships(ctx, projectID); err != nil { return snap, err }
    if snap.Assignments, err = r.LoadAssignments(ctx, projectID); err != nil { return snap, err }
    if snap.Users, err = r.LoadUsers(ctx); err != nil { return snap, err }
    r.log.Debug().
        Int("cycles", len(snap.Cycles)).
        Int("issues", len(snap.Issues)).
        Int("memberships", len(snap.Memberships)).
        Int("assignments", len(snap.Assignments)).
        Msg("snapshot loaded")
    return snap, nil
}
