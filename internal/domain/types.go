package domain

import (
    "time"

    "github.com/google/uuid"
)

// Cycle is a sprint window as stored by the tracker. Start and end dates are
// nullable in the source schema; a nil bound is treated as open when deciding
// whether a completion falls inside the window.
type Cycle struct {
    ID        uuid.UUID
    Name      string
    StartDate *time.Time
    EndDate   *time.Time
}

// Issue carries only the fields the metrics engine consumes. Points is nil
// when the issue was never estimated; the three timestamps are nullable in
// the tracker and stay nullable here.
type Issue struct {
    ID          uuid.UUID
    Title       string
    Points      *int
    Category    string
    CreatedAt   *time.Time
    StartedAt   *time.Time
    CompletedAt *time.Time
}

// CycleMembership links an issue to a cycle. An issue may appear in several
// cycles (carry-over) or in none at all.
type CycleMembership struct {
    CycleID uuid.UUID
    IssueID uuid.UUID
}

// Assignment links an issue to a user.
type Assignment struct {
    IssueID    uuid.UUID
    AssigneeID uuid.UUID
}

type User struct {
    ID          uuid.UUID
    DisplayName string
    Email       string
}

// Snapshot is the fully materialized input of the metrics engine: the four
// record sets plus the user directory used for labeling. The engine never
// queries the store itself.
type Snapshot struct {
    Cycles      []Cycle
    Issues      []Issue
    Memberships []CycleMembership
    Assignments []Assignment
    Users       []User
}

// Category labels as the dashboard reports them. An issue whose record has no
// recognizable category is grouped under CategoryUnplanned, never dropped.
const (
    CategoryFeature   = "Feature"
    CategoryBug       = "Bug"
    CategoryBugGLPI   = "Bug GLPI"
    CategoryUnplanned = "Não planejada"
    CategoryOther     = "Outros"
)
