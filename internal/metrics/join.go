/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
    "strings"

    "github.com/HamedShams/plane-pulse/internal/domain"
    "github.com/google/uuid"
)

// refOutcome tags the validation result of a single relation record. Skipped
// records are counted in diagnostics from the tag, so the counters always
// match what was actually excluded.
type refOutcome int

const (
    refOK refOutcome = iota
    refUnknownCycle
    refUnknownIssue
    refUnknownUser
)

type assignee struct {
    id   uuid.UUID
    name string
}

// joinedIssue is one issue with its relations resolved: member cycles (empty
// means unscheduled) and assignees (empty means unassigned).
type joinedIssue struct {
    issue     *domain.Issue
    points    int
    estimated bool
    category  string
    cycles    []*domain.Cycle
    assignees []assignee
}

// joinedRow is one (issue, cycle, assignee) combination of the fan-out view.
// A row carries the issue's full point value; de-duplicating shared work is
// the aggregation passes' concern, not the joiner's.
type joinedRow struct {
    issue    *joinedIssue
    cycle    *domain.Cycle // nil when the issue belongs to no cycle
    assignee assignee      // zero id when unassigned
}

func classifyMembership(m domain.CycleMembership, cycles map[uuid.UUID]*domain.Cycle, issues map[uuid.UUID]*joinedIssue) refOutcome {
    if _, ok := cycles[m.CycleID]; !ok {
        return refUnknownCycle
    }
    if _, ok := issues[m.IssueID]; !ok {
        return refUnknownIssue
    }
    return refOK
}

func classifyAssignment(a domain.Assignment, issues map[uuid.UUID]*joinedIssue, users map[uuid.UUID]*domain.User) refOutcome {
    if _, ok := issues[a.IssueID]; !ok {
        return refUnknownIssue
    }
    if _, ok := users[a.AssigneeID]; !ok {
        return refUnknownUser
    }
    return refOK
}

func normalizeCategory(c string) string {
    if strings.TrimSpace(c) == "" {
        return domain.CategoryUnplanned
    }
    return c
}

func userLabel(u *domain.User) string {
    if name := strings.TrimSpace(u.DisplayName); name != "" {
        return name
    }
    if u.Email != "" {
        return u.Email
    }
    return u.ID.String()
}

// join resolves the four record sets into the per-issue view. Input order is
// preserved for issues so the whole pipeline stays deterministic; dangling
// relations are dropped and counted, never raised.
func join(snap domain.Snapshot, diag *Diagnostics) []*joinedIssue {
    cycles := make(map[uuid.UUID]*domain.Cycle, len(snap.Cycles))
    for i := range snap.Cycles {
        cycles[snap.Cycles[i].ID] = &snap.Cycles[i]
    }
    users := make(map[uuid.UUID]*domain.User, len(snap.Users))
    for i := range snap.Users {
        users[snap.Users[i].ID] = &snap.Users[i]
    }

    out := make([]*joinedIssue, 0, len(snap.Issues))
    byID := make(map[uuid.UUID]*joinedIssue, len(snap.Issues))
    for i := range snap.Issues {
        iss := &snap.Issues[i]
        ji := &joinedIssue{issue: iss, category: normalizeCategory(iss.Category)}
        if iss.Points != nil {
            ji.points = *iss.Points
            ji.estimated = true
        }
        out = append(out, ji)
        byID[iss.ID] = ji
    }

    // Duplicate relation rows collapse to one: a re-synced membership or
    // assignment must not attach the same cycle or assignee twice, which
    // would double that issue's duration sample downstream.
    seenMem := map[pairKey]bool{}
    for _, m := range snap.Memberships {
        k := pairKey{m.CycleID, m.IssueID}
        if seenMem[k] {
            continue
        }
        seenMem[k] = true
        switch classifyMembership(m, cycles, byID) {
        case refUnknownCycle:
            diag.DanglingCycleRefs++
        case refUnknownIssue:
            diag.DanglingIssueRefs++
        default:
            byID[m.IssueID].cycles = append(byID[m.IssueID].cycles, cycles[m.CycleID])
        }
    }

    seenAsg := map[pairKey]bool{}
    for _, a := range snap.Assignments {
        k := pairKey{a.IssueID, a.AssigneeID}
        if seenAsg[k] {
            continue
        }
        seenAsg[k] = true
        switch classifyAssignment(a, byID, users) {
        case refUnknownIssue:
            diag.DanglingIssueRefs++
        case refUnknownUser:
            diag.DanglingUserRefs++
        default:
            u := users[a.AssigneeID]
            byID[a.IssueID].assignees = append(byID[a.IssueID].assignees, assignee{id: u.ID, name: userLabel(u)})
        }
    }
    return out
}

// fanOut expands the per-issue view into the (issue, cycle, assignee) rows.
// An issue with no cycle yields rows with a nil cycle; an issue with no
// assignee yields rows under the Unassigned bucket.
func fanOut(issues []*joinedIssue) []joinedRow {
    var rows []joinedRow
    for _, ji := range issues {
        cycles := ji.cycles
        if len(cycles) == 0 {
            cycles = []*domain.Cycle{nil}
        }
        assignees := ji.assignees
        if len(assignees) == 0 {
            assignees = []assignee{{name: UnassignedLabel}}
        }
        for _, c := range cycles {
            for _, a := range assignees {
                rows = append(rows, joinedRow{issue: ji, cycle: c, assignee: a})
            }
        }
    }
    return rows
}
