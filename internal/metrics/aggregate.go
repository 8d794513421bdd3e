/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
    "time"

    "github.com/HamedShams/plane-pulse/internal/domain"
    "github.com/google/uuid"
)

// deliveredIn reports whether a completion timestamp falls inside the cycle
// window, inclusive of both bounds. A nil bound leaves that side open, as in
// the source schema where cycle dates are nullable.
func deliveredIn(done *time.Time, c *domain.Cycle) bool {
    if done == nil || c == nil {
        return false
    }
    if c.StartDate != nil && done.Before(*c.StartDate) {
        return false
    }
    if c.EndDate != nil && done.After(*c.EndDate) {
        return false
    }
    return true
}

// deliveredAnywhere reports whether the issue's completion falls inside at
// least one of its member cycle windows. Completed issues for which this is
// false land in the overflow bucket.
func deliveredAnywhere(ji *joinedIssue) bool {
    for _, c := range ji.cycles {
        if deliveredIn(ji.issue.CompletedAt, c) {
            return true
        }
    }
    return false
}

type pointAcc struct {
    plannedCount    int
    plannedPoints   int
    deliveredCount  int
    deliveredPoints int
    unestimated     int
    dur             durationAgg
}

func (p *pointAcc) addPlanned(ji *joinedIssue) {
    p.plannedCount++
    p.plannedPoints += ji.points
    if !ji.estimated {
        p.unestimated++
    }
}

func (p *pointAcc) addDelivered(ji *joinedIssue) {
    p.deliveredCount++
    p.deliveredPoints += ji.points
}

type sprintAcc struct {
    cycle      *domain.Cycle
    pointAcc
    categories map[string]*pointAcc
}

type devAcc struct {
    id   uuid.UUID
    name string
    pointAcc
}

// accumulators holds the three grouping dimensions plus the global totals
// while the two reduction passes run.
type accumulators struct {
    sprints    map[uuid.UUID]*sprintAcc
    developers map[uuid.UUID]*devAcc
    categories map[string]*pointAcc
    totals     pointAcc
}

func newAccumulators(snap domain.Snapshot) *accumulators {
    acc := &accumulators{
        sprints:    make(map[uuid.UUID]*sprintAcc, len(snap.Cycles)),
        developers: map[uuid.UUID]*devAcc{},
        categories: map[string]*pointAcc{},
    }
    // Every cycle of the snapshot gets a sprint row, so an empty sprint
    // renders as zeros instead of disappearing from the time series.
    for i := range snap.Cycles {
        c := &snap.Cycles[i]
        acc.sprints[c.ID] = &sprintAcc{cycle: c, categories: map[string]*pointAcc{}}
    }
    return acc
}

func (a *accumulators) sprintCategory(s *sprintAcc, category string) *pointAcc {
    p, ok := s.categories[category]
    if !ok {
        p = &pointAcc{}
        s.categories[category] = p
    }
    return p
}

func (a *accumulators) developer(who assignee) *devAcc {
    d, ok := a.developers[who.id]
    if !ok {
        d = &devAcc{id: who.id, name: who.name}
        a.developers[who.id] = d
    }
    return d
}

func (a *accumulators) category(label string) *pointAcc {
    p, ok := a.categories[label]
    if !ok {
        p = &pointAcc{}
        a.categories[label] = p
    }
    return p
}

type pairKey struct{ a, b uuid.UUID }

// pointPass is the per-row reduction: it walks the fan-out view and folds
// planned/delivered counts and point sums into each grouping. Sprint and
// category groupings de-duplicate the assignee fan-out (one contribution per
// issue), the developer grouping de-duplicates the cycle fan-out (full points
// once per assignee). Both reads of the same rows are intentional — forcing
// one keying to serve both is how shared work gets double-counted.
func (a *accumulators) pointPass(rows []joinedRow, issues []*joinedIssue, diag *Diagnostics) {
    seenSprint := map[pairKey]bool{}
    seenDev := map[pairKey]bool{}

    for _, row := range rows {
        ji := row.issue
        if row.cycle != nil {
            k := pairKey{row.cycle.ID, ji.issue.ID}
            if !seenSprint[k] {
                seenSprint[k] = true
                s := a.sprints[row.cycle.ID]
                s.addPlanned(ji)
                cat := a.sprintCategory(s, ji.category)
                cat.addPlanned(ji)
                if deliveredIn(ji.issue.CompletedAt, row.cycle) {
                    s.addDelivered(ji)
                    cat.addDelivered(ji)
                }
            }
        }
        dk := pairKey{row.assignee.id, ji.issue.ID}
        if !seenDev[dk] {
            seenDev[dk] = true
            d := a.developer(row.assignee)
            d.addPlanned(ji)
            if deliveredAnywhere(ji) {
                d.addDelivered(ji)
            }
        }
    }

    // Global groupings are keyed per issue, independent of fan-out.
    for _, ji := range issues {
        delivered := deliveredAnywhere(ji)
        cat := a.category(ji.category)
        cat.addPlanned(ji)
        a.totals.addPlanned(ji)
        if delivered {
            cat.addDelivered(ji)
            a.totals.addDelivered(ji)
        } else if ji.issue.CompletedAt != nil {
            diag.OverflowDelivered++
            diag.OverflowDeliveredPoints += ji.points
        }
    }
}

// durationPass is the per-issue reduction: one duration sample per delivered
// issue regardless of how many assignees or cycles it fans out to. Samples
// attach to every sprint window that contains the completion, to each
// assignee, to the issue's category and to the totals.
func (a *accumulators) durationPass(issues []*joinedIssue, diag *Diagnostics) {
    for _, ji := range issues {
        sample, completed := computeDuration(ji, diag)
        if !completed || !deliveredAnywhere(ji) {
            continue
        }
        a.totals.dur.add(sample)
        a.category(ji.category).dur.add(sample)
        for _, c := range ji.cycles {
            if deliveredIn(ji.issue.CompletedAt, c) {
                a.sprints[c.ID].dur.add(sample)
            }
        }
        assignees := ji.assignees
        if len(assignees) == 0 {
            assignees = []assignee{{name: UnassignedLabel}}
        }
        for _, who := range assignees {
            a.developer(who).dur.add(sample)
        }
    }
}
