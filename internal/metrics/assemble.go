/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
    "bytes"
    "sort"

    "github.com/HamedShams/plane-pulse/internal/domain"
    "github.com/google/uuid"
)

// categoryRank orders the dashboard's known categories ahead of ad-hoc
// labels, which sort alphabetically after them.
func categoryRank(label string) int {
    switch label {
    case domain.CategoryFeature:
        return 0
    case domain.CategoryBug:
        return 1
    case domain.CategoryBugGLPI:
        return 2
    case domain.CategoryUnplanned:
        return 3
    default:
        return 4
    }
}

func categorySlices(m map[string]*pointAcc) []CategorySlice {
    out := make([]CategorySlice, 0, len(m))
    for label, p := range m {
        out = append(out, CategorySlice{
            Category:        label,
            PlannedCount:    p.plannedCount,
            PlannedPoints:   p.plannedPoints,
            DeliveredCount:  p.deliveredCount,
            DeliveredPoints: p.deliveredPoints,
        })
    }
    sort.Slice(out, func(i, j int) bool {
        ri, rj := categoryRank(out[i].Category), categoryRank(out[j].Category)
        if ri != rj {
            return ri < rj
        }
        return out[i].Category < out[j].Category
    })
    return out
}

// assemble merges the point and duration accumulations into the final report
// tables with a stable, reproducible ordering.
func assemble(acc *accumulators, diag Diagnostics) *Report {
    sprints := make([]SprintRow, 0, len(acc.sprints))
    for _, s := range acc.sprints {
        sprints = append(sprints, SprintRow{
            CycleID:         s.cycle.ID,
            Name:            s.cycle.Name,
            StartDate:       s.cycle.StartDate,
            EndDate:         s.cycle.EndDate,
            PlannedCount:    s.plannedCount,
            PlannedPoints:   s.plannedPoints,
            DeliveredCount:  s.deliveredCount,
            DeliveredPoints: s.deliveredPoints,
            Unestimated:     s.unestimated,
            Categories:      categorySlices(s.categories),
            LeadTime:        summarize(s.dur.lead),
            CycleTime:       summarize(s.dur.cycle),
        })
    }
    // Time-series contract: start date ascending with missing dates first,
    // ties broken by cycle id.
    sort.Slice(sprints, func(i, j int) bool {
        si, sj := sprints[i].StartDate, sprints[j].StartDate
        switch {
        case si == nil && sj != nil:
            return true
        case si != nil && sj == nil:
            return false
        case si != nil && sj != nil && !si.Equal(*sj):
            return si.Before(*sj)
        }
        return bytes.Compare(sprints[i].CycleID[:], sprints[j].CycleID[:]) < 0
    })

    devs := make([]DeveloperRow, 0, len(acc.developers))
    for _, d := range acc.developers {
        row := DeveloperRow{
            UserID:          d.id,
            Name:            d.name,
            PlannedCount:    d.plannedCount,
            PlannedPoints:   d.plannedPoints,
            DeliveredCount:  d.deliveredCount,
            DeliveredPoints: d.deliveredPoints,
            Unestimated:     d.unestimated,
            LeadTime:        summarize(d.dur.lead),
            CycleTime:       summarize(d.dur.cycle),
        }
        if d.deliveredCount > 0 {
            row.AvgPointsPerIssue = float64(d.deliveredPoints) / float64(d.deliveredCount)
        }
        devs = append(devs, row)
    }
    sort.Slice(devs, func(i, j int) bool {
        if devs[i].DeliveredPoints != devs[j].DeliveredPoints {
            return devs[i].DeliveredPoints > devs[j].DeliveredPoints
        }
        if devs[i].DeliveredCount != devs[j].DeliveredCount {
            return devs[i].DeliveredCount > devs[j].DeliveredCount
        }
        if devs[i].Name != devs[j].Name {
            return devs[i].Name < devs[j].Name
        }
        return bytes.Compare(devs[i].UserID[:], devs[j].UserID[:]) < 0
    })

    cats := make([]CategoryRow, 0, len(acc.categories))
    for label, p := range acc.categories {
        cats = append(cats, CategoryRow{
            Category:        label,
            PlannedCount:    p.plannedCount,
            PlannedPoints:   p.plannedPoints,
            DeliveredCount:  p.deliveredCount,
            DeliveredPoints: p.deliveredPoints,
            Unestimated:     p.unestimated,
            LeadTime:        summarize(p.dur.lead),
            CycleTime:       summarize(p.dur.cycle),
        })
    }
    sort.Slice(cats, func(i, j int) bool {
        ri, rj := categoryRank(cats[i].Category), categoryRank(cats[j].Category)
        if ri != rj {
            return ri < rj
        }
        return cats[i].Category < cats[j].Category
    })

    totals := Totals{
        PlannedCount:    acc.totals.plannedCount,
        PlannedPoints:   acc.totals.plannedPoints,
        DeliveredCount:  acc.totals.deliveredCount,
        DeliveredPoints: acc.totals.deliveredPoints,
        Unestimated:     acc.totals.unestimated,
        LeadTime:        summarize(acc.totals.dur.lead),
        CycleTime:       summarize(acc.totals.dur.cycle),
    }
    // Per-developer averages over developers with at least one delivery,
    // excluding the Unassigned bucket, as the source tool computes them.
    var devCount, sumDelivered, sumPoints int
    for _, d := range acc.developers {
        if d.id == uuid.Nil || d.deliveredCount == 0 {
            continue
        }
        devCount++
        sumDelivered += d.deliveredCount
        sumPoints += d.deliveredPoints
    }
    if devCount > 0 {
        totals.AvgDeliveredPerDev = float64(sumDelivered) / float64(devCount)
        totals.AvgPointsPerDev = float64(sumPoints) / float64(devCount)
    }

    return &Report{
        Sprints:     sprints,
        Developers:  devs,
        Categories:  cats,
        Totals:      totals,
        Diagnostics: diag,
    }
}
