/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
    "sort"
    "time"
)

// durationSample is the per-issue duration measurement. Lead and cycle time
// have independent eligibility: an issue without a start-of-work timestamp
// still contributes to lead-time statistics.
type durationSample struct {
    leadDays  int
    hasLead   bool
    cycleDays int
    hasCycle  bool
}

// daysBetween measures at day granularity: both timestamps are truncated to
// their UTC calendar date before differencing, so a 23:50 to 00:10 handover
// still counts as one day, matching the source tool's date arithmetic.
func daysBetween(from, to time.Time) int {
    f, t := from.UTC(), to.UTC()
    fd := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
    td := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
    return int(td.Sub(fd).Hours() / 24)
}

// computeDuration derives the sample for one issue. Returns false when the
// issue is not completed. Negative or non-computable lead times are excluded
// and counted — never clamped to zero, which would corrupt the mean.
func computeDuration(ji *joinedIssue, diag *Diagnostics) (durationSample, bool) {
    done := ji.issue.CompletedAt
    if done == nil {
        return durationSample{}, false
    }
    var s durationSample
    if ji.issue.CreatedAt == nil {
        diag.InvalidDurations++
    } else if d := daysBetween(*ji.issue.CreatedAt, *done); d < 0 {
        diag.InvalidDurations++
    } else {
        s.leadDays, s.hasLead = d, true
    }
    if ji.issue.StartedAt != nil {
        if d := daysBetween(*ji.issue.StartedAt, *done); d < 0 {
            diag.InvalidDurations++
        } else {
            s.cycleDays, s.hasCycle = d, true
        }
    }
    return s, true
}

// durationAgg accumulates eligible samples for one grouping.
type durationAgg struct {
    lead  []int
    cycle []int
}

func (a *durationAgg) add(s durationSample) {
    if s.hasLead {
        a.lead = append(a.lead, s.leadDays)
    }
    if s.hasCycle {
        a.cycle = append(a.cycle, s.cycleDays)
    }
}

// summarize reduces day values to count/mean/median. Nil means no eligible
// samples — the caller must keep that distinct from a zero-day summary.
func summarize(days []int) *DurationSummary {
    if len(days) == 0 {
        return nil
    }
    sorted := append([]int(nil), days...)
    sort.Ints(sorted)
    sum := 0
    for _, d := range sorted {
        sum += d
    }
    n := len(sorted)
    median := float64(sorted[n/2])
    if n%2 == 0 {
        median = float64(sorted[n/2-1]+sorted[n/2]) / 2
    }
    return &DurationSummary{
        Count:      n,
        MeanDays:   float64(sum) / float64(n),
        MedianDays: median,
    }
}
