/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package metrics turns a tracker snapshot into the aggregated delivery
// report the dashboard serves: planned vs delivered totals per sprint,
// developer and category, plus lead/cycle time summaries. The whole package
// is a pure transformation: no I/O, no shared state, identical input yields
// an identical report.
package metrics

import (
    "time"

    "github.com/google/uuid"
)

// DurationSummary reduces a set of per-issue durations (whole days) to its
// distributional summary. A grouping with no eligible samples carries a nil
// *DurationSummary — never a zeroed one, which would misreport a genuine
// same-day delivery.
type DurationSummary struct {
    Count      int     `json:"count"`
    MeanDays   float64 `json:"mean_days"`
    MedianDays float64 `json:"median_days"`
}

// CategorySlice is the per-sprint category breakdown row. Summing planned
// points across a sprint's slices reproduces the sprint's planned total.
type CategorySlice struct {
    Category        string `json:"category"`
    PlannedCount    int    `json:"planned_count"`
    PlannedPoints   int    `json:"planned_points"`
    DeliveredCount  int    `json:"delivered_count"`
    DeliveredPoints int    `json:"delivered_points"`
}

// SprintRow aggregates one cycle. Planned means the issue was a member of the
// cycle; delivered means its completion fell inside the cycle window,
// inclusive of both bounds. Issues outside every cycle never appear here.
type SprintRow struct {
    CycleID         uuid.UUID        `json:"cycle_id"`
    Name            string           `json:"name"`
    StartDate       *time.Time       `json:"start_date,omitempty"`
    EndDate         *time.Time       `json:"end_date,omitempty"`
    PlannedCount    int              `json:"planned_count"`
    PlannedPoints   int              `json:"planned_points"`
    DeliveredCount  int              `json:"delivered_count"`
    DeliveredPoints int              `json:"delivered_points"`
    Unestimated     int              `json:"unestimated"`
    Categories      []CategorySlice  `json:"categories,omitempty"`
    LeadTime        *DurationSummary `json:"lead_time,omitempty"`
    CycleTime       *DurationSummary `json:"cycle_time,omitempty"`
}

// DeveloperRow aggregates one assignee. Shared issues count their full point
// value for every assignee, so developer totals deliberately exceed sprint
// totals when work is shared. Duration samples stay one-per-issue.
type DeveloperRow struct {
    UserID            uuid.UUID        `json:"user_id"`
    Name              string           `json:"name"`
    PlannedCount      int              `json:"planned_count"`
    PlannedPoints     int              `json:"planned_points"`
    DeliveredCount    int              `json:"delivered_count"`
    DeliveredPoints   int              `json:"delivered_points"`
    Unestimated       int              `json:"unestimated"`
    AvgPointsPerIssue float64          `json:"avg_points_per_issue"`
    LeadTime          *DurationSummary `json:"lead_time,omitempty"`
    CycleTime         *DurationSummary `json:"cycle_time,omitempty"`
}

// CategoryRow aggregates one category label across the whole snapshot,
// including issues that belong to no cycle.
type CategoryRow struct {
    Category        string           `json:"category"`
    PlannedCount    int              `json:"planned_count"`
    PlannedPoints   int              `json:"planned_points"`
    DeliveredCount  int              `json:"delivered_count"`
    DeliveredPoints int              `json:"delivered_points"`
    Unestimated     int              `json:"unestimated"`
    LeadTime        *DurationSummary `json:"lead_time,omitempty"`
    CycleTime       *DurationSummary `json:"cycle_time,omitempty"`
}

// Totals is the KPI block: global counts plus per-developer averages over
// developers with at least one delivered issue.
type Totals struct {
    PlannedCount       int              `json:"planned_count"`
    PlannedPoints      int              `json:"planned_points"`
    DeliveredCount     int              `json:"delivered_count"`
    DeliveredPoints    int              `json:"delivered_points"`
    Unestimated        int              `json:"unestimated"`
    AvgDeliveredPerDev float64          `json:"avg_delivered_per_dev"`
    AvgPointsPerDev    float64          `json:"avg_points_per_dev"`
    LeadTime           *DurationSummary `json:"lead_time,omitempty"`
    CycleTime          *DurationSummary `json:"cycle_time,omitempty"`
}

// Diagnostics counts every record the engine excluded instead of failing on.
// OverflowDelivered covers completed issues whose completion date falls
// inside none of their cycle windows (or that have no cycle at all); their
// points are reported here so sprint totals remain reconcilable.
type Diagnostics struct {
    DanglingCycleRefs       int `json:"dangling_cycle_refs"`
    DanglingIssueRefs       int `json:"dangling_issue_refs"`
    DanglingUserRefs        int `json:"dangling_user_refs"`
    InvalidDurations        int `json:"invalid_durations"`
    OverflowDelivered       int `json:"overflow_delivered"`
    OverflowDeliveredPoints int `json:"overflow_delivered_points"`
}

// Report is the read-only output snapshot. Sprints are ordered by start date
// ascending (missing dates first) with ties broken by cycle id, which is also
// the contract for time-series rendering.
type Report struct {
    Sprints     []SprintRow    `json:"sprints"`
    Developers  []DeveloperRow `json:"developers"`
    Categories  []CategoryRow  `json:"categories"`
    Totals      Totals         `json:"totals"`
    Diagnostics Diagnostics    `json:"diagnostics"`
}

// UnassignedLabel buckets issues with no assignee in the developer table.
const UnassignedLabel = "Unassigned"
