package metrics

import (
    "testing"

    "github.com/HamedShams/plane-pulse/internal/domain"
    "github.com/google/uuid"
)

// fixture covers the interesting shapes at once: a delivered issue, an open
// one, a shared one, a late completion, an unscheduled unestimated one, an
// empty sprint and a sprint with no dates.
func fixture() domain.Snapshot {
    return domain.Snapshot{
        Cycles: []domain.Cycle{
            {ID: uid(1), Name: "Sprint 1", StartDate: ts("2025-01-01"), EndDate: ts("2025-01-14")},
            {ID: uid(2), Name: "Sprint 2", StartDate: ts("2025-02-01"), EndDate: ts("2025-02-14")},
            {ID: uid(3), Name: "Backlog"},
        },
        Issues: []domain.Issue{
            {ID: uid(10), Title: "login form", Points: pts(5), Category: domain.CategoryFeature,
                CreatedAt: ts("2025-01-01"), StartedAt: ts("2025-01-02"), CompletedAt: ts("2025-01-10")},
            {ID: uid(11), Title: "crash on save", Points: pts(3), Category: domain.CategoryBug,
                CreatedAt: ts("2025-01-03")},
            {ID: uid(12), Title: "export csv", Points: pts(2), Category: domain.CategoryFeature,
                CreatedAt: ts("2025-01-02"), StartedAt: ts("2025-01-04"), CompletedAt: ts("2025-01-12")},
            {ID: uid(13), Title: "glpi ticket", Points: pts(1), Category: domain.CategoryBugGLPI,
                CreatedAt: ts("2025-01-05"), CompletedAt: ts("2025-02-01")},
            {ID: uid(14), Title: "hotfix", Category: "",
                CreatedAt: ts("2025-01-04"), CompletedAt: ts("2025-01-05")},
        },
        Memberships: []domain.CycleMembership{
            {CycleID: uid(1), IssueID: uid(10)},
            {CycleID: uid(1), IssueID: uid(11)},
            {CycleID: uid(1), IssueID: uid(12)},
            {CycleID: uid(1), IssueID: uid(13)},
        },
        Assignments: []domain.Assignment{
            {IssueID: uid(10), AssigneeID: uid(20)},
            {IssueID: uid(11), AssigneeID: uid(20)},
            {IssueID: uid(12), AssigneeID: uid(20)},
            {IssueID: uid(12), AssigneeID: uid(21)},
            {IssueID: uid(13), AssigneeID: uid(21)},
        },
        Users: []domain.User{
            {ID: uid(20), DisplayName: "Alice"},
            {ID: uid(21), DisplayName: "Bruno"},
        },
    }
}

func TestCompute_SprintTable(t *testing.T) {
    r := Compute(fixture())

    if len(r.Sprints) != 3 { t.Fatalf("expected 3 sprint rows, got %d", len(r.Sprints)) }
    // Missing start date sorts first, then start ascending.
    if r.Sprints[0].Name != "Backlog" || r.Sprints[1].Name != "Sprint 1" || r.Sprints[2].Name != "Sprint 2" {
        t.Fatalf("sprint order wrong: %q %q %q", r.Sprints[0].Name, r.Sprints[1].Name, r.Sprints[2].Name)
    }

    s1 := r.Sprints[1]
    if s1.PlannedCount != 4 || s1.PlannedPoints != 11 {
        t.Fatalf("sprint 1 planned: got %d issues %d points", s1.PlannedCount, s1.PlannedPoints)
    }
    // The shared issue counts once here even with two assignees; the late
    // completion is planned but not delivered.
    if s1.DeliveredCount != 2 || s1.DeliveredPoints != 7 {
        t.Fatalf("sprint 1 delivered: got %d issues %d points", s1.DeliveredCount, s1.DeliveredPoints)
    }
    if s1.LeadTime == nil || s1.LeadTime.Count != 2 || s1.LeadTime.MeanDays != 9.5 {
        t.Fatalf("sprint 1 lead time: %+v", s1.LeadTime)
    }
    if s1.CycleTime == nil || s1.CycleTime.Count != 2 || s1.CycleTime.MeanDays != 8 {
        t.Fatalf("sprint 1 cycle time: %+v", s1.CycleTime)
    }

    // Empty sprints render as zeros with no duration summaries.
    s2 := r.Sprints[2]
    if s2.PlannedCount != 0 || s2.DeliveredPoints != 0 || s2.LeadTime != nil {
        t.Fatalf("empty sprint should be all zeros: %+v", s2)
    }
}

func TestCompute_SprintCategoryBreakdownConserves(t *testing.T) {
    r := Compute(fixture())
    s1 := r.Sprints[1]

    if len(s1.Categories) != 3 { t.Fatalf("expected 3 category slices, got %#v", s1.Categories) }
    if s1.Categories[0].Category != domain.CategoryFeature || s1.Categories[1].Category != domain.CategoryBug {
        t.Fatalf("category rank order wrong: %#v", s1.Categories)
    }

    var planned, delivered int
    for _, c := range s1.Categories {
        planned += c.PlannedPoints
        delivered += c.DeliveredPoints
    }
    if planned != s1.PlannedPoints || delivered != s1.DeliveredPoints {
        t.Fatalf("breakdown does not reconcile: %d/%d vs %d/%d",
            planned, delivered, s1.PlannedPoints, s1.DeliveredPoints)
    }
}

func TestCompute_DeveloperTable(t *testing.T) {
    r := Compute(fixture())

    if len(r.Developers) != 3 { t.Fatalf("expected Alice, Bruno and Unassigned, got %d rows", len(r.Developers)) }
    alice, bruno, unassigned := r.Developers[0], r.Developers[1], r.Developers[2]

    if alice.Name != "Alice" || alice.PlannedCount != 3 || alice.PlannedPoints != 10 {
        t.Fatalf("alice planned: %+v", alice)
    }
    if alice.DeliveredCount != 2 || alice.DeliveredPoints != 7 || alice.AvgPointsPerIssue != 3.5 {
        t.Fatalf("alice delivered: %+v", alice)
    }
    // The shared issue carries its full value for each assignee.
    if bruno.Name != "Bruno" || bruno.PlannedCount != 2 || bruno.PlannedPoints != 3 {
        t.Fatalf("bruno planned: %+v", bruno)
    }
    if bruno.DeliveredCount != 1 || bruno.DeliveredPoints != 2 {
        t.Fatalf("bruno delivered: %+v", bruno)
    }
    if bruno.LeadTime == nil || bruno.LeadTime.Count != 1 || bruno.LeadTime.MeanDays != 10 {
        t.Fatalf("bruno lead time should be the one shared issue: %+v", bruno.LeadTime)
    }
    if unassigned.Name != UnassignedLabel || unassigned.UserID != uuid.Nil {
        t.Fatalf("unassigned bucket missing: %+v", unassigned)
    }
    if unassigned.PlannedCount != 1 || unassigned.Unestimated != 1 {
        t.Fatalf("unassigned row: %+v", unassigned)
    }
}

func TestCompute_CategoryTableIncludesUnscheduled(t *testing.T) {
    r := Compute(fixture())

    if len(r.Categories) != 4 { t.Fatalf("expected 4 categories, got %#v", r.Categories) }
    want := []string{domain.CategoryFeature, domain.CategoryBug, domain.CategoryBugGLPI, domain.CategoryUnplanned}
    for i, w := range want {
        if r.Categories[i].Category != w {
            t.Fatalf("category %d: want %q got %q", i, w, r.Categories[i].Category)
        }
    }
    feat := r.Categories[0]
    if feat.PlannedCount != 2 || feat.PlannedPoints != 7 || feat.DeliveredPoints != 7 {
        t.Fatalf("feature row: %+v", feat)
    }
    // The unscheduled issue lands here under the unplanned label.
    unplanned := r.Categories[3]
    if unplanned.PlannedCount != 1 || unplanned.Unestimated != 1 || unplanned.DeliveredCount != 0 {
        t.Fatalf("unplanned row: %+v", unplanned)
    }
}

func TestCompute_TotalsAndOverflow(t *testing.T) {
    r := Compute(fixture())

    tot := r.Totals
    if tot.PlannedCount != 5 || tot.PlannedPoints != 11 {
        t.Fatalf("totals planned: %+v", tot)
    }
    if tot.DeliveredCount != 2 || tot.DeliveredPoints != 7 || tot.Unestimated != 1 {
        t.Fatalf("totals delivered: %+v", tot)
    }
    if tot.AvgDeliveredPerDev != 1.5 || tot.AvgPointsPerDev != 4.5 {
        t.Fatalf("per-dev averages: %+v", tot)
    }
    if tot.LeadTime == nil || tot.LeadTime.Count != 2 || tot.LeadTime.MedianDays != 9.5 {
        t.Fatalf("totals lead time: %+v", tot.LeadTime)
    }

    // The late completion and the unscheduled completion both overflow.
    d := r.Diagnostics
    if d.OverflowDelivered != 2 || d.OverflowDeliveredPoints != 1 {
        t.Fatalf("overflow: %+v", d)
    }
    if d.DanglingCycleRefs+d.DanglingIssueRefs+d.DanglingUserRefs+d.InvalidDurations != 0 {
        t.Fatalf("clean fixture should have no other diagnostics: %+v", d)
    }
}

func TestCompute_WindowBoundsInclusiveAndNilOpen(t *testing.T) {
    snap := domain.Snapshot{
        Cycles: []domain.Cycle{
            {ID: uid(1), Name: "S1", StartDate: ts("2025-01-01"), EndDate: ts("2025-01-14")},
            {ID: uid(2), Name: "Backlog"},
        },
        Issues: []domain.Issue{
            {ID: uid(10), Points: pts(1), Category: domain.CategoryFeature,
                CreatedAt: ts("2025-01-01"), CompletedAt: ts("2025-01-01")},
            {ID: uid(11), Points: pts(2), Category: domain.CategoryFeature,
                CreatedAt: ts("2025-01-01"), CompletedAt: ts("2025-01-14")},
            {ID: uid(12), Points: pts(4), Category: domain.CategoryFeature,
                CreatedAt: ts("2025-01-01"), CompletedAt: ts("2025-03-01")},
        },
        Memberships: []domain.CycleMembership{
            {CycleID: uid(1), IssueID: uid(10)},
            {CycleID: uid(1), IssueID: uid(11)},
            {CycleID: uid(2), IssueID: uid(12)},
        },
    }
    r := Compute(snap)

    // Completions exactly on the start and end dates both land inside the
    // window.
    s1 := r.Sprints[1]
    if s1.Name != "S1" || s1.DeliveredCount != 2 || s1.DeliveredPoints != 3 {
        t.Fatalf("boundary completions not delivered: %+v", s1)
    }
    // A cycle with no dates is an open window on both sides.
    backlog := r.Sprints[0]
    if backlog.Name != "Backlog" || backlog.DeliveredCount != 1 || backlog.DeliveredPoints != 4 {
        t.Fatalf("nil-dated cycle should accept any completion: %+v", backlog)
    }
    if r.Diagnostics.OverflowDelivered != 0 {
        t.Fatalf("everything delivered in-window, no overflow: %+v", r.Diagnostics)
    }
}

func TestCompute_DuplicateRelationRowsCountOnce(t *testing.T) {
    snap := domain.Snapshot{
        Cycles: []domain.Cycle{
            {ID: uid(1), Name: "S1", StartDate: ts("2025-01-01"), EndDate: ts("2025-01-14")},
        },
        Issues: []domain.Issue{
            {ID: uid(10), Points: pts(5), Category: domain.CategoryFeature,
                CreatedAt: ts("2025-01-01"), StartedAt: ts("2025-01-02"), CompletedAt: ts("2025-01-10")},
        },
        Memberships: []domain.CycleMembership{
            {CycleID: uid(1), IssueID: uid(10)},
            {CycleID: uid(1), IssueID: uid(10)},
        },
        Assignments: []domain.Assignment{
            {IssueID: uid(10), AssigneeID: uid(20)},
            {IssueID: uid(10), AssigneeID: uid(20)},
        },
        Users: []domain.User{{ID: uid(20), DisplayName: "Alice"}},
    }
    r := Compute(snap)

    s1 := r.Sprints[0]
    if s1.PlannedCount != 1 || s1.PlannedPoints != 5 || s1.DeliveredPoints != 5 {
        t.Fatalf("duplicated membership double-counted points: %+v", s1)
    }
    // One duration sample despite the repeated rows.
    if s1.LeadTime == nil || s1.LeadTime.Count != 1 || s1.CycleTime.Count != 1 {
        t.Fatalf("duplicated membership doubled the duration sample: %+v", s1.LeadTime)
    }
    alice := r.Developers[0]
    if alice.PlannedCount != 1 || alice.DeliveredPoints != 5 {
        t.Fatalf("duplicated assignment double-counted points: %+v", alice)
    }
    if alice.LeadTime == nil || alice.LeadTime.Count != 1 {
        t.Fatalf("duplicated assignment doubled the duration sample: %+v", alice.LeadTime)
    }
    if r.Diagnostics != (Diagnostics{}) {
        t.Fatalf("duplicates are not dangling: %+v", r.Diagnostics)
    }
}

func TestCompute_CarryOverCountsOncePerDeveloper(t *testing.T) {
    snap := domain.Snapshot{
        Cycles: []domain.Cycle{
            {ID: uid(1), Name: "S1", StartDate: ts("2025-01-01"), EndDate: ts("2025-01-14")},
            {ID: uid(2), Name: "S2", StartDate: ts("2025-01-15"), EndDate: ts("2025-01-28")},
        },
        Issues: []domain.Issue{
            {ID: uid(10), Points: pts(5), Category: domain.CategoryFeature,
                CreatedAt: ts("2025-01-01"), CompletedAt: ts("2025-01-20")},
        },
        Memberships: []domain.CycleMembership{
            {CycleID: uid(1), IssueID: uid(10)},
            {CycleID: uid(2), IssueID: uid(10)},
        },
        Assignments: []domain.Assignment{{IssueID: uid(10), AssigneeID: uid(20)}},
        Users:       []domain.User{{ID: uid(20), DisplayName: "Alice"}},
    }
    r := Compute(snap)

    // Planned in both sprints, delivered only where the completion falls.
    if r.Sprints[0].PlannedPoints != 5 || r.Sprints[0].DeliveredPoints != 0 {
        t.Fatalf("carry-over origin sprint: %+v", r.Sprints[0])
    }
    if r.Sprints[1].DeliveredPoints != 5 { t.Fatalf("carry-over landing sprint: %+v", r.Sprints[1]) }

    // One developer contribution despite the two cycle rows.
    if len(r.Developers) != 1 || r.Developers[0].PlannedCount != 1 || r.Developers[0].DeliveredCount != 1 {
        t.Fatalf("carry-over double-counted for developer: %+v", r.Developers)
    }
    if r.Totals.PlannedCount != 1 || r.Totals.DeliveredPoints != 5 {
        t.Fatalf("carry-over double-counted in totals: %+v", r.Totals)
    }
    if r.Diagnostics.OverflowDelivered != 0 { t.Fatalf("delivered in a window, no overflow: %+v", r.Diagnostics) }
}
