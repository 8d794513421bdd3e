/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
    "github.com/HamedShams/plane-pulse/internal/domain"
)

// Compute runs the whole pipeline over one snapshot: join, the two reduction
// passes, assembly. It is safe to call concurrently over different snapshots
// and returns byte-identical reports for identical inputs. An empty snapshot
// yields empty tables with all diagnostics at zero.
func Compute(snap domain.Snapshot) *Report {
    var diag Diagnostics
    issues := join(snap, &diag)
    rows := fanOut(issues)

    acc := newAccumulators(snap)
    acc.pointPass(rows, issues, &diag)
    acc.durationPass(issues, &diag)

    return assemble(acc, diag)
}
