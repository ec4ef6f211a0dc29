package commands

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════"
	ruleLight = "───────────────────────────────────────────────────────────"
)

// PrintReport prints a run report for humans
func PrintReport(r *pipeline.RunReport) {
	if r == nil {
		return
	}

	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  Limits export (%s)\n", r.Trigger)
	fmt.Println(ruleLight)
	fmt.Printf("  Run ID    : %s\n", r.RunID)
	fmt.Printf("  Period    : %s ~ %s\n", r.Period.From.Format(calendar.DateLayout), r.Period.To.Format(calendar.DateLayout))
	fmt.Printf("  Grouping  : %s\n", r.Grouping)
	fmt.Printf("  Formats   : %v\n", r.Formats)
	if r.DryRun {
		fmt.Println("  Mode      : dry-run (nothing uploaded)")
	}
	fmt.Println(ruleLight)

	if r.Empty {
		fmt.Println("  Nothing to export for the period")
	}

	fmt.Printf("  Shippers  : %d   Days: %d\n", r.Shippers, r.Days)
	fmt.Printf("  Derived   : %d   Skipped: %d\n", r.Derived, r.SkippedTotal())
	for _, reason := range sortedKeys(r.Skipped) {
		fmt.Printf("              - %-22s %d\n", reason, r.Skipped[reason])
	}
	fmt.Printf("  Documents : %d in %d batch(es)\n", len(r.Publications), r.Batches)

	for _, p := range r.Publications {
		fmt.Printf("    📄 %-4s %s (%d bytes, %s)\n", p.Format, p.Location, p.Bytes, p.DocNumber)
	}
	if r.Collisions > 0 {
		fmt.Printf("  ⚠️  %d object key(s) written twice, earlier uploads were replaced\n", r.Collisions)
	}

	if len(r.Failures) > 0 {
		fmt.Println(ruleLight)
		fmt.Printf("  ❌ %d failure(s)\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Printf("    [%s] shipper=%d day=%s: %s\n", f.Stage, f.Shipper, f.GasDay, f.Error)
		}
	}

	fmt.Println(ruleHeavy)
	if r.Success() {
		fmt.Printf("✅ Completed in %.2fs\n", r.Duration.Seconds())
	} else {
		fmt.Printf("⚠️  Completed with failures in %.2fs\n", r.Duration.Seconds())
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// maskPassword hides the password of a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
