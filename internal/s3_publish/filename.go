package s3_publish

import (
	"fmt"
	"time"

	"github.com/wonny/storagelimits/internal/contracts"
)

const (
	fileDateLayout  = "20060102"
	timestampLayout = "02012006150405" // ddMMyyyyHHmmss, 24h
)

// FileName builds Limits-{receiver}-{J-yyyyMMdd(from)|M-yyyyMMdd(to)}-{ddMMyyyyHHmmss}.{ext}.
// A single-day period is tagged J (journalier) with its day, a longer one M with its last day.
func FileName(receiver string, period contracts.Period, now time.Time, format contracts.Format) string {
	tag := "J-" + period.From.Format(fileDateLayout)
	if !period.SingleDay() {
		tag = "M-" + period.To.Format(fileDateLayout)
	}

	return fmt.Sprintf("Limits-%s-%s-%s.%s",
		receiver,
		tag,
		now.UTC().Format(timestampLayout),
		format.Extension(),
	)
}
