package contracts

import (
	"strings"
)

// Format is an output document format
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatXML  Format = "XML"
	FormatXLSX Format = "XLSX"
)

// ParseFormat is case-insensitive; unknown names fall back to CSV
func ParseFormat(s string) Format {
	switch Format(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatXML:
		return FormatXML
	case FormatXLSX:
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// ParseFormats parses and de-duplicates a format list, keeping first occurrence order
func ParseFormats(names []string) []Format {
	seen := make(map[Format]bool, len(names))
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f := ParseFormat(n)
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// Extension is the file extension of the format, without dot.
// CSV documents keep the historical "xls" extension expected by receivers.
func (f Format) Extension() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatXLSX:
		return "xlsx"
	default:
		return "xls"
	}
}

// ContentType is the MIME type used on upload
func (f Format) ContentType() string {
	switch f {
	case FormatXML:
		return "application/xml"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Grouping decides how derived limits are batched into documents
type Grouping string

const (
	// GroupingDay publishes one document per shipper and gas day
	GroupingDay Grouping = "day"
	// GroupingPeriod publishes one document per shipper for the whole period
	GroupingPeriod Grouping = "period"
)

// ParseGrouping defaults to GroupingDay
func ParseGrouping(s string) Grouping {
	if Grouping(strings.ToLower(strings.TrimSpace(s))) == GroupingPeriod {
		return GroupingPeriod
	}
	return GroupingDay
}
