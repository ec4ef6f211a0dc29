package s2_export

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/storagelimits/internal/contracts"
)

// DateLayout is dd/MM/yyyy, the only date format of the documents
const DateLayout = "02/01/2006"

// ErrEmptyBatch is returned when there is no limit to render
var ErrEmptyBatch = errors.New("no limit to export")

// Document is the header of a limits document
type Document struct {
	Sender    string
	Receiver  string
	Contract  string
	DocDate   time.Time
	DocNumber string
}

// line is one (category, limit) entry of the body
type line struct {
	element string // XML element name
	label   string
	date    time.Time
	min     string
	max     string
}

// linesOf expands a limit into its six body lines, in document order
func linesOf(l contracts.Limit) []line {
	return []line{
		{"Stock", "Stock", l.GasDay, l.StockMin.String(), l.StockMax.String()},
		{"CLTW", "CLT Withdrawal", l.GasDay, l.WithdrawalMin.String(), l.WithdrawalMax.String()},
		{"CLTI", "CLT Injection", l.GasDay, l.InjectionMin.String(), l.InjectionMax.String()},
		{"CLTRW", "CLT Reduced Withdrawal", l.GasDay, l.ReducedWithdrawalMin.String(), l.ReducedWithdrawalMax.String()},
		{"CLTRI", "CLT Reduced Injection", l.GasDay, l.ReducedInjectionMin.String(), l.ReducedInjectionMax.String()},
		{"SR", "SR", l.StockRefDate, "", l.StockRefUsed.String()},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// table is the row layout shared by the CSV and XLSX renderers; nil rows are blank separators
func table(doc Document, limits []contracts.Limit) [][]string {
	rows := [][]string{
		{"Limit", "Sender", "Receiver", "Doc Date", "Doc Number"},
		{"", doc.Sender, doc.Receiver, formatDate(doc.DocDate), doc.DocNumber},
		nil,
		{"Gas day", "Limit", "Min", "Max"},
		nil,
	}
	for _, l := range limits {
		for _, ln := range linesOf(l) {
			rows = append(rows, []string{formatDate(ln.date), ln.label, ln.min, ln.max})
		}
	}
	return rows
}

// Render renders limits in the requested format
func Render(format contracts.Format, doc Document, limits []contracts.Limit) ([]byte, error) {
	if len(limits) == 0 {
		return nil, ErrEmptyBatch
	}

	switch format {
	case contracts.FormatXML:
		return RenderXML(doc, limits)
	case contracts.FormatXLSX:
		return RenderXLSX(doc, limits)
	case contracts.FormatCSV:
		return RenderCSV(doc, limits)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
