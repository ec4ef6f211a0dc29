package s2_export

import (
	"bytes"
	"encoding/csv"

	"github.com/wonny/storagelimits/internal/contracts"
)

// RenderCSV writes the header block then six rows per limit
func RenderCSV(doc Document, limits []contracts.Limit) ([]byte, error) {
	if len(limits) == 0 {
		return nil, ErrEmptyBatch
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range table(doc, limits) {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
