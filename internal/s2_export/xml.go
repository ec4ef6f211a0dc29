package s2_export

import (
	"encoding/xml"

	"github.com/wonny/storagelimits/internal/contracts"
)

type xmlData struct {
	XMLName xml.Name  `xml:"Data"`
	Header  xmlHeader `xml:"Header"`
	Body    xmlBody   `xml:"Body"`
}

type xmlHeader struct {
	Item xmlHeaderItem `xml:"HeaderItem"`
}

type xmlHeaderItem struct {
	Limit     string `xml:"Limit,attr"`
	Sender    string `xml:"Sender,attr"`
	Receiver  string `xml:"Receiver,attr"`
	DocDate   string `xml:"DocDate,attr"`
	DocNumber string `xml:"DocNumber,attr"`
}

type xmlBody struct {
	Header xmlBodyHeader `xml:"BodyHeader"`
	Lines  []xmlLine
}

type xmlBodyHeader struct {
	GasDay string `xml:"GasDay,attr"`
	Limit  string `xml:"Limit,attr"`
	Min    string `xml:"Min,attr"`
	Max    string `xml:"Max,attr"`
}

// xmlLine takes its element name (Stock, CLTW, ...) from XMLName
type xmlLine struct {
	XMLName xml.Name
	GasDay  string `xml:"GasDay,attr"`
	Stock   string `xml:"Stock,attr"`
	Min     string `xml:"Min,attr"`
	Max     string `xml:"Max,attr"`
}

// RenderXML renders the Data/Header/Body document, without XML declaration
func RenderXML(doc Document, limits []contracts.Limit) ([]byte, error) {
	if len(limits) == 0 {
		return nil, ErrEmptyBatch
	}

	data := xmlData{
		Header: xmlHeader{Item: xmlHeaderItem{
			Sender:    doc.Sender,
			Receiver:  doc.Receiver,
			DocDate:   formatDate(doc.DocDate),
			DocNumber: doc.DocNumber,
		}},
		Body: xmlBody{Lines: make([]xmlLine, 0, len(limits)*6)},
	}

	for _, l := range limits {
		for _, ln := range linesOf(l) {
			data.Body.Lines = append(data.Body.Lines, xmlLine{
				XMLName: xml.Name{Local: ln.element},
				GasDay:  formatDate(ln.date),
				Stock:   ln.label,
				Min:     ln.min,
				Max:     ln.max,
			})
		}
	}

	return xml.Marshal(data)
}
