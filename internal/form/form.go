// Package form holds the in-memory shortage form model and its pure
// mutation operations. Nothing in this package performs I/O.
package form

// Packing describes how a missing item is counted.
type Packing string

const (
	PackingUnset  Packing = ""
	PackingUnit   Packing = "unit"
	PackingCarton Packing = "carton"
	PackingPack   Packing = "pack"
)

// Row is one line item on the shortage form. Sequence is a 1-based dense
// ordinal equal to the row's position in Document.Rows after every mutation.
type Row struct {
	Sequence   int     `json:"sequence"`
	Item       string  `json:"item"`
	Barcode    string  `json:"barcode"`
	Quantity   string  `json:"quantity"`
	Size       string  `json:"size"`
	Packing    Packing `json:"packing"`
	Company    string  `json:"company"`
	AltCompany string  `json:"altCompany"`
	Notes      string  `json:"notes"`
}

// Document is the full shortage form: four header fields plus an ordered
// row list. Rows never drops below length 1 while visible to the editor.
type Document struct {
	BranchName string `json:"branchName"`
	Department string `json:"department"`
	EnteredBy  string `json:"enteredBy"`
	Date       string `json:"date"`
	Rows       []Row  `json:"rows"`
}

// DefaultRowCount is the number of blank rows on a fresh form.
const DefaultRowCount = 30

// New returns a blank document with n rows sequenced 1..n. n values below 1
// are clamped to 1 so the row floor invariant holds from the start.
func New(n int) Document {
	if n < 1 {
		n = 1
	}
	rows := make([]Row, n)
	for i := range rows {
		rows[i].Sequence = i + 1
	}
	return Document{Rows: rows}
}

// Clone returns a deep copy; the row slice is not shared.
func (d Document) Clone() Document {
	out := d
	out.Rows = make([]Row, len(d.Rows))
	copy(out.Rows, d.Rows)
	return out
}

// Filled reports whether the row carries data worth exporting: at least one
// of item, barcode or quantity is non-empty.
func (r Row) Filled() bool {
	return r.Item != "" || r.Barcode != "" || r.Quantity != ""
}
