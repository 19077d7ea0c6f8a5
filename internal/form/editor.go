package form

import (
	"errors"
	"fmt"
)

// HeaderField names a document-level attribute.
type HeaderField string

const (
	HeaderBranchName HeaderField = "branchName"
	HeaderDepartment HeaderField = "department"
	HeaderEnteredBy  HeaderField = "enteredBy"
	HeaderDate       HeaderField = "date"
)

// RowField names a row-level attribute. Sequence is deliberately absent:
// it is owned by the editor, never set directly.
type RowField string

const (
	RowItem       RowField = "item"
	RowBarcode    RowField = "barcode"
	RowQuantity   RowField = "quantity"
	RowSize       RowField = "size"
	RowPacking    RowField = "packing"
	RowCompany    RowField = "company"
	RowAltCompany RowField = "altCompany"
	RowNotes      RowField = "notes"
)

var (
	ErrIndexOutOfRange = errors.New("row index out of range")
	ErrUnknownField    = errors.New("unknown field")
)

// SetHeaderField returns a copy of doc with one header attribute replaced.
// Values are accepted verbatim; validation is a boundary concern.
func SetHeaderField(doc Document, field HeaderField, value string) (Document, error) {
	out := doc.Clone()
	switch field {
	case HeaderBranchName:
		out.BranchName = value
	case HeaderDepartment:
		out.Department = value
	case HeaderEnteredBy:
		out.EnteredBy = value
	case HeaderDate:
		out.Date = value
	default:
		return doc, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return out, nil
}

// SetRowField returns a copy of doc with one attribute of the row at index
// replaced. Sequence is never touched. Malformed text (empty strings,
// non-numeric quantities) is stored verbatim.
func SetRowField(doc Document, index int, field RowField, value string) (Document, error) {
	if index < 0 || index >= len(doc.Rows) {
		return doc, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(doc.Rows))
	}
	out := doc.Clone()
	row := &out.Rows[index]
	switch field {
	case RowItem:
		row.Item = value
	case RowBarcode:
		row.Barcode = value
	case RowQuantity:
		row.Quantity = value
	case RowSize:
		row.Size = value
	case RowPacking:
		row.Packing = Packing(value)
	case RowCompany:
		row.Company = value
	case RowAltCompany:
		row.AltCompany = value
	case RowNotes:
		row.Notes = value
	default:
		return doc, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return out, nil
}

// AddRow returns a copy of doc with a blank row appended. The new row's
// sequence is the pre-append length plus one.
func AddRow(doc Document) Document {
	out := doc.Clone()
	out.Rows = append(out.Rows, Row{Sequence: len(doc.Rows) + 1})
	return out
}

// RemoveRow returns a copy of doc without the row at index, renumbering the
// remaining rows to dense 1-based sequence values. Removing the last
// remaining row is a no-op, not an error.
func RemoveRow(doc Document, index int) Document {
	if len(doc.Rows) <= 1 || index < 0 || index >= len(doc.Rows) {
		return doc
	}
	out := doc
	out.Rows = make([]Row, 0, len(doc.Rows)-1)
	for i, row := range doc.Rows {
		if i == index {
			continue
		}
		row.Sequence = len(out.Rows) + 1
		out.Rows = append(out.Rows, row)
	}
	return out
}
