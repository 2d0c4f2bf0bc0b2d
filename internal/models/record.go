package models

// ProductRecord holds the page-level product fields, keyed by output column
// name. Built fresh per page visit.
type ProductRecord map[string]string

// FitmentRecord is one vehicle compatibility entry from the fitment table.
// Trim and Engine may be empty; Year, Make and Model never are.
type FitmentRecord struct {
	Year   string `json:"year"`
	Make   string `json:"make"`
	Model  string `json:"model"`
	Trim   string `json:"trim"`
	Engine string `json:"engine"`
}

// OutputRow is one flattened result row: product fields plus fitment fields
// plus any passthrough columns from the input table.
type OutputRow map[string]string

// Table is an ordered set of named columns with one record per row. Rows may
// omit columns; readers treat missing cells as empty strings.
type Table struct {
	Columns []string
	Rows    []OutputRow
}

// Output column names for fitment fields.
const (
	ColumnYear   = "Year"
	ColumnMake   = "Make"
	ColumnModel  = "Model"
	ColumnTrim   = "Body & Trim"
	ColumnEngine = "Engine & Transmission"
)

// Frequently referenced product columns.
const (
	ColumnProductTitle    = "Product Title"
	ColumnProductSubtitle = "Product Subtitle"
	ColumnManufacturer    = "Manufacturer Info"
	ColumnDescription     = "Description"
	ColumnNotes           = "Notes"
	ColumnMSRP            = "MSRP"
	ColumnSalePrice       = "Sale Price"
)

// AllowedFields is the closed set of product fields that may appear in
// output rows, in output column order. Anything the label loop produces
// under another name is dropped.
var AllowedFields = []string{
	ColumnProductTitle,
	ColumnProductSubtitle,
	ColumnManufacturer,
	"SKU",
	"Other Names",
	ColumnDescription,
	ColumnNotes,
	"Replaces",
	"Description 2",
	ColumnMSRP,
	"Discount",
	ColumnSalePrice,
	"Condition",
	"Install Time",
	"Applications",
}

// FitmentColumns lists the fitment output columns in order.
var FitmentColumns = []string{
	ColumnYear,
	ColumnMake,
	ColumnModel,
	ColumnTrim,
	ColumnEngine,
}

var allowedSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(AllowedFields))
	for _, f := range AllowedFields {
		s[f] = struct{}{}
	}
	return s
}()

// IsAllowedField reports whether name is in the output allow-list.
func IsAllowedField(name string) bool {
	_, ok := allowedSet[name]
	return ok
}

// Filter returns a copy of the record restricted to allow-listed fields.
func (p ProductRecord) Filter() ProductRecord {
	filtered := make(ProductRecord, len(p))
	for k, v := range p {
		if IsAllowedField(k) {
			filtered[k] = v
		}
	}
	return filtered
}

// Fields returns the fitment as output columns.
func (f FitmentRecord) Fields() map[string]string {
	return map[string]string{
		ColumnYear:   f.Year,
		ColumnMake:   f.Make,
		ColumnModel:  f.Model,
		ColumnTrim:   f.Trim,
		ColumnEngine: f.Engine,
	}
}

// Clone returns an independent copy of the row.
func (r OutputRow) Clone() OutputRow {
	out := make(OutputRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
