package filler

// Field names a user-supplied value the layout knows how to place.
type Field string

const (
	FieldFullName Field = "fullName"
	FieldAddress  Field = "address"
	FieldDate     Field = "date"
	FieldPrice    Field = "price"
)

// FieldValues holds the values submitted for a single fill. An empty string
// is treated exactly like an absent value.
type FieldValues struct {
	FullName string
	Address  string
	Date     string
	Price    string
}

// Value returns the raw value submitted for f.
func (v FieldValues) Value(f Field) string {
	switch f {
	case FieldFullName:
		return v.FullName
	case FieldAddress:
		return v.Address
	case FieldDate:
		return v.Date
	case FieldPrice:
		return v.Price
	}
	return ""
}
