package enums

// ProductStatus mirrors the catalog's publication state.
type ProductStatus string

const (
	ProductStatusPublish ProductStatus = "publish"
	ProductStatusDraft   ProductStatus = "draft"
	ProductStatusPrivate ProductStatus = "private"
)

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusPublish, ProductStatusDraft, ProductStatusPrivate:
		return true
	}
	return false
}
