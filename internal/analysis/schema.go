package analysis

// Column labels matched verbatim against upload headers.
const (
	ColProductName = "商品名"
	ColQuantity    = "数量"
	ColAmount      = "分量"
)

// SchemaKind identifies which column layout an upload follows.
type SchemaKind int

const (
	SchemaUnusable SchemaKind = iota
	SchemaNameOnly
	SchemaNameQuantity
	SchemaNameAmount
)

func (k SchemaKind) String() string {
	switch k {
	case SchemaNameOnly:
		return "name-only"
	case SchemaNameQuantity:
		return "name+quantity"
	case SchemaNameAmount:
		return "name+amount"
	default:
		return "unusable"
	}
}

// Schema is the resolved layout of one upload. HasQuantity only matters for
// SchemaNameAmount, where it changes the quantity default.
type Schema struct {
	Kind        SchemaKind
	HasQuantity bool
}

// Resolve picks the schema for a header. Precedence is amount, then
// quantity, then name only; without a product name column nothing is usable.
func Resolve(header []string) Schema {
	has := make(map[string]bool, len(header))
	for _, h := range header {
		has[h] = true
	}
	switch {
	case !has[ColProductName]:
		return Schema{Kind: SchemaUnusable}
	case has[ColAmount]:
		return Schema{Kind: SchemaNameAmount, HasQuantity: has[ColQuantity]}
	case has[ColQuantity]:
		return Schema{Kind: SchemaNameQuantity, HasQuantity: true}
	default:
		return Schema{Kind: SchemaNameOnly}
	}
}

// KeyKind returns which key the schema aggregates by.
func (s Schema) KeyKind() KeyKind {
	if s.Kind == SchemaNameAmount {
		return KeyVariety
	}
	return KeyProduct
}
