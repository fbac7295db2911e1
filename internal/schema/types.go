// Package schema describes the collections an RQL query can address.
//
// A Catalog is built once at startup, either in Go or from CUE files
// (see LoadDir), and is read-only afterwards. All values are plain
// structs: collections refer to one another by name, never by pointer,
// so a Catalog can be shared freely across goroutines.
package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Type is the logical type of a Property. It drives value casting.
type Type string

const (
	TypeString    Type = "string"
	TypeInt       Type = "int"
	TypeLong      Type = "long"
	TypeFloat     Type = "float"
	TypeDouble    Type = "double"
	TypeDecimal   Type = "decimal"
	TypeBoolean   Type = "boolean"
	TypeDate      Type = "date"
	TypeDateTime  Type = "datetime"
	TypeTimestamp Type = "timestamp"
	TypeUUID      Type = "uuid"
	TypeJSON      Type = "json"
)

// ValidTypes lists every supported Type.
var ValidTypes = map[Type]bool{
	TypeString:    true,
	TypeInt:       true,
	TypeLong:      true,
	TypeFloat:     true,
	TypeDouble:    true,
	TypeDecimal:   true,
	TypeBoolean:   true,
	TypeDate:      true,
	TypeDateTime:  true,
	TypeTimestamp: true,
	TypeUUID:      true,
	TypeJSON:      true,
}

// IsNumeric reports whether values of t are numbers.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeInt, TypeLong, TypeFloat, TypeDouble, TypeDecimal:
		return true
	}
	return false
}

// Property maps a logical field name to a physical column.
type Property struct {
	Name     string `json:"name"`
	Column   string `json:"column"`
	Type     Type   `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`
}

// IndexKind classifies an Index.
type IndexKind string

const (
	IndexPrimary     IndexKind = "primary"
	IndexUnique      IndexKind = "unique"
	IndexForeignKey  IndexKind = "foreign"
	IndexResourceKey IndexKind = "resource"
)

// ValidIndexKinds lists every supported IndexKind.
var ValidIndexKinds = map[IndexKind]bool{
	IndexPrimary:     true,
	IndexUnique:      true,
	IndexForeignKey:  true,
	IndexResourceKey: true,
}

// Index groups Properties, referenced by logical name, in order.
type Index struct {
	Name       string    `json:"name"`
	Kind       IndexKind `json:"kind"`
	Properties []string  `json:"properties"`
}

// Cardinality is the shape of a Relationship as seen from its owner.
type Cardinality string

const (
	ManyToOne  Cardinality = "many-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToMany Cardinality = "many-to-many"
)

// ValidCardinalities lists every supported Cardinality.
var ValidCardinalities = map[Cardinality]bool{
	ManyToOne:  true,
	OneToMany:  true,
	ManyToMany: true,
}

// Relationship links a collection to a Related collection.
//
// Index names the foreign-key index that implements the link:
//   - ManyToOne:  an index on the owning collection referencing Related's primary key
//   - OneToMany:  an index on Related referencing the owner's primary key
//   - ManyToMany: an index on Linker referencing the owner's primary key;
//     RelatedIndex is the index on Linker referencing Related's primary key
type Relationship struct {
	Name         string      `json:"name"`
	Kind         Cardinality `json:"kind"`
	Related      string      `json:"related"`
	Index        string      `json:"index"`
	Linker       string      `json:"linker,omitempty"`
	RelatedIndex string      `json:"related_index,omitempty"`
}

// Collection is a queryable set of records backed by one table.
type Collection struct {
	Name          string         `json:"name"`
	Table         string         `json:"table"`
	Properties    []Property     `json:"properties"`
	Indexes       []Index        `json:"indexes,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// Property finds a property by logical name, then by physical column,
// then by either ignoring case.
func (c Collection) Property(name string) (Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range c.Properties {
		if p.Column == name {
			return p, true
		}
	}
	for _, p := range c.Properties {
		if sameName(p.Name, name) || sameName(p.Column, name) {
			return p, true
		}
	}
	return Property{}, false
}

// Index finds an index by name.
func (c Collection) Index(name string) (Index, bool) {
	for _, ix := range c.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return Index{}, false
}

// PrimaryIndex returns the primary index, if one is declared.
func (c Collection) PrimaryIndex() (Index, bool) {
	for _, ix := range c.Indexes {
		if ix.Kind == IndexPrimary {
			return ix, true
		}
	}
	return Index{}, false
}

// Relationship finds a relationship by name, ignoring case as a fallback.
func (c Collection) Relationship(name string) (Relationship, bool) {
	for _, r := range c.Relationships {
		if r.Name == name {
			return r, true
		}
	}
	for _, r := range c.Relationships {
		if sameName(r.Name, name) {
			return r, true
		}
	}
	return Relationship{}, false
}

// IndexProperties resolves the properties of ix in order.
// Unknown names are skipped; NewCatalog rejects them up front.
func (c Collection) IndexProperties(ix Index) []Property {
	props := make([]Property, 0, len(ix.Properties))
	for _, name := range ix.Properties {
		if p, ok := c.Property(name); ok {
			props = append(props, p)
		}
	}
	return props
}

// sameName compares identifiers case-insensitively after NFC normalisation,
// so composed and decomposed spellings of the same name match.
func sameName(a, b string) bool {
	return strings.EqualFold(norm.NFC.String(a), norm.NFC.String(b))
}
