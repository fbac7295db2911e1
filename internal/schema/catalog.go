package schema

import (
	"fmt"
	"strings"
)

// Catalog validation error codes (E301-E399).
const (
	ErrDuplicateCollection = "E301" // two collections share a name
	ErrDuplicateProperty   = "E302" // two properties share a name
	ErrInvalidType         = "E303" // unknown property type
	ErrUnknownIndexMember  = "E304" // index references an unknown property
	ErrInvalidIndex        = "E305" // unknown kind, empty, or a second primary index
	ErrUnknownCollection   = "E306" // relationship targets an unknown collection
	ErrUnknownIndex        = "E307" // relationship references an unknown index
	ErrKeyMismatch         = "E308" // foreign key arity differs from the referenced primary key
	ErrInvalidRelationship = "E309" // unknown cardinality or missing linker
)

// ValidationError describes one problem found while building a Catalog.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one NewCatalog call.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Catalog is an immutable, validated set of collections.
type Catalog struct {
	collections []Collection
	byName      map[string]int
}

// NewCatalog copies, normalises and validates collections.
//
// Defaults are filled in: a missing Table is the collection name, a
// missing Column is the property name and a missing Type is string.
// All problems are reported together as ValidationErrors.
func NewCatalog(collections ...Collection) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]int, len(collections))}

	var errs ValidationErrors
	for _, col := range collections {
		col = normalize(col)
		if _, dup := c.byName[col.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   col.Name,
				Message: "duplicate collection name",
				Code:    ErrDuplicateCollection,
			})
			continue
		}
		c.byName[col.Name] = len(c.collections)
		c.collections = append(c.collections, col)
	}

	for _, col := range c.collections {
		errs = append(errs, validateCollection(col)...)
	}
	for _, col := range c.collections {
		errs = append(errs, c.validateRelationships(col)...)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on error.
func MustCatalog(collections ...Collection) *Catalog {
	c, err := NewCatalog(collections...)
	if err != nil {
		panic(err)
	}
	return c
}

// Collection finds a collection by name or table, ignoring case as a fallback.
func (c *Catalog) Collection(name string) (Collection, bool) {
	if i, ok := c.byName[name]; ok {
		return c.collections[i], true
	}
	for _, col := range c.collections {
		if col.Table == name {
			return col, true
		}
	}
	for _, col := range c.collections {
		if sameName(col.Name, name) || sameName(col.Table, name) {
			return col, true
		}
	}
	return Collection{}, false
}

// Collections returns every collection in declaration order.
func (c *Catalog) Collections() []Collection {
	out := make([]Collection, len(c.collections))
	copy(out, c.collections)
	return out
}

func normalize(col Collection) Collection {
	out := Collection{Name: col.Name, Table: col.Table}
	if out.Table == "" {
		out.Table = out.Name
	}

	out.Properties = make([]Property, len(col.Properties))
	for i, p := range col.Properties {
		if p.Column == "" {
			p.Column = p.Name
		}
		if p.Type == "" {
			p.Type = TypeString
		}
		out.Properties[i] = p
	}

	out.Indexes = make([]Index, len(col.Indexes))
	for i, ix := range col.Indexes {
		ix.Properties = append([]string(nil), ix.Properties...)
		out.Indexes[i] = ix
	}

	out.Relationships = append([]Relationship(nil), col.Relationships...)
	return out
}

func validateCollection(col Collection) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(col.Properties))
	for _, p := range col.Properties {
		field := col.Name + "." + p.Name
		if seen[p.Name] {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate property name", Code: ErrDuplicateProperty})
		}
		seen[p.Name] = true
		if !ValidTypes[p.Type] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid type %q", p.Type),
				Code:    ErrInvalidType,
			})
		}
	}

	primaries := 0
	for _, ix := range col.Indexes {
		field := col.Name + ".index." + ix.Name
		if !ValidIndexKinds[ix.Kind] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid index kind %q", ix.Kind),
				Code:    ErrInvalidIndex,
			})
		}
		if ix.Kind == IndexPrimary {
			primaries++
			if primaries > 1 {
				errs = append(errs, ValidationError{Field: field, Message: "more than one primary index", Code: ErrInvalidIndex})
			}
		}
		if len(ix.Properties) == 0 {
			errs = append(errs, ValidationError{Field: field, Message: "index has no properties", Code: ErrInvalidIndex})
		}
		for _, name := range ix.Properties {
			if !seen[name] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("unknown property %q", name),
					Code:    ErrUnknownIndexMember,
				})
			}
		}
	}

	return errs
}

func (c *Catalog) validateRelationships(col Collection) []ValidationError {
	var errs []ValidationError

	for _, rel := range col.Relationships {
		field := col.Name + ".relationship." + rel.Name
		fail := func(code, format string, args ...any) {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
		}

		if !ValidCardinalities[rel.Kind] {
			fail(ErrInvalidRelationship, "invalid cardinality %q", rel.Kind)
			continue
		}
		related, ok := c.byName[rel.Related]
		if !ok {
			fail(ErrUnknownCollection, "unknown related collection %q", rel.Related)
			continue
		}
		target := c.collections[related]

		var checks [][2]Collection
		var fks []string
		switch rel.Kind {
		case ManyToOne:
			checks, fks = [][2]Collection{{col, target}}, []string{rel.Index}
		case OneToMany:
			checks, fks = [][2]Collection{{target, col}}, []string{rel.Index}
		case ManyToMany:
			li, ok := c.byName[rel.Linker]
			if rel.Linker == "" || !ok {
				fail(ErrInvalidRelationship, "many-to-many requires a known linker collection, got %q", rel.Linker)
				continue
			}
			linker := c.collections[li]
			checks = [][2]Collection{{linker, col}, {linker, target}}
			fks = []string{rel.Index, rel.RelatedIndex}
		}
		for i, pair := range checks {
			if code, msg := checkForeignKey(pair[0], fks[i], pair[1]); code != "" {
				fail(code, "%s", msg)
			}
		}
	}
	return errs
}

// checkForeignKey verifies that index fk on holder references the primary
// key of target. It returns an error code and message, or "" when sound.
func checkForeignKey(holder Collection, fk string, target Collection) (string, string) {
	ix, ok := holder.Index(fk)
	if !ok {
		return ErrUnknownIndex, fmt.Sprintf("unknown index %q on %s", fk, holder.Name)
	}
	pk, ok := target.PrimaryIndex()
	if !ok {
		return ErrInvalidRelationship, fmt.Sprintf("%s has no primary index", target.Name)
	}
	if len(ix.Properties) != len(pk.Properties) {
		return ErrKeyMismatch, fmt.Sprintf("%s.%s has %d properties, %s primary key has %d",
			holder.Name, ix.Name, len(ix.Properties), target.Name, len(pk.Properties))
	}
	return "", ""
}
