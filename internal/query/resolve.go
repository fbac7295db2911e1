package query

import (
	"fmt"
	"strings"

	"github.com/inversion-api/inversion-engine-sub011/internal/schema"
)

// Column is a resolved property reference.
type Column struct {
	// Table is the qualifier: the query alias, or a Hop table alias.
	Table string
	// Name is the physical column.
	Name     string
	Property schema.Property
	// Hop is set when the column lives across a relationship and needs a
	// correlated lookup. The many-to-one foreign-key shortcut never sets it.
	Hop *Hop
}

// Ref is a qualified physical column.
type Ref struct {
	Table  string
	Column string
}

// TableRef is a physical table with the alias it is referred to by.
type TableRef struct {
	Table string
	Alias string
}

// Join equates two columns.
type Join struct {
	Left  Ref
	Right Ref
}

// Hop describes the correlated lookup for a related column: the tables to
// scan and the equalities that tie them to the outer collection.
type Hop struct {
	Relationship schema.Relationship
	Tables       []TableRef
	On           []Join
}

// Resolve resolves "property" or "relationship.property" against the
// query's collection, walking at most one relationship.
//
// A many-to-one relationship referenced alone, or through a property of
// the related primary key, resolves to the local foreign-key column.
func (q *Query) Resolve(ref string) (Column, error) {
	if ref == "" {
		return Column{}, q.unresolved(ref, "empty reference")
	}
	if p, ok := q.collection.Property(ref); ok {
		return q.column(p), nil
	}

	relName, propName, dotted := strings.Cut(ref, ".")
	rel, ok := q.collection.Relationship(relName)
	if !ok {
		if dotted {
			return Column{}, q.unresolved(ref, fmt.Sprintf("unknown relationship %q", relName))
		}
		return Column{}, q.unresolved(ref, "unknown property")
	}
	related, ok := q.catalog.Collection(rel.Related)
	if !ok {
		return Column{}, q.unresolved(ref, fmt.Sprintf("unknown collection %q", rel.Related))
	}

	if !dotted {
		if rel.Kind != schema.ManyToOne {
			return Column{}, q.unresolved(ref, fmt.Sprintf("%s relationship needs a property", rel.Kind))
		}
		fk := q.foreignKey(rel)
		if len(fk) != 1 {
			return Column{}, q.unresolved(ref, "relationship has a composite key, reference a property")
		}
		return q.column(fk[0]), nil
	}

	prop, ok := related.Property(propName)
	if !ok {
		return Column{}, q.unresolved(ref, fmt.Sprintf("unknown property %q on %s", propName, related.Name))
	}

	if rel.Kind == schema.ManyToOne {
		if pk, ok := related.PrimaryIndex(); ok {
			for i, p := range related.IndexProperties(pk) {
				if p.Name == prop.Name {
					if fk := q.foreignKey(rel); i < len(fk) {
						return q.column(fk[i]), nil
					}
				}
			}
		}
	}

	hop, err := q.hop(rel, related)
	if err != nil {
		return Column{}, err
	}
	return Column{Table: hopAlias(hop), Name: prop.Column, Property: prop, Hop: hop}, nil
}

// column qualifies a property of the main collection.
func (q *Query) column(p schema.Property) Column {
	return Column{Table: q.Alias(), Name: p.Column, Property: p}
}

func (q *Query) unresolved(ref, msg string) error {
	return &ResolutionError{Collection: q.collection.Name, Reference: ref, Message: msg}
}

// foreignKey returns the local properties of a many-to-one relationship.
func (q *Query) foreignKey(rel schema.Relationship) []schema.Property {
	ix, ok := q.collection.Index(rel.Index)
	if !ok {
		return nil
	}
	return q.collection.IndexProperties(ix)
}

func (q *Query) hop(rel schema.Relationship, related schema.Collection) (*Hop, error) {
	alias := rel.Name
	if alias == q.Alias() {
		alias = "_" + alias
	}
	target := TableRef{Table: related.Table, Alias: alias}
	h := &Hop{Relationship: rel}

	switch rel.Kind {
	case schema.ManyToOne:
		// related.pk = local.fk
		ix, _ := q.collection.Index(rel.Index)
		if err := q.pair(h, q.collection, ix, q.Alias(), related, target.Alias, true); err != nil {
			return nil, err
		}
		h.Tables = []TableRef{target}
	case schema.OneToMany:
		// related.fk = local.pk
		ix, _ := related.Index(rel.Index)
		if err := q.pair(h, related, ix, target.Alias, q.collection, q.Alias(), false); err != nil {
			return nil, err
		}
		h.Tables = []TableRef{target}
	case schema.ManyToMany:
		linker, ok := q.catalog.Collection(rel.Linker)
		if !ok {
			return nil, q.unresolved(rel.Name, fmt.Sprintf("unknown linker %q", rel.Linker))
		}
		link := TableRef{Table: linker.Table, Alias: alias + "_link"}
		// linker.fk = local.pk, linker.relatedFk = related.pk
		ix, _ := linker.Index(rel.Index)
		if err := q.pair(h, linker, ix, link.Alias, q.collection, q.Alias(), false); err != nil {
			return nil, err
		}
		rix, _ := linker.Index(rel.RelatedIndex)
		if err := q.pair(h, linker, rix, link.Alias, related, target.Alias, false); err != nil {
			return nil, err
		}
		h.Tables = []TableRef{target, link}
	default:
		return nil, q.unresolved(rel.Name, fmt.Sprintf("unknown cardinality %q", rel.Kind))
	}
	return h, nil
}

// pair adds one join per foreign-key property: fkCol.fk[i] = pkCol.pk[i].
// pkFirst puts the primary key on the left.
func (q *Query) pair(h *Hop, fkCol schema.Collection, fk schema.Index, fkAlias string, pkCol schema.Collection, pkAlias string, pkFirst bool) error {
	pk, ok := pkCol.PrimaryIndex()
	if !ok {
		return q.unresolved(h.Relationship.Name, pkCol.Name+" has no primary index")
	}
	fks, pks := fkCol.IndexProperties(fk), pkCol.IndexProperties(pk)
	if len(fks) == 0 || len(fks) != len(pks) {
		return q.unresolved(h.Relationship.Name, "foreign key does not match primary key")
	}
	for i := range fks {
		f := Ref{Table: fkAlias, Column: fks[i].Column}
		p := Ref{Table: pkAlias, Column: pks[i].Column}
		if pkFirst {
			h.On = append(h.On, Join{Left: p, Right: f})
		} else {
			h.On = append(h.On, Join{Left: f, Right: p})
		}
	}
	return nil
}

func hopAlias(h *Hop) string { return h.Tables[0].Alias }
