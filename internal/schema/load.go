package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// CompileError is a problem in a CUE catalog definition, with the CUE
// source position when one is known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDir loads every CUE file in dir as one instance and compiles the
// top-level "collection" struct into a validated Catalog.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, formatCUEError(err)
	}
	return CompileCatalog(ctx.BuildInstance(instances[0]))
}

// LoadString compiles CUE source text into a Catalog.
func LoadString(src string) (*Catalog, error) {
	return CompileCatalog(cuecontext.New().CompileString(src, cue.Filename("schema.cue")))
}

// CompileCatalog compiles the "collection" struct of v.
//
//	collection: orders: {
//		table: "orders"
//		property: orderID: {type: "int"}
//		property: shipCountry: "string"
//		index: pk: {kind: "primary", properties: ["orderID"]}
//		relationship: customer: {kind: "many-to-one", related: "customers", index: "fkCustomer"}
//	}
func CompileCatalog(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	root := v.LookupPath(cue.ParsePath("collection"))
	if !root.Exists() {
		return nil, &CompileError{Field: "collection", Message: "no collections defined", Pos: v.Pos()}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var cols []Collection
	for iter.Next() {
		col, err := CompileCollection(iter.Value())
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return NewCatalog(cols...)
}

// CompileCollection compiles a single collection struct. The collection
// name is the struct label.
func CompileCollection(v cue.Value) (Collection, error) {
	if err := v.Err(); err != nil {
		return Collection{}, formatCUEError(err)
	}

	var col Collection
	if sels := v.Path().Selectors(); len(sels) > 0 {
		col.Name = sels[len(sels)-1].String()
	}

	var err error
	if col.Table, err = optionalString(v, "table"); err != nil {
		return col, err
	}

	err = eachField(v, "property", func(name string, pv cue.Value) error {
		p := Property{Name: name}
		// "type" shorthand
		if s, serr := pv.String(); serr == nil {
			p.Type = Type(s)
			col.Properties = append(col.Properties, p)
			return nil
		}
		column, err := optionalString(pv, "column")
		if err != nil {
			return err
		}
		typ, err := optionalString(pv, "type")
		if err != nil {
			return err
		}
		p.Column, p.Type = column, Type(typ)
		if nv := pv.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
			if p.Nullable, err = nv.Bool(); err != nil {
				return formatCUEError(err)
			}
		}
		col.Properties = append(col.Properties, p)
		return nil
	})
	if err != nil {
		return col, err
	}
	if len(col.Properties) == 0 {
		return col, &CompileError{Field: col.Name + ".property", Message: "at least one property is required", Pos: v.Pos()}
	}

	err = eachField(v, "index", func(name string, iv cue.Value) error {
		kind, err := optionalString(iv, "kind")
		if err != nil {
			return err
		}
		props, err := stringList(iv, "properties")
		if err != nil {
			return err
		}
		col.Indexes = append(col.Indexes, Index{Name: name, Kind: IndexKind(kind), Properties: props})
		return nil
	})
	if err != nil {
		return col, err
	}

	err = eachField(v, "relationship", func(name string, rv cue.Value) error {
		rel := Relationship{Name: name}
		fields := []struct {
			path string
			dst  *string
		}{
			{"related", &rel.Related},
			{"index", &rel.Index},
			{"linker", &rel.Linker},
			{"related_index", &rel.RelatedIndex},
		}
		for _, f := range fields {
			s, err := optionalString(rv, f.path)
			if err != nil {
				return err
			}
			*f.dst = s
		}
		kind, err := optionalString(rv, "kind")
		if err != nil {
			return err
		}
		rel.Kind = Cardinality(kind)
		col.Relationships = append(col.Relationships, rel)
		return nil
	})
	return col, err
}

func eachField(v cue.Value, path string, fn func(name string, v cue.Value) error) error {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
