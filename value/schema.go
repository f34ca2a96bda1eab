package value

// TypeTag names the declared type of a column in a pipeline's input schema
// or of an operator's output schema, declared-type list.
type TypeTag string

const (
	TBool     TypeTag = "bool"
	TInt      TypeTag = "int"
	TLong     TypeTag = "long"
	TFloat    TypeTag = "float"
	TDouble   TypeTag = "double"
	TString   TypeTag = "string"
	TDateTime TypeTag = "datetime"
	TArray    TypeTag = "array"
	TObject   TypeTag = "object"
	TDynamic  TypeTag = "dynamic"
)

// Kind returns the runtime Kind a declared type coerces to, or false for
// TDynamic which accepts any Kind.
func (t TypeTag) Kind() (Kind, bool) {
	switch t {
	case TBool:
		return KindBool, true
	case TInt, TLong:
		return KindInt, true
	case TFloat:
		return KindFloat, true
	case TDouble:
		return KindDouble, true
	case TString:
		return KindString, true
	case TDateTime:
		return KindDateTime, true
	case TArray:
		return KindList, true
	case TObject:
		return KindMap, true
	default:
		return KindNull, false
	}
}

// Column is one entry of a Schema: a name and its declared (or Dynamic) type.
type Column struct {
	Name string
	Type TypeTag
}

// Schema is an ordered list of Columns. Operators compute their output
// Schema as a pure function of their input Schema, independent of row data.
type Schema struct {
	Columns []Column
}

// IndexOf returns the position of name in the schema, or -1.
func (s Schema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether name is a declared column.
func (s Schema) Has(name string) bool { return s.IndexOf(name) >= 0 }

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// With returns a new Schema with col appended or, if a column by that name
// already exists, replaced in place so overwritten columns retain their
// original position.
func (s Schema) With(col Column) Schema {
	cols := append([]Column(nil), s.Columns...)
	if i := s.IndexOf(col.Name); i >= 0 {
		cols[i] = col
		return Schema{Columns: cols}
	}
	return Schema{Columns: append(cols, col)}
}

// Without returns a new Schema with the named columns removed.
func (s Schema) Without(names ...string) Schema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	cols := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !drop[c.Name] {
			cols = append(cols, c)
		}
	}
	return Schema{Columns: cols}
}

// Keep returns a new Schema containing only the named columns, in the order
// given by the schema (not the order of names).
func (s Schema) Keep(names ...string) Schema {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	cols := make([]Column, 0, len(names))
	for _, c := range s.Columns {
		if keep[c.Name] {
			cols = append(cols, c)
		}
	}
	return Schema{Columns: cols}
}

// Renamed returns a new Schema with old renamed to new, preserving position.
func (s Schema) Renamed(newToOld map[string]string) Schema {
	cols := append([]Column(nil), s.Columns...)
	oldToNew := make(map[string]string, len(newToOld))
	for newName, oldName := range newToOld {
		oldToNew[oldName] = newName
	}
	for i, c := range cols {
		if n, ok := oldToNew[c.Name]; ok {
			cols[i] = Column{Name: n, Type: c.Type}
		}
	}
	return Schema{Columns: cols}
}

// Row is a mapping from column name to Value. Column ordering comes from the
// owning Schema, not from the Row itself.
type Row map[string]Value

// Clone returns a shallow copy of r, safe for operators that must not mutate
// their input in place.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns r[name], defaulting to Null if absent.
func (r Row) Get(name string) Value {
	if v, ok := r[name]; ok {
		return v
	}
	return Null()
}
