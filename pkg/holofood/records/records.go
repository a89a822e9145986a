package records

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Record is one raw portal entity: a set of scalar attributes plus zero or
// more named relations. The attribute set is schema-less; the portal is free
// to add or omit attributes per record.
type Record struct {
	accession  string
	attributes map[string]any
	relations  map[string]Relation
}

// Relation is the two-state variant for nested data: either the related
// records are inlined in the payload, or the payload only carries their
// accessions and a follow-up fetch is required. Only the accession resolver
// is allowed to turn a reference into a fetch.
type Relation struct {
	inlined []Record
	refs    []string
}

func Inlined(children ...Record) Relation {
	return Relation{inlined: children}
}

func Reference(accessions ...string) Relation {
	return Relation{refs: accessions}
}

func (r Relation) IsReference() bool { return len(r.refs) > 0 }
func (r Relation) Inline() []Record  { return r.inlined }
func (r Relation) Refs() []string    { return r.refs }

func (r Relation) Len() int {
	if r.IsReference() {
		return len(r.refs)
	}
	return len(r.inlined)
}

func New(accession string, attributes map[string]any, relations map[string]Relation) Record {
	if attributes == nil {
		attributes = map[string]any{}
	}
	if relations == nil {
		relations = map[string]Relation{}
	}

	return Record{
		accession:  accession,
		attributes: attributes,
		relations:  relations,
	}
}

func NewFromJSON(body []byte) (Record, error) {
	r := Record{}
	err := json.Unmarshal(body, &r)

	if err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return r, nil
}

func (r Record) Accession() string { return r.accession }

func (r Record) Attribute(name string) (any, bool) {
	v, found := r.attributes[name]
	return v, found
}

// AttributeNames returns the scalar attribute names in sorted order.
func (r Record) AttributeNames() []string {
	names := make([]string, 0, len(r.attributes))
	for name := range r.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r Record) Relation(name string) (Relation, bool) {
	rel, found := r.relations[name]
	return rel, found
}

// RelationNames returns the relation names in sorted order.
func (r Record) RelationNames() []string {
	names := make([]string, 0, len(r.relations))
	for name := range r.relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var contents map[string]any
	err := json.Unmarshal(data, &contents)
	if err != nil {
		return fmt.Errorf("failed to unmarshal record: %w", err)
	}

	if acc, ok := contents["accession"].(string); ok {
		r.accession = acc
		delete(contents, "accession")
	}

	r.attributes = map[string]any{}
	r.relations = map[string]Relation{}

	for k, v := range contents {
		r.absorb(k, v)
	}

	return nil
}

func (r *Record) absorb(name string, value any) {
	switch v := value.(type) {
	case map[string]any:
		// A nested object that carries its own accession is a related
		// record, everything else is structured metadata that gets
		// flattened into dotted attribute names.
		if _, isRecord := v["accession"]; isRecord {
			child := Record{}
			child.fromContents(v)
			r.relations[name] = Inlined(child)
			return
		}

		for kk, vv := range v {
			r.absorb(name+"."+kk, vv)
		}

	case []any:
		r.absorbCollection(name, v)

	default:
		r.attributes[name] = v
	}
}

func (r *Record) absorbCollection(name string, items []any) {
	if len(items) == 0 {
		r.relations[name] = Inlined()
		return
	}

	switch items[0].(type) {
	case string:
		refs := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				refs = append(refs, s)
			}
		}
		r.relations[name] = Reference(refs...)

	case map[string]any:
		children := make([]Record, 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			child := Record{}
			child.fromContents(obj)
			children = append(children, child)
		}
		r.relations[name] = Inlined(children...)

	default:
		// a list of plain scalars is an attribute, not a relation
		r.attributes[name] = items
	}
}

func (r *Record) fromContents(contents map[string]any) {
	if acc, ok := contents["accession"].(string); ok {
		r.accession = acc
		delete(contents, "accession")
	}

	r.attributes = map[string]any{}
	r.relations = map[string]Relation{}

	for k, v := range contents {
		r.absorb(k, v)
	}
}
