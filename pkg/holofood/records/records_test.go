package records

import (
	"testing"

	"github.com/matryer/is"
)

func TestUnmarshalScalarsAndInlinedRelation(t *testing.T) {
	is := is.New(t)

	rec, err := NewFromJSON([]byte(animalJSON))
	is.NoErr(err)

	is.Equal(rec.Accession(), "SAMEA1")

	system, _ := rec.Attribute("system")
	is.Equal(system, "salmon")

	rel, found := rec.Relation("samples")
	is.True(found)
	is.True(!rel.IsReference())
	is.Equal(rel.Len(), 2)
	is.Equal(rel.Inline()[0].Accession(), "SAMEA10")
}

func TestUnmarshalReferenceRelation(t *testing.T) {
	is := is.New(t)

	rec, err := NewFromJSON([]byte(`{
		"accession": "SAMEA1",
		"analyses": ["MGYA00000001", "MGYA00000002"]
	}`))
	is.NoErr(err)

	rel, found := rec.Relation("analyses")
	is.True(found)
	is.True(rel.IsReference()) // accession strings require a follow-up fetch
	is.Equal(rel.Refs(), []string{"MGYA00000001", "MGYA00000002"})
}

func TestUnmarshalEmptyRelation(t *testing.T) {
	is := is.New(t)

	rec, err := NewFromJSON([]byte(`{"accession": "SAMEA1", "samples": []}`))
	is.NoErr(err)

	rel, found := rec.Relation("samples")
	is.True(found)
	is.Equal(rel.Len(), 0)
}

func TestUnmarshalFlattensStructuredMetadata(t *testing.T) {
	is := is.New(t)

	rec, err := NewFromJSON([]byte(`{
		"accession": "SAMEA1",
		"marker": {"name": "ALT", "unit": "U/L"}
	}`))
	is.NoErr(err)

	name, found := rec.Attribute("marker.name")
	is.True(found)
	is.Equal(name, "ALT")

	unit, _ := rec.Attribute("marker.unit")
	is.Equal(unit, "U/L")
}

func TestUnmarshalNestedObjectWithAccessionBecomesRelation(t *testing.T) {
	is := is.New(t)

	rec, err := NewFromJSON([]byte(`{
		"accession": "SAMEA10",
		"animal": {"accession": "SAMEA1", "system": "salmon"}
	}`))
	is.NoErr(err)

	rel, found := rec.Relation("animal")
	is.True(found)
	is.Equal(rel.Len(), 1)
	is.Equal(rel.Inline()[0].Accession(), "SAMEA1")
}

func TestUnmarshalScalarListStaysAnAttribute(t *testing.T) {
	is := is.New(t)

	rec, err := NewFromJSON([]byte(`{"accession": "SAMEA1", "weights": [1.5, 2.5]}`))
	is.NoErr(err)

	_, isRelation := rec.Relation("weights")
	is.True(!isRelation)

	weights, found := rec.Attribute("weights")
	is.True(found)
	is.Equal(len(weights.([]any)), 2)
}

func TestAttributeNamesAreSorted(t *testing.T) {
	is := is.New(t)

	rec, err := NewFromJSON([]byte(`{"accession": "SAMEA1", "c": 1, "a": 2, "b": 3}`))
	is.NoErr(err)

	is.Equal(rec.AttributeNames(), []string{"a", "b", "c"})
}

const animalJSON = `{
	"accession": "SAMEA1",
	"system": "salmon",
	"animal_code": "S01",
	"samples": [
		{"accession": "SAMEA10", "sample_type": "histology", "title": "liver"},
		{"accession": "SAMEA11", "sample_type": "fatty_acids", "title": "muscle"}
	]
}`
