package holofood

import (
	"testing"

	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
	"github.com/matryer/is"
)

func analysisSet(accessions ...string) *tables.TableSet {
	set := tables.NewSet()
	t := set.Ensure("analyses")
	for _, acc := range accessions {
		t.Upsert(acc, tables.Row{"pipeline": "5.0", "experiment_type": "metagenomic"})
	}
	return set
}

func TestMergeExternalRekeysMappedRows(t *testing.T) {
	is := is.New(t)

	primary := tables.NewSet()
	primary.Ensure(Samples).Upsert("SAMEA10", tables.Row{"sample_type": "metagenomic_assembly"})

	merged, warning := MergeExternal(primary, analysisSet("MGYA00000001"), map[string]string{
		"MGYA00000001": "SAMEA10",
	})

	is.True(warning.Empty())

	analyses, found := merged.Get("analyses")
	is.True(found)
	is.True(analyses.Has("SAMEA10")) // re-keyed to the portal accession
	is.True(!analyses.Has("MGYA00000001"))

	row, _ := analyses.Row("SAMEA10")
	is.Equal(row["external_accession"], "MGYA00000001") // the foreign key survives as a column
}

func TestMergeExternalReportsUnmappedCoverage(t *testing.T) {
	is := is.New(t)

	primary := tables.NewSet()
	primary.Ensure(Samples).Upsert("SAMEA10", tables.Row{})

	merged, warning := MergeExternal(primary, analysisSet("MGYA00000001", "MGYA00000002"), map[string]string{
		"MGYA00000001": "SAMEA10",
	})

	is.True(!warning.Empty())
	is.Equal(warning.Unmapped, []string{"MGYA00000002"})

	analyses, _ := merged.Get("analyses")
	is.Equal(analyses.Len(), 1) // unmapped rows appear nowhere in the merged set
}

func TestMergeExternalManyToOneFirstMatchWins(t *testing.T) {
	is := is.New(t)

	primary := tables.NewSet()
	primary.Ensure(Samples).Upsert("SAMEA10", tables.Row{})

	secondary := tables.NewSet()
	st := secondary.Ensure("analyses")
	st.Upsert("MGYA00000001", tables.Row{"pipeline": "4.1"})
	st.Upsert("MGYA00000002", tables.Row{"pipeline": "5.0"})

	merged, warning := MergeExternal(primary, secondary, map[string]string{
		"MGYA00000001": "SAMEA10",
		"MGYA00000002": "SAMEA10",
	})

	is.Equal(warning.Shadowed, []string{"MGYA00000002"})

	analyses, _ := merged.Get("analyses")
	is.Equal(analyses.Len(), 1)

	row, _ := analyses.Row("SAMEA10")
	is.Equal(row["pipeline"], "4.1") // the first mapped analysis wins
}

func TestMergeExternalDoesNotOverwriteCollidingNames(t *testing.T) {
	is := is.New(t)

	primary := tables.NewSet()
	primary.Ensure("analyses").Upsert("SAMEA10", tables.Row{"origin": "portal"})

	merged, _ := MergeExternal(primary, analysisSet("MGYA00000001"), map[string]string{
		"MGYA00000001": "SAMEA10",
	})

	original, _ := merged.Get("analyses")
	row, _ := original.Row("SAMEA10")
	is.Equal(row["origin"], "portal") // the primary table is untouched

	renamed, found := merged.Get("analyses_2")
	is.True(found) // the colliding secondary table is stored under a suffix
	is.Equal(renamed.Len(), 1)
}

func TestMergeExternalLeavesPrimaryTablesIntact(t *testing.T) {
	is := is.New(t)

	primary := tables.NewSet()
	primary.Ensure(Samples).Upsert("SAMEA10", tables.Row{"sample_type": "histology"})
	primary.Ensure(Animals).Upsert("SAMEA1", tables.Row{"system": "salmon"})

	merged, warning := MergeExternal(primary, tables.NewSet(), nil)

	is.True(warning.Empty()) // an empty secondary has full coverage trivially
	is.Equal(merged.Names(), []string{Samples, Animals})
}
