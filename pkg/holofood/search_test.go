package holofood

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/holofood-data/holofood-go/pkg/holofood/client"
	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
	"github.com/matryer/is"
)

func TestSearchSummaryDerivesPresenceColumns(t *testing.T) {
	is := is.New(t)

	mock := &portalClientMock{
		FetchPageFunc: func(ctx context.Context, entityType, cursor string, params ...client.RequestDecoratorFunc) (*client.Page, error) {
			is.Equal(entityType, Animals)
			is.Equal(queryOf(params...).Get("system"), "salmon") // filter should reach the transport

			return pageOf("", 3,
				`{"accession": "SAMEA1", "system": "salmon", "samples": [{"accession": "SAMEA10", "sample_type": "histology"}]}`,
				`{"accession": "SAMEA2", "system": "salmon", "samples": []}`,
				`{"accession": "SAMEA3", "system": "salmon", "samples": [{"accession": "SAMEA30", "sample_type": "fatty_acids"}]}`,
			), nil
		},
	}

	p := New(mock, RetryInterval(time.Millisecond))

	table, err := p.Search(context.Background(), Animals, map[string]string{"system": "salmon"}, 2)

	is.NoErr(err)
	is.Equal(table.Len(), 2) // max hits caps the result

	first, _ := table.Row("SAMEA1")
	is.Equal(first["has_samples"], true)

	second, _ := table.Row("SAMEA2")
	is.Equal(second["has_samples"], false)
}

func TestSearchValidatesFiltersBeforeFetching(t *testing.T) {
	is := is.New(t)

	mock := &portalClientMock{
		FetchPageFunc: func(ctx context.Context, entityType, cursor string, params ...client.RequestDecoratorFunc) (*client.Page, error) {
			t.Fatal("transport should not be called for an invalid query")
			return nil, nil
		},
	}

	p := New(mock)

	_, err := p.Search(context.Background(), Animals, map[string]string{"flavour": "umami"}, 0)

	is.True(stderrors.Is(err, errors.ErrRejected))
	is.Equal(mock.fetchPageCalls, 0)
}

func TestSearchWithoutMatchesReturnsEmptyTable(t *testing.T) {
	is := is.New(t)

	mock := &portalClientMock{
		FetchPageFunc: scriptedPages(pageOf("", 0)),
	}

	p := New(mock, RetryInterval(time.Millisecond))

	table, err := p.Search(context.Background(), Animals, nil, 0)

	is.NoErr(err) // empty is a valid result, not an error
	is.Equal(table.Len(), 0)
}

func TestSearchTablesKeepsNestedStructure(t *testing.T) {
	is := is.New(t)

	mock := &portalClientMock{
		FetchPageFunc: scriptedPages(pageOf("", 1,
			`{"accession": "SAMEA1", "system": "salmon", "samples": [
				{"accession": "SAMEA10", "sample_type": "histology"},
				{"accession": "SAMEA11", "sample_type": "fatty_acids"}
			]}`,
		)),
	}

	p := New(mock, RetryInterval(time.Millisecond))

	set, err := p.SearchTables(context.Background(), Animals, nil, 0)
	is.NoErr(err)

	animals, found := set.Get(Animals)
	is.True(found)
	is.Equal(animals.Len(), 1)

	samples, found := set.Get("samples")
	is.True(found)
	is.Equal(samples.Len(), 2)

	child, _ := samples.Row("SAMEA10")
	is.Equal(child["animal_accession"], "SAMEA1") // children link back to their parent
}

func TestSearchCatalogueGenomesUsesSubResourcePath(t *testing.T) {
	is := is.New(t)

	mock := &portalClientMock{
		FetchPageFunc: func(ctx context.Context, entityType, cursor string, params ...client.RequestDecoratorFunc) (*client.Page, error) {
			is.Equal(entityType, "genome-catalogues/chicken-gut-v1/genomes")
			return pageOf("", 1, `{"accession": "MGYG000298011", "taxonomy": "Bacteroides"}`), nil
		},
	}

	p := New(mock, RetryInterval(time.Millisecond))

	table, err := p.Search(context.Background(), CatalogueGenomes("chicken-gut-v1"), nil, 0)

	is.NoErr(err)
	is.Equal(table.Len(), 1)
	is.True(table.Has("MGYG000298011"))
}

func TestSearchTablesKeepsReferenceRelationsUnfollowed(t *testing.T) {
	is := is.New(t)

	mock := &portalClientMock{
		FetchPageFunc: scriptedPages(pageOf("", 1,
			`{"accession": "SAMEA10", "sample_type": "metagenomic_assembly", "analyses": ["MGYA00000001"]}`,
		)),
	}

	p := New(mock, RetryInterval(time.Millisecond))

	set, err := p.SearchTables(context.Background(), Samples, nil, 0)
	is.NoErr(err)

	is.Equal(mock.fetchPageCalls, 1) // reference relations must not trigger fetches

	sample, _ := set.Ensure(Samples).Row("SAMEA10")
	is.Equal(sample["analyses_accessions"], []string{"MGYA00000001"})
}
