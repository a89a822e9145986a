package portal

import (
	"github.com/holofood-data/holofood-go/pkg/holofood"
	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
)

// Presentation shapes for the JSON API. Tables are rendered fully
// materialized, so every row carries every column and gaps come out as
// null via the missing marker.
type tableDTO struct {
	Columns []string     `json:"columns"`
	Rows    []tables.Row `json:"rows"`
}

type tableSetDTO struct {
	Order  []string            `json:"order"`
	Tables map[string]tableDTO `json:"tables"`
}

type fetchResultDTO struct {
	tableSetDTO
	Malformed []string `json:"malformed,omitempty"`
}

type experimentDTO struct {
	Metadata     tables.Row `json:"metadata"`
	Measurements tableDTO   `json:"measurements"`
}

type resultContainerDTO struct {
	Samples     *tableDTO                `json:"samples"`
	SampleTypes []string                 `json:"sample_types"`
	Experiments map[string]experimentDTO `json:"experiments"`
	Malformed   []string                 `json:"malformed,omitempty"`
}

func renderTable(t *tables.Table) tableDTO {
	return tableDTO{
		Columns: t.Columns(),
		Rows:    t.Rows(),
	}
}

func renderTableSet(set *tables.TableSet) tableSetDTO {
	dto := tableSetDTO{
		Order:  set.Names(),
		Tables: map[string]tableDTO{},
	}

	for _, name := range set.Names() {
		t, _ := set.Get(name)
		dto.Tables[name] = renderTable(t)
	}

	return dto
}

func renderFetchResult(result *holofood.FetchResult) fetchResultDTO {
	dto := fetchResultDTO{
		tableSetDTO: renderTableSet(result.Tables),
	}

	if result.Malformed != nil {
		dto.Malformed = result.Malformed.Invalid
	}

	return dto
}

func renderResultContainer(rc *holofood.ResultContainer) resultContainerDTO {
	dto := resultContainerDTO{
		SampleTypes: rc.SampleTypes(),
		Experiments: map[string]experimentDTO{},
	}

	if rc.Samples != nil {
		samples := renderTable(rc.Samples)
		dto.Samples = &samples
	}

	for _, sampleType := range rc.SampleTypes() {
		exp := rc.Experiments[sampleType]
		dto.Experiments[sampleType] = experimentDTO{
			Metadata:     exp.Metadata,
			Measurements: renderTable(exp.Measurements),
		}
	}

	if rc.Malformed != nil {
		dto.Malformed = rc.Malformed.Invalid
	}

	return dto
}
