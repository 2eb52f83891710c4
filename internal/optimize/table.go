package optimize

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/Portfolio/internal/benefit"
)

// Row is one line of the sweep output table.
type Row struct {
	TotalCost       float64 `json:"total_cost"`
	Strategies      string  `json:"strategies"`
	SpeciesGroups   string  `json:"species_groups"`
	Threshold       float64 `json:"threshold"`
	NumberOfSpecies int     `json:"number_of_species"`
	Budget          float64 `json:"budget"`
}

var tableHeader = []string{"total_cost", "strategies", "species_groups", "threshold", "number_of_species", "budget"}

func Rows(results []*Result) []Row {
	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i] = Row{
			TotalCost:       r.TotalCost,
			Strategies:      strings.Join(r.Strategies, benefit.ComboSeparator),
			SpeciesGroups:   strings.Join(r.SpeciesNames, SignatureSeparator),
			Threshold:       r.Threshold,
			NumberOfSpecies: r.SpeciesCount,
			Budget:          r.Budget,
		}
	}
	return rows
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			formatFloat(r.TotalCost),
			r.Strategies,
			r.SpeciesGroups,
			formatFloat(r.Threshold),
			strconv.Itoa(r.NumberOfSpecies),
			formatFloat(r.Budget),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
