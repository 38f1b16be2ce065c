// Package export drives a whole run: catalog in, one consolidated CSV
// out.
package export

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"consultaescolas-backend/lib/catalog"
	"consultaescolas-backend/lib/scrapers/consultaescolas"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/export")

type Config struct {
	BaseUrl   string          `json:"base_url"`
	InputXlsx string          `json:"input_xlsx"`
	OutputCsv string          `json:"output_csv"`
	Columns   catalog.Columns `json:"columns"`
}

type Service struct {
	client  *consultaescolas.Client
	catalog catalog.Catalog
	output  string
}

func NewService(client *consultaescolas.Client, cat catalog.Catalog, output string) Service {
	return Service{
		client:  client,
		catalog: cat,
		output:  output,
	}
}

// Run processes every cataloged school sequentially against one
// session. A city or school that cannot be resolved or navigated is
// logged and skipped; whatever was collected is still written at the
// end.
func (s Service) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "service:Run")
	defer span.End()

	cities, err := s.client.Open(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to establish session")
		return err
	}

	var reports []consultaescolas.Report
	for _, cityKey := range s.catalog.CityKeys() {
		cityCode, err := cities.Resolve(cityKey)
		if err != nil {
			slog.WarnContext(
				ctx, "skipping city",
				"err", err,
				"closest_candidate", closestCandidate(cityKey, cities.Keys()),
			)
			continue
		}

		options, err := s.client.SchoolOptions(ctx, cityCode)
		if err != nil {
			// distinct from a city that resolves but lists no matching
			// schools: no option list came back at all
			slog.WarnContext(ctx, "skipping city, no school options returned", "city", cityKey, "err", err)
			continue
		}

		expected := s.catalog.SchoolKeys(cityKey)
		matched := map[string]bool{}
		for _, option := range options {
			if !expected[option.Key] {
				continue
			}
			matched[option.Key] = true

			report, err := s.client.ScrapeSchool(ctx, cityKey, option.Label, cityCode, option.Code)
			if err != nil {
				slog.WarnContext(
					ctx, "skipping school",
					"city", cityKey,
					"school", option.Label,
					"err", err,
				)
				continue
			}
			reports = append(reports, report)
		}

		optionKeys := make([]string, len(options))
		for i, option := range options {
			optionKeys[i] = option.Key
		}
		for schoolKey := range expected {
			if matched[schoolKey] {
				continue
			}
			err := consultaescolas.LookupError{Kind: "school", Name: schoolKey}
			slog.WarnContext(
				ctx, "skipping school",
				"city", cityKey,
				"err", err,
				"closest_candidate", closestCandidate(schoolKey, optionKeys),
			)
		}
	}

	return s.write(reports)
}

func closestCandidate(name string, candidates []string) string {
	best := ""
	var similarity float64
	for _, candidate := range candidates {
		sim := matchr.JaroWinkler(name, candidate, false)
		if sim > similarity {
			similarity = sim
			best = candidate
		}
	}
	return best
}

// write renders every joined report into one flat CSV and overwrites
// the output file. Columns: the fixed summary schema, the identifier,
// the union of detail columns in first-seen order, then municipality
// and school. No index column.
func (s Service) write(reports []consultaescolas.Report) error {
	var detailColumns []string
	seen := map[string]bool{}
	for _, report := range reports {
		for _, col := range report.DetailColumns {
			if !seen[col] {
				seen[col] = true
				detailColumns = append(detailColumns, col)
			}
		}
	}

	header := table.Row{}
	for _, col := range consultaescolas.SummaryColumns {
		header = append(header, col)
	}
	header = append(header, "ids")
	for _, col := range detailColumns {
		header = append(header, col)
	}
	header = append(header, "municipio", "escola")

	t := table.NewWriter()
	t.AppendHeader(header)
	for _, report := range reports {
		for _, row := range report.Rows {
			out := table.Row{
				row.Subject,
				row.Shift,
				strconv.Itoa(row.Demand),
				strconv.Itoa(row.Supply),
				strconv.Itoa(row.OpenSlots),
				strconv.Itoa(row.Excess),
				row.Details,
				row.DetailId,
			}
			for _, col := range detailColumns {
				value, ok := row.Detail[col]
				if !ok || value == "" {
					value = "0"
				}
				out = append(out, value)
			}
			out = append(out, report.City, report.School)
			t.AppendRow(out)
		}
	}

	return os.WriteFile(s.output, []byte(t.RenderCSV()+"\n"), 0644)
}
