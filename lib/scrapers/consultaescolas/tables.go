package consultaescolas

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"consultaescolas-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SummaryColumns is the fixed export schema for the summary grid, in
// the exact column order the page renders.
var SummaryColumns = []string{
	"Disciplina - Função",
	"Turno",
	"Demanda",
	"Suprimento",
	"Vagas",
	"Excessos",
	"Detalhes",
}

// SummaryRow is one row of the supply/demand grid.
type SummaryRow struct {
	Subject   string
	Shift     string
	Demand    int
	Supply    int
	OpenSlots int
	Excess    int
	Details   string

	// DetailId keys the row's detail fetch. Empty when the row has no
	// detail-link cell. Only valid under the view-state token that
	// produced the row, never across a token rotation.
	DetailId string
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// ParseSummary reads the second grid-role table on the supply/demand
// page. Row order and count are preserved: rows without a detail-link
// cell keep an empty identifier rather than being dropped.
func ParseSummary(doc *goquery.Document) ([]SummaryRow, error) {
	grids := doc.Find("table[role='grid']")
	if grids.Length() < 2 {
		return nil, NavigationError{Step: "extract summary", Missing: "summary grid"}
	}

	var rows []SummaryRow
	grids.Eq(1).Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			// header row
			return
		}

		texts := make([]string, 7)
		cells.Each(func(i int, td *goquery.Selection) {
			if i < 7 {
				texts[i] = htmlutil.CellText(td)
			}
		})

		rows = append(rows, SummaryRow{
			Subject:   texts[0],
			Shift:     texts[1],
			Demand:    atoiOrZero(texts[2]),
			Supply:    atoiOrZero(texts[3]),
			OpenSlots: atoiOrZero(texts[4]),
			Excess:    atoiOrZero(texts[5]),
			Details:   texts[6],
			DetailId:  detailId(cells),
		})
	})
	return rows, nil
}

// detailId finds the row's detail-link identifier: an id is only taken
// from a cell whose markup contains no nested div, preferring the
// cell's own id attribute over a descendant's.
func detailId(cells *goquery.Selection) string {
	id := ""
	cells.EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if td.Find("div").Length() > 0 {
			return true
		}
		if own, ok := td.Attr("id"); ok && own != "" {
			id = own
			return false
		}
		if nested := td.Find("[id]").First().AttrOr("id", ""); nested != "" {
			id = nested
			return false
		}
		return true
	})
	return id
}

// DetailRecord is one professional's record, keyed by the summary-row
// identifier whose fetch produced it. Several records may share one
// identifier.
type DetailRecord struct {
	DetailId string
	Fields   map[string]string
}

type DetailTable struct {
	// column names in first-seen page order
	Columns []string
	Records []DetailRecord
}

const detailNameColumn = "Nome"

// FetchDetails issues one partial-update request per distinct summary
// identifier and parses each returned fragment's table. Records with
// an empty name are discarded, a fragment with no table contributes
// zero rows.
func (c *Client) FetchDetails(ctx context.Context, ids []string) (DetailTable, error) {
	ctx, span := tracer.Start(ctx, "client:FetchDetails")
	defer span.End()
	span.SetAttributes(attribute.Int("id_count", len(ids)))

	out := DetailTable{}
	seenColumn := map[string]bool{}

	for _, id := range ids {
		res, err := c.Http.R().
			SetContext(ctx).
			SetQueryParam("windowId", c.windowId).
			SetHeaders(ajaxHeaders).
			SetFormDataFromValues(detailForm(c.viewState, id)).
			Post(supplyDemandPath)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch detail fragment")
			return DetailTable{}, err
		}

		fragment, err := c.applyPartial(res.Body())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode partial response")
			return DetailTable{}, err
		}

		columns, records, ok := parseDetailTable(fragment)
		if !ok {
			// may be genuinely empty data or a desynchronized view
			// state; surfaced distinctly from a missing school select
			slog.WarnContext(ctx, "detail fragment contained no table", "id", id)
			continue
		}

		for _, col := range columns {
			if !seenColumn[col] {
				seenColumn[col] = true
				out.Columns = append(out.Columns, col)
			}
		}
		for _, fields := range records {
			if strings.TrimSpace(fields[detailNameColumn]) == "" {
				continue
			}
			out.Records = append(out.Records, DetailRecord{
				DetailId: id,
				Fields:   fields,
			})
		}
	}
	return out, nil
}

func parseDetailTable(fragment string) ([]string, []map[string]string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, nil, false
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil, false
	}

	var columns []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		columns = append(columns, htmlutil.CellText(th))
	})
	if len(columns) == 0 {
		return nil, nil, false
	}

	var records []map[string]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		fields := map[string]string{}
		cells.Each(func(i int, td *goquery.Selection) {
			if i < len(columns) {
				fields[columns[i]] = htmlutil.CellText(td)
			}
		})
		records = append(records, fields)
	})
	return columns, records, true
}

// JoinedRow is a summary row with one matched detail record, or with
// zero-filled detail fields when no record matched.
type JoinedRow struct {
	SummaryRow
	Detail map[string]string
}

// Join left-joins the summary rows to the detail records on the
// detail-link identifier. A summary row with several matching records
// yields one joined row per record; a row with none keeps its place
// with every detail column defaulted to zero.
func Join(summary []SummaryRow, details DetailTable) []JoinedRow {
	byId := map[string][]DetailRecord{}
	for _, r := range details.Records {
		byId[r.DetailId] = append(byId[r.DetailId], r)
	}

	var rows []JoinedRow
	for _, s := range summary {
		var matched []DetailRecord
		if s.DetailId != "" {
			matched = byId[s.DetailId]
		}
		if len(matched) == 0 {
			zero := map[string]string{}
			for _, col := range details.Columns {
				zero[col] = "0"
			}
			rows = append(rows, JoinedRow{SummaryRow: s, Detail: zero})
			continue
		}
		for _, d := range matched {
			rows = append(rows, JoinedRow{SummaryRow: s, Detail: d.Fields})
		}
	}
	return rows
}
