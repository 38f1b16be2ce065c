package consultaescolas

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Report is one school's joined supply/demand data.
type Report struct {
	City          string
	School        string
	DetailColumns []string
	Rows          []JoinedRow
}

// ScrapeSchool navigates to a school's supply/demand page, extracts
// the summary grid, fetches the detail fragment for every distinct
// identifier under the same view-state pass, and joins the two.
func (c *Client) ScrapeSchool(ctx context.Context, city, school, cityCode, schoolCode string) (Report, error) {
	ctx, span := tracer.Start(ctx, "client:ScrapeSchool")
	defer span.End()
	span.SetAttributes(
		attribute.String("city", city),
		attribute.String("school", school),
	)

	slog.InfoContext(
		ctx, "extracting school",
		"city", city,
		"school", school,
		"city_code", cityCode,
		"school_code", schoolCode,
	)

	doc, err := c.OpenSupplyDemand(ctx, cityCode, schoolCode)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}

	summary, err := ParseSummary(doc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}

	// identifiers are only meaningful under the token that produced
	// the summary, so details are fetched before any new navigation
	var ids []string
	seen := map[string]bool{}
	for _, row := range summary {
		if row.DetailId == "" || seen[row.DetailId] {
			continue
		}
		seen[row.DetailId] = true
		ids = append(ids, row.DetailId)
	}

	details, err := c.FetchDetails(ctx, ids)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}

	return Report{
		City:          city,
		School:        school,
		DetailColumns: details.Columns,
		Rows:          Join(summary, details),
	}, nil
}
