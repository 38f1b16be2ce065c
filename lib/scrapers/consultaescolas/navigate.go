package consultaescolas

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// OpenSupplyDemand walks the fixed per-school sequence:
//
//	enter school view -> press professionals button ->
//	professionals page -> press supply/demand button ->
//	supply/demand page
//
// The portal's page model requires each prior view to have been
// entered before the next is reachable, so the steps are strictly
// ordered with no branching back. Every full-page response rotates the
// view-state token, which is captured before the next request.
func (c *Client) OpenSupplyDemand(ctx context.Context, cityCode, schoolCode string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:OpenSupplyDemand")
	defer span.End()
	span.SetAttributes(
		attribute.String("city_code", cityCode),
		attribute.String("school_code", schoolCode),
	)

	// entering the school's own view rotates the token needed by the
	// marker-selection post
	_, err := c.getPage(ctx, initialPath, url.Values{
		"codigoMunicipio": {cityCode},
		"codigoEstab":     {schoolCode},
	}, "select school")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	err = c.postForm(ctx, initialPath, selectSchoolForm(c.viewState, schoolCode))
	if err != nil {
		span.SetStatus(codes.Error, "failed to select school")
		return nil, err
	}

	// the post answers with a redirect page; the confirmation fetch
	// lands on the professionals view and carries the next token
	_, err = c.getPage(ctx, professionalsPath, nil, "professionals page")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	err = c.postForm(ctx, professionalsPath, openSupplyDemandForm(c.viewState))
	if err != nil {
		span.SetStatus(codes.Error, "failed to open supply/demand view")
		return nil, err
	}

	doc, err := c.getPage(ctx, supplyDemandPath, nil, "supply/demand page")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return doc, nil
}

func (c *Client) getPage(ctx context.Context, path string, query url.Values, step string) (*goquery.Document, error) {
	req := c.Http.R().
		SetContext(ctx).
		SetQueryParam("windowId", c.windowId)
	for name := range query {
		req.SetQueryParam(name, query.Get(name))
	}

	res, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, err
	}
	if !c.captureViewState(doc) {
		return nil, NavigationError{Step: step, Missing: "view state input"}
	}
	return doc, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	_, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("windowId", c.windowId).
		SetFormDataFromValues(form).
		Post(path)
	return err
}
