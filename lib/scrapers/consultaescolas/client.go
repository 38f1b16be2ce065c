// Package consultaescolas scrapes the Paraná state school portal, a
// JSF/PrimeFaces application whose pages are only reachable through a
// fixed sequence of stateful requests carrying server-issued tokens.
package consultaescolas

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http/cookiejar"
	"strings"
	"time"

	"consultaescolas-backend/lib/htmlutil"
	"consultaescolas-backend/lib/telemetry"
	"consultaescolas-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/consultaescolas")

const (
	initialPath       = "/consultaescolas-java/pages/templates/initial2.jsf"
	professionalsPath = "/consultaescolas-java/pages/paginas/profissionais/profissionaisEstabelecimento.jsf"
	supplyDemandPath  = "/consultaescolas-java/pages/paginas/profissionais/demandaSuprimentosEstabelecimento.jsf"
)

const (
	citySelectSelector = "select[id='initial:j_idt97:municipio_input']"
	viewStateSelector  = "input[id='j_id1:javax.faces.ViewState:0']"
	viewStateUpdateId  = "j_id1:javax.faces.ViewState:0"
)

// Client holds one logical portal session. The view-state token is a
// single mutable thread of execution: it only has meaning in the exact
// order the server issued it, so a Client must never be shared by
// concurrent scrapes. Parallel runs need independently opened clients.
type Client struct {
	Http *resty.Client

	// fixed for the lifetime of the session once Open extracts it
	windowId string
	// most recently observed view-state token, rotated by the server
	// on most round trips
	viewState string
}

type ClientOptions struct {
	BaseUrl string
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9,pt-BR;q=0.8,pt;q=0.7")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/consultaescolas/http")

	return &Client{Http: client}, nil
}

func (c *Client) WindowId() string {
	return c.windowId
}

// captureViewState reads the view-state token off a full page. Every
// navigation response must refresh it before the next request.
func (c *Client) captureViewState(doc *goquery.Document) bool {
	value, ok := htmlutil.InputValue(doc, viewStateSelector)
	if !ok {
		return false
	}
	c.viewState = value
	return true
}

// CityCodes maps normalized municipality keys to the portal's opaque
// city codes. Built once per run from the initial page.
type CityCodes map[string]string

func (c CityCodes) Resolve(cityKey string) (string, error) {
	code, ok := c[cityKey]
	if !ok {
		return "", LookupError{Kind: "city", Name: cityKey}
	}
	return code, nil
}

func (c CityCodes) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Open performs the initial request: it extracts the window id that
// every later request must echo, the first view-state token and the
// city code map. A ProtocolError here is fatal to the run since no
// session can be established without it.
func (c *Client) Open(ctx context.Context) (CityCodes, error) {
	ctx, span := tracer.Start(ctx, "client:Open")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(initialPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch initial page")
		return nil, err
	}

	windowId, ok := extractWindowId(res.String())
	if !ok {
		err := ProtocolError{Missing: "windowId"}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	c.windowId = windowId
	slog.InfoContext(ctx, "session established", "window_id", windowId)

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	options := doc.Find(citySelectSelector + " option")
	if options.Length() == 0 {
		err := ProtocolError{Missing: "city select"}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	cities := CityCodes{}
	options.Each(func(_ int, option *goquery.Selection) {
		code, ok := option.Attr("value")
		if !ok {
			return
		}
		cities[textutil.NormalizeName(option.Text())] = code
	})

	if !c.captureViewState(doc) {
		err := ProtocolError{Missing: "view state input"}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return cities, nil
}

// SchoolOption is one entry of the portal's school list for a city.
type SchoolOption struct {
	Label string
	Code  string
	Key   string
}

// SchoolOptions fetches the school list for a city through the
// city-change partial update. A missing select in the fragment is
// reported as a NavigationError so callers can tell it apart from a
// city that genuinely has zero matching schools.
func (c *Client) SchoolOptions(ctx context.Context, cityCode string) ([]SchoolOption, error) {
	ctx, span := tracer.Start(ctx, "client:SchoolOptions")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("windowId", c.windowId).
		SetHeaders(ajaxHeaders).
		SetFormDataFromValues(selectCityForm(c.viewState, cityCode)).
		Post(initialPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch school options")
		return nil, err
	}

	fragment, err := c.applyPartial(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode partial response")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse fragment html")
		return nil, err
	}

	sel := doc.Find("select").First()
	if sel.Length() == 0 {
		err := NavigationError{Step: "resolve schools", Missing: "school select"}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var options []SchoolOption
	sel.Find("option").Each(func(_ int, option *goquery.Selection) {
		code, ok := option.Attr("value")
		if !ok {
			return
		}
		label := option.Text()
		options = append(options, SchoolOption{
			Label: label,
			Code:  code,
			Key:   textutil.NormalizeName(label),
		})
	})
	return options, nil
}

func extractWindowId(body string) (string, bool) {
	_, rest, found := strings.Cut(body, "windowId=")
	if !found {
		return "", false
	}
	id, _, _ := strings.Cut(rest, `"`)
	if id == "" {
		return "", false
	}
	return id, true
}

type partialUpdate struct {
	Id      string
	Content string
}

// decodePartial unwraps a JSF <partial-response> envelope into its
// <update> fragments. Fragment markup arrives as CDATA.
func decodePartial(body []byte) ([]partialUpdate, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var updates []partialUpdate
	var current *partialUpdate
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "update" {
				continue
			}
			current = &partialUpdate{}
			for _, attr := range t.Attr {
				if attr.Name.Local == "id" {
					current.Id = attr.Value
				}
			}
		case xml.CharData:
			if current != nil {
				current.Content += string(t)
			}
		case xml.EndElement:
			if t.Name.Local == "update" && current != nil {
				updates = append(updates, *current)
				current = nil
			}
		}
	}
	return updates, nil
}

// applyPartial captures a rotated view-state token when the partial
// carries one and returns the remaining fragment markup.
func (c *Client) applyPartial(body []byte) (string, error) {
	updates, err := decodePartial(body)
	if err != nil {
		return "", err
	}

	fragment := strings.Builder{}
	for _, u := range updates {
		if u.Id == viewStateUpdateId {
			c.viewState = u.Content
			continue
		}
		fragment.WriteString(u.Content)
	}
	return fragment.String(), nil
}
