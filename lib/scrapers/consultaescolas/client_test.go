package consultaescolas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"consultaescolas-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func initialPage(windowId, viewState string, cities map[string]string) string {
	options := ""
	for name, code := range cities {
		options += fmt.Sprintf(`<option value="%s">%s</option>`, code, name)
	}
	return fmt.Sprintf(`<html><head>
<script>var pageUrl = "/consultaescolas-java/pages/templates/initial2.jsf?windowId=%s";</script>
</head><body>
<form id="initial">
<select id="initial:j_idt97:municipio_input">
<option>Selecione...</option>
%s
</select>
<input type="hidden" id="j_id1:javax.faces.ViewState:0" name="javax.faces.ViewState" value="%s" />
</form>
</body></html>`, windowId, options, viewState)
}

func schoolOptionsPartial(viewState string, schools map[string]string) string {
	options := ""
	for name, code := range schools {
		options += fmt.Sprintf(`<option value="%s">%s</option>`, code, name)
	}
	return fmt.Sprintf(`<?xml version='1.0' encoding='UTF-8'?>
<partial-response><changes>`+
		`<update id="initial:j_idt97:escola"><![CDATA[<select id="initial:j_idt97:escola_input"><option>Selecione...</option>%s</select>]]></update>`+
		`<update id="j_id1:javax.faces.ViewState:0"><![CDATA[%s]]></update>`+
		`</changes></partial-response>`, options, viewState)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	return client
}

func TestOpen(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/consultaescolas")
	defer cleanup()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, initialPath, r.URL.Path)
		fmt.Fprint(w, initialPage("3ea", "vs-0", map[string]string{
			"Curitiba": "100",
			"Londrina": "200",
		}))
	}))

	cities, err := client.Open(context.Background())
	require.NoError(t, err)

	require.Equal(t, "3ea", client.WindowId())
	require.Equal(t, "vs-0", client.viewState)
	require.Equal(t, CityCodes{
		"curitiba": "100",
		"londrina": "200",
	}, cities)
}

func TestOpenMissingWindowId(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no session marker here</body></html>`)
	}))

	_, err := client.Open(context.Background())

	var protoErr ProtocolError
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, "windowId", protoErr.Missing)
}

func TestCityResolution(t *testing.T) {
	cities := CityCodes{
		"curitiba": "100",
		"londrina": "200",
	}

	_, err := cities.Resolve("foz")
	var lookupErr LookupError
	require.ErrorAs(t, err, &lookupErr)
	require.Equal(t, "city", lookupErr.Kind)

	// a failed lookup must not poison later ones
	code, err := cities.Resolve("curitiba")
	require.NoError(t, err)
	require.Equal(t, "100", code)
}

func TestSchoolOptions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "partial/ajax", r.Header.Get("Faces-Request"))
		require.Equal(t, "3ea", r.URL.Query().Get("windowId"))

		require.NoError(t, r.ParseForm())
		require.Equal(t, "100", r.PostForm.Get("initial:j_idt97:municipio_input"))
		require.Equal(t, "vs-0", r.PostForm.Get("javax.faces.ViewState"))

		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, schoolOptionsPartial("vs-1", map[string]string{
			"C.E. São José": "9",
		}))
	}))
	client.windowId = "3ea"
	client.viewState = "vs-0"

	options, err := client.SchoolOptions(context.Background(), "100")
	require.NoError(t, err)

	require.Len(t, options, 1)
	require.Equal(t, SchoolOption{
		Label: "C.E. São José",
		Code:  "9",
		Key:   "cesaojose",
	}, options[0])

	// the partial's rotated token becomes current
	require.Equal(t, "vs-1", client.viewState)
}

func TestSchoolOptionsMissingSelect(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version='1.0' encoding='UTF-8'?><partial-response><changes></changes></partial-response>`)
	}))
	client.windowId = "3ea"
	client.viewState = "vs-0"

	_, err := client.SchoolOptions(context.Background(), "100")

	var navErr NavigationError
	require.True(t, errors.As(err, &navErr))
	require.Equal(t, "school select", navErr.Missing)
}

func TestDecodePartial(t *testing.T) {
	updates, err := decodePartial([]byte(
		`<?xml version='1.0' encoding='UTF-8'?>` +
			`<partial-response><changes>` +
			`<update id="a"><![CDATA[<p>one</p>]]></update>` +
			`<update id="b"><![CDATA[two]]></update>` +
			`</changes></partial-response>`,
	))
	require.NoError(t, err)
	require.Equal(t, []partialUpdate{
		{Id: "a", Content: "<p>one</p>"},
		{Id: "b", Content: "two"},
	}, updates)
}
