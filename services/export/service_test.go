package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"consultaescolas-backend/lib/catalog"
	"consultaescolas-backend/lib/scrapers/consultaescolas"
	"consultaescolas-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const (
	initialPath       = "/consultaescolas-java/pages/templates/initial2.jsf"
	professionalsPath = "/consultaescolas-java/pages/paginas/profissionais/profissionaisEstabelecimento.jsf"
	supplyDemandPath  = "/consultaescolas-java/pages/paginas/profissionais/demandaSuprimentosEstabelecimento.jsf"
)

func jsfPage(viewState, body string) string {
	return fmt.Sprintf(`<html><body>
<input type="hidden" id="j_id1:javax.faces.ViewState:0" name="javax.faces.ViewState" value="%s" />
%s
</body></html>`, viewState, body)
}

const initialBody = `
<script>var pageUrl = "/consultaescolas-java/pages/templates/initial2.jsf?windowId=3ea";</script>
<select id="initial:j_idt97:municipio_input">
<option>Selecione...</option>
<option value="100">Curitiba</option>
</select>`

const summaryBody = `
<table role="grid"><tr><td>filter panel</td></tr></table>
<table role="grid">
<thead><tr><th>Disciplina - Função</th><th>Turno</th><th>Demanda</th><th>Suprimento</th><th>Vagas</th><th>Excessos</th><th>Detalhes</th></tr></thead>
<tbody>
<tr><td><div>Matemática</div></td><td><div>Manhã</div></td><td><div>40</div></td><td><div>38</div></td><td><div>2</div></td><td><div>0</div></td><td id="A"><button></button></td></tr>
<tr><td><div>Português</div></td><td><div>Tarde</div></td><td><div>20</div></td><td><div>21</div></td><td><div>0</div></td><td><div>1</div></td><td id="B"><button></button></td></tr>
</tbody>
</table>`

func detailPartial(name string) string {
	return fmt.Sprintf(`<?xml version='1.0' encoding='UTF-8'?>
<partial-response><changes>`+
		`<update id="formDemanda:gradeConsultaDetalhe"><![CDATA[<table><thead><tr><th>Nome</th><th>Cargo</th></tr></thead><tbody><tr><td>%s</td><td>Professor</td></tr></tbody></table>]]></update>`+
		`</changes></partial-response>`, name)
}

func newPortalFixture(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(initialPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if r.URL.Query().Get("codigoEstab") != "" {
				fmt.Fprint(w, jsfPage("vs-2", ""))
				return
			}
			fmt.Fprint(w, jsfPage("vs-0", initialBody))
			return
		}
		if r.Header.Get("Faces-Request") == "partial/ajax" {
			w.Header().Set("Content-Type", "text/xml")
			fmt.Fprint(w, `<?xml version='1.0' encoding='UTF-8'?>`+
				`<partial-response><changes>`+
				`<update id="initial:j_idt97:escola"><![CDATA[<select id="initial:j_idt97:escola_input"><option>Selecione...</option><option value="9">C.E. Tiradentes</option></select>]]></update>`+
				`<update id="j_id1:javax.faces.ViewState:0"><![CDATA[vs-1]]></update>`+
				`</changes></partial-response>`)
			return
		}
		fmt.Fprint(w, `<html><body>redirecting</body></html>`)
	})
	mux.HandleFunc(professionalsPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, jsfPage("vs-3", ""))
			return
		}
		fmt.Fprint(w, `<html><body>redirecting</body></html>`)
	})
	mux.HandleFunc(supplyDemandPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, jsfPage("vs-4", summaryBody))
			return
		}
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "text/xml")
		switch r.PostForm.Get("javax.faces.source") {
		case "A":
			fmt.Fprint(w, detailPartial("Ana"))
		case "B":
			fmt.Fprint(w, detailPartial("Bruno"))
		default:
			t.Errorf("detail request for unknown id %q", r.PostForm.Get("javax.faces.source"))
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRun(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/export")
	defer cleanup()

	server := newPortalFixture(t)

	cat, err := catalog.FromRows([][]string{
		{"mun2", "Estabelecimento_scrapping"},
		{"Curitiba", "C.E. Tiradentes"},
		// resolvable city, school the portal does not list: skipped
		{"Curitiba", "C.E. Inexistente"},
		// city with no code on the portal: skipped
		{"Foz do Iguaçu", "C.E. Tiradentes"},
	}, catalog.Columns{})
	require.NoError(t, err)

	client, err := consultaescolas.NewClient(consultaescolas.ClientOptions{
		BaseUrl: server.URL,
	})
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "escolas.csv")
	err = NewService(client, cat, output).Run(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	require.Equal(t, []string{
		"Disciplina - Função", "Turno", "Demanda", "Suprimento",
		"Vagas", "Excessos", "Detalhes", "ids",
		"Nome", "Cargo", "municipio", "escola",
	}, header)

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %q", name)
		return -1
	}

	for _, row := range records[1:] {
		require.Equal(t, "curitiba", row[col("municipio")])
		require.Equal(t, "C.E. Tiradentes", row[col("escola")])
		for _, numeric := range []string{"Demanda", "Suprimento", "Vagas", "Excessos"} {
			require.NotEmpty(t, row[col(numeric)])
		}
	}

	require.Equal(t, "Ana", records[1][col("Nome")])
	require.Equal(t, "A", records[1][col("ids")])
	require.Equal(t, "Bruno", records[2][col("Nome")])
	require.Equal(t, "40", records[1][col("Demanda")])
}
