package consultaescolas

import "net/url"

// The portal's component framework rejects posts that do not echo its
// full component tree, so every navigation step carries a fixed set of
// opaque form fields. Each step is declared here as a template taking
// only the values that actually vary (the current view state and the
// target codes), isolating churn when the portal's markup changes.

// ajaxHeaders marks a request as a partial update. Accept,
// Content-Type and Faces-Request must match what the partial-update
// handler expects or the server answers with a full page instead.
var ajaxHeaders = map[string]string{
	"Accept":           "application/xml, text/xml, */*; q=0.01",
	"Content-Type":     "application/x-www-form-urlencoded; charset=UTF-8",
	"Faces-Request":    "partial/ajax",
	"X-Requested-With": "XMLHttpRequest",
}

// selectCityForm asks the initial page to re-render its school list
// for one city. redeEnsino 3 restricts options to the state network.
func selectCityForm(viewState, cityCode string) url.Values {
	return url.Values{
		"javax.faces.partial.ajax":         {"true"},
		"javax.faces.source":               {"initial:j_idt97:municipio"},
		"javax.faces.partial.execute":      {"initial:j_idt97:municipio"},
		"javax.faces.partial.render":       {"initial:j_idt97:escola"},
		"javax.faces.behavior.event":       {"change"},
		"javax.faces.partial.event":        {"change"},
		"initial":                          {"initial"},
		"javax.faces.ViewState":            {viewState},
		"initial:j_idt97:nucleo_focus":     {""},
		"initial:j_idt97:nucleo_input":     {"Selecione..."},
		"initial:j_idt97:municipio_focus":  {""},
		"initial:j_idt97:municipio_input":  {cityCode},
		"initial:j_idt97:redeEnsino_focus": {""},
		"initial:j_idt97:redeEnsino_input": {"3"},
		"initial:j_idt97:escola_focus":     {""},
		"initial:j_idt97:escola_input":     {"Selecione..."},
		"initial:j_idt97:j_idt99_collapsed": {"false"},
		"initial:mapa_collapsed":            {"true"},
		"initial:info_collapsed":            {"false"},
		"initial:j_idt416_selection":        {""},
		"initial:j_idt414_collapsed":        {"false"},
		"initial:j_idt427_selection":        {""},
		"initial:j_idt425_collapsed":        {"false"},
		"initial:j_idt424_collapsed":        {"false"},
		"initial:j_idt505_collapsed":        {"false"},
	}
}

// selectSchoolForm presses the school marker's professionals button on
// the initial page after the school's own view has been entered.
func selectSchoolForm(viewState, schoolCode string) url.Values {
	return url.Values{
		"initial":                          {"initial"},
		"javax.faces.ViewState":            {viewState},
		"initial:j_idt97:nucleo_focus":     {""},
		"initial:j_idt97:nucleo_input":     {"Selecione..."},
		"initial:j_idt97:municipio_focus":  {""},
		"initial:j_idt97:municipio_input":  {"Selecione..."},
		"initial:j_idt97:redeEnsino_focus": {""},
		"initial:j_idt97:redeEnsino_input": {"2"},
		"initial:j_idt97:escola_focus":     {""},
		"initial:j_idt97:escola_input":     {"Selecione..."},
		"initial:j_idt97:j_idt99_collapsed": {"false"},
		"initial:j_idt167_collapsed":        {"false"},
		"initial:listaMapa":                 {""},
		"initial:markerSelecionado":         {schoolCode},
		"initial:mapa_collapsed":            {"true"},
		"initial:info_collapsed":            {"false"},
		"initial:j_idt484_selection":        {""},
		"initial:j_idt482_collapsed":        {"false"},
		"initial:j_idt495:1:j_idt497_selection": {""},
		"initial:j_idt495:1:j_idt496_collapsed": {"false"},
		"initial:j_idt495:2:j_idt497_selection": {""},
		"initial:j_idt495:2:j_idt496_collapsed": {"false"},
		"initial:j_idt495:3:j_idt497_selection": {""},
		"initial:j_idt495:3:j_idt496_collapsed": {"false"},
		"initial:j_idt495:4:j_idt497_selection": {""},
		"initial:j_idt495:4:j_idt496_collapsed": {"false"},
		"initial:j_idt493_collapsed":            {"false"},
		"initial:j_idt505_collapsed":            {"false"},
		"initial:j_idt366":                      {"initial:j_idt366"},
	}
}

// openSupplyDemandForm presses the supply/demand button on the
// professionals page.
func openSupplyDemandForm(viewState string) url.Values {
	return url.Values{
		"merendaForm":                          {"merendaForm"},
		"javax.faces.ViewState":                {viewState},
		"merendaForm:j_idt78:nucleo_focus":     {""},
		"merendaForm:j_idt78:nucleo_input":     {"Selecione..."},
		"merendaForm:j_idt78:municipio_focus":  {""},
		"merendaForm:j_idt78:municipio_input":  {"Selecione..."},
		"merendaForm:j_idt78:redeEnsino_focus": {""},
		"merendaForm:j_idt78:redeEnsino_input": {""},
		"merendaForm:j_idt78:escola_focus":     {""},
		"merendaForm:j_idt78:escola_input":     {"Selecione..."},
		"merendaForm:j_idt78:j_idt80_collapsed": {"false"},
		"merendaForm:j_idt160_selection":        {""},
		"merendaForm:j_idt158_collapsed":        {"false"},
		"merendaForm:j_idt113":                  {"merendaForm:j_idt113"},
	}
}

// detailForm asks the supply/demand page to re-render the detail grid
// for one summary-row identifier. The identifier doubles as the event
// source and as its own trigger field.
func detailForm(viewState, id string) url.Values {
	return url.Values{
		"javax.faces.partial.ajax":    {"true"},
		"javax.faces.source":          {id},
		"primefaces.ignoreautoupdate": {"true"},
		"javax.faces.partial.execute": {"@all"},
		"javax.faces.partial.render":  {"formDemanda:gradeConsultaDetalhe"},
		id:                            {id},
		"formDemanda":                 {"formDemanda"},
		"javax.faces.ViewState":       {viewState},
		"formDemanda:j_idt71:nucleo_focus":     {""},
		"formDemanda:j_idt71:nucleo_input":     {"Selecione..."},
		"formDemanda:j_idt71:municipio_focus":  {""},
		"formDemanda:j_idt71:municipio_input":  {"Selecione..."},
		"formDemanda:j_idt71:redeEnsino_focus": {""},
		"formDemanda:j_idt71:redeEnsino_input": {""},
		"formDemanda:j_idt71:escola_focus":     {""},
		"formDemanda:j_idt71:escola_input":     {"Selecione..."},
		"formDemanda:j_idt71:j_idt73_collapsed": {"false"},
		"formDemanda:j_idt106_collapsed":        {"false"},
		"formDemanda:gradeConsultaDetalhe_collapsed": {"false"},
	}
}
