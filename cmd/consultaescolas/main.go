package main

import (
	"consultaescolas-backend/lib/catalog"
	"consultaescolas-backend/lib/configutil"
	"consultaescolas-backend/lib/scrapers/consultaescolas"
	"consultaescolas-backend/lib/serviceutil"
	"consultaescolas-backend/lib/telemetry"
	"consultaescolas-backend/services/export"
)

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[export.Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to load configuration", err)
	}

	tel, err := telemetry.SetupFromEnv(ctx, "consultaescolas")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(ctx)

	cat, err := catalog.Load(config.InputXlsx, config.Columns)
	if err != nil {
		serviceutil.Fatal("failed to load school catalog", err)
	}

	client, err := consultaescolas.NewClient(consultaescolas.ClientOptions{
		BaseUrl: config.BaseUrl,
	})
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}

	err = export.NewService(client, cat, config.OutputCsv).Run(ctx)
	if err != nil {
		serviceutil.Fatal("run failed", err)
	}
}
