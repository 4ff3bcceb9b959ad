// Grafana dashboard rendering for the GreptimeDB tables
package dashboard

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"relaychain-sim/internal/telemetry"
)

//go:embed relaychain-dashboard.json.tmpl
var dashboardTemplate string

// FileName is the name of the rendered dashboard inside the output directory.
const FileName = "relaychain-dashboard.json"

// Tables are the table names the dashboard queries.
type Tables struct {
	StatusTable     string
	LinkTable       string
	DeploymentTable string
}

// DefaultTables returns the names the GreptimeDB writer uses.
func DefaultTables() Tables {
	return Tables{
		StatusTable:     telemetry.StatusRow{}.TableName(),
		LinkTable:       telemetry.LinkRow{}.TableName(),
		DeploymentTable: telemetry.DeploymentRow{}.TableName(),
	}
}

// Render writes the dashboard to outDir. GREPTIMEDB_DATASOURCE_UID must be set.
func Render(outDir string, tables Tables) (string, error) {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	t, err := template.New(FileName).Funcs(funcMap).Parse(dashboardTemplate)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, FileName)
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if err := t.Execute(f, tables); err != nil {
		f.Close()
		return "", err
	}
	return outPath, f.Close()
}
