package provision

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Templates holds the namespace-creation DDL. Statements are Go text
// templates over ddlData; the schema value is only ever a validated tenant
// key, which is what makes identifier-position interpolation safe here.
type Templates struct {
	CreateSchema string   `yaml:"create_schema"`
	CreateRole   string   `yaml:"create_role"`
	Grants       []string `yaml:"grants"`
}

type ddlData struct {
	Schema   string
	Password string
}

// DefaultTemplates creates one schema per tenant plus a least-privilege role
// scoped to it. The role can use and create objects in its own schema and
// nothing else.
func DefaultTemplates() Templates {
	return Templates{
		CreateSchema: `CREATE SCHEMA {{.Schema}}`,
		CreateRole:   `CREATE ROLE {{.Schema}} WITH LOGIN ENCRYPTED PASSWORD '{{.Password}}'`,
		Grants: []string{
			`GRANT USAGE, CREATE ON SCHEMA {{.Schema}} TO {{.Schema}}`,
			`ALTER ROLE {{.Schema}} SET search_path TO {{.Schema}}`,
		},
	}
}

// LoadTemplates reads DDL template overrides from a YAML file. Empty fields
// fall back to the defaults, so a file may override a single statement.
func LoadTemplates(path string) (Templates, error) {
	t := DefaultTemplates()

	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read ddl templates: %w", err)
	}

	var overrides Templates
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return t, fmt.Errorf("parse ddl templates: %w", err)
	}

	if overrides.CreateSchema != "" {
		t.CreateSchema = overrides.CreateSchema
	}
	if overrides.CreateRole != "" {
		t.CreateRole = overrides.CreateRole
	}
	if len(overrides.Grants) > 0 {
		t.Grants = overrides.Grants
	}
	return t, nil
}

// statements renders every DDL statement for the given schema, in execution
// order. The password is quoted for literal position; the schema is assumed
// pre-validated.
func (t Templates) statements(schema, password string) ([]string, error) {
	data := ddlData{
		Schema:   schema,
		Password: strings.ReplaceAll(password, "'", "''"),
	}

	raw := append([]string{t.CreateSchema, t.CreateRole}, t.Grants...)
	stmts := make([]string, 0, len(raw))
	for _, s := range raw {
		tmpl, err := template.New("ddl").Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse ddl template %q: %w", s, err)
		}
		var b strings.Builder
		if err := tmpl.Execute(&b, data); err != nil {
			return nil, fmt.Errorf("render ddl template %q: %w", s, err)
		}
		stmts = append(stmts, b.String())
	}
	return stmts, nil
}
