package templates

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := writeCatalog(t, `
templates:
  - id: frontend-junior
    role: Frontend Developer
    type: Technical
    level: Junior
    techstack: [HTML, CSS]
    description: Basics
    questions:
      - What is the box model?
      - Explain flexbox.
  - id: behavioral
    role: Any Role
    type: Behavioral
    level: Mid-level
    questions:
      - Tell me about a conflict you resolved.
`)

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	all := cat.All()
	if len(all) != 2 {
		t.Fatalf("All = %d templates", len(all))
	}
	if all[0].ID != "frontend-junior" || all[1].ID != "behavioral" {
		t.Fatalf("order = %q, %q", all[0].ID, all[1].ID)
	}

	tmpl, ok := cat.Get("frontend-junior")
	if !ok {
		t.Fatal("Get miss")
	}
	if tmpl.Role != "Frontend Developer" || len(tmpl.Questions) != 2 {
		t.Fatalf("template = %+v", tmpl)
	}
	if len(tmpl.TechStack) != 2 || tmpl.TechStack[0] != "HTML" {
		t.Fatalf("techstack = %v", tmpl.TechStack)
	}

	if _, ok := cat.Get("nope"); ok {
		t.Fatal("unexpected hit")
	}
}

func TestLoadCatalogRejectsBadData(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing file": filepath.Join(t.TempDir(), "nope.yaml"),
		"empty catalog": writeCatalog(t, `
templates: []
`),
		"duplicate id": writeCatalog(t, `
templates:
  - id: a
    role: R
    type: Technical
    questions: [q1]
  - id: a
    role: R
    type: Technical
    questions: [q2]
`),
		"no questions": writeCatalog(t, `
templates:
  - id: a
    role: R
    type: Technical
    questions: []
`),
		"missing id": writeCatalog(t, `
templates:
  - role: R
    type: Technical
    questions: [q1]
`),
	}

	for name, path := range cases {
		name, path := name, path
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
