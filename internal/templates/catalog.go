package templates

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/prepvoice/prepvoice/internal/models"
)

// Catalog holds the pre-made interview templates. Loaded once at startup,
// read-only afterwards.
type Catalog struct {
	list []models.InterviewTemplate
	byID map[string]models.InterviewTemplate
}

// Load reads the template catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load templates from %s: %w", path, err)
	}

	var list []models.InterviewTemplate
	if err := k.UnmarshalWithConf("templates", &list, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("invalid template catalog: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("template catalog %s contains no templates", path)
	}

	byID := make(map[string]models.InterviewTemplate, len(list))
	for _, t := range list {
		if t.ID == "" {
			return nil, fmt.Errorf("template catalog %s contains a template without an id", path)
		}
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		if len(t.Questions) == 0 {
			return nil, fmt.Errorf("template %q has no questions", t.ID)
		}
		byID[t.ID] = t
	}

	return &Catalog{list: list, byID: byID}, nil
}

// All returns the templates in file order.
func (c *Catalog) All() []models.InterviewTemplate {
	out := make([]models.InterviewTemplate, len(c.list))
	copy(out, c.list)
	return out
}

func (c *Catalog) Get(id string) (models.InterviewTemplate, bool) {
	t, ok := c.byID[id]
	return t, ok
}
