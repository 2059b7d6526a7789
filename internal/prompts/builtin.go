package prompts

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// embeds all .yaml files in the templates folder into Go program at compile time
//
//go:embed templates/*.yaml
var templateFS embed.FS

// builtinTemplate is one default prompt shipped with the binary
type builtinTemplate struct {
	Stage       Stage  `yaml:"stage"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// loadBuiltins parses every embedded template and checks that each stage has exactly one
// that renders against its sample context
func loadBuiltins() (map[Stage]string, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	builtins := make(map[Stage]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		var tpl builtinTemplate
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}
		stage, err := ParseStage(string(tpl.Stage))
		if err != nil {
			return nil, fmt.Errorf("template file %s: %w", entry.Name(), err)
		}
		if _, dup := builtins[stage]; dup {
			return nil, fmt.Errorf("duplicate builtin template for stage %s", stage)
		}
		if err := Validate(stage, tpl.Template); err != nil {
			return nil, fmt.Errorf("template file %s: %w", entry.Name(), err)
		}
		builtins[stage] = tpl.Template
	}

	for _, stage := range Stages() {
		if _, ok := builtins[stage]; !ok {
			return nil, fmt.Errorf("missing builtin template for stage %s", stage)
		}
	}
	return builtins, nil
}
