package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/vango-dev/lessonvars/internal/errors"
)

// Config contains template configuration.
type Config struct {
	// Name is the lesson name written to lessonvars.json.
	Name string

	// Description is a short lesson description.
	Description string

	// Port is the widget host port.
	Port int
}

// Template is a lesson scaffold.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files maps relative paths to text/template sources.
	Files map[string]string
}

var templates = map[string]*Template{
	"sine":  sineTemplate(),
	"wave":  waveTemplate(),
	"blank": blankTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New("E403").
			WithDetail("Template '" + name + "' not found")
	}
	return tmpl, nil
}

// List returns all template names in sorted order.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns the files the template writes, in sorted order.
func (t *Template) Paths() []string {
	paths := make([]string, 0, len(t.Files))
	for p := range t.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Create writes the template into dir. It refuses to overwrite any existing
// file and writes nothing in that case.
func (t *Template) Create(dir string, cfg Config) error {
	rendered := make(map[string][]byte, len(t.Files))
	for _, relPath := range t.Paths() {
		fullPath := filepath.Join(dir, relPath)
		if _, err := os.Stat(fullPath); err == nil {
			return errors.New("E403").
				WithDetail(relPath + " already exists in " + dir).
				WithSuggestion("Choose an empty directory or remove " + relPath)
		}

		tmpl, err := template.New(relPath).Parse(t.Files[relPath])
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid template %s: %v", relPath, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "template execute error %s: %v", relPath, err)
		}
		rendered[fullPath] = buf.Bytes()
	}

	for fullPath, data := range rendered {
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(fullPath, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

const configFile = `{
  "name": "{{.Name}}",
  "server": {
    "port": {{.Port}}
  },
  "variables": {
    "source": "variables.yaml"
  },
  "dev": {
    "enabled": true,
    "watch": true
  },
  "metrics": {
    "enabled": false
  }
}
`

func sineTemplate() *Template {
	return &Template{
		Name:        "sine",
		Description: "The unit-circle sine lesson with one angle variable",
		Files: map[string]string{
			"lessonvars.json": configFile,
			"variables.yaml": `# {{.Description}}
variables:
  sineAngle:
    default: 45
    label: Angle
    description: Angle θ in degrees
    kind: number
    unit: "°"
    min: 0
    max: 360
    step: 5
`,
		},
	}
}

func waveTemplate() *Template {
	return &Template{
		Name:        "wave",
		Description: "A waveform explorer with amplitude, frequency and shape",
		Files: map[string]string{
			"lessonvars.json": configFile,
			"variables.yaml": `# {{.Description}}
variables:
  amplitude:
    default: 1
    label: Amplitude
    kind: number
    min: 0
    max: 5
    step: 0.5
  frequency:
    default: 440
    label: Frequency
    kind: number
    unit: Hz
    min: 20
    max: 2000
    step: 10
  waveform:
    default: sine
    label: Shape
    kind: select
    options: [sine, square, triangle, sawtooth]
  showGrid:
    default: true
    label: Grid
`,
		},
	}
}

func blankTemplate() *Template {
	return &Template{
		Name:        "blank",
		Description: "An empty declaration file",
		Files: map[string]string{
			"lessonvars.json": configFile,
			"variables.yaml": `# {{.Description}}
#
# Declare one entry per shared variable, for example:
#
#   speed:
#     default: 10
#     kind: number
#     min: 0
#     max: 100
variables: {}
`,
		},
	}
}
