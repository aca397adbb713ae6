// Package templates provides lesson scaffolding templates.
//
// Each template writes a lessonvars.json and a variables.yaml that
// lessonvars serve can load as they are.
//
// # Available Templates
//
//   - sine: the unit-circle lesson with a single angle
//   - wave: a waveform explorer with several kinds of variable
//   - blank: an empty declaration file
//
// # Usage
//
//	tmpl, err := templates.Get("sine")
//	if err != nil {
//	    return err
//	}
//	if err := tmpl.Create(dir, templates.Config{Name: "trig-101", Port: 4000}); err != nil {
//	    return err
//	}
//
// # Template Variables
//
//	{{.Name}}          - Lesson name
//	{{.Description}}   - Lesson description
//	{{.Port}}          - Widget host port
package templates
