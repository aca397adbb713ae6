package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lessonvars/internal/config"
	"github.com/vango-dev/lessonvars/internal/templates"
)

func initCmd() *cobra.Command {
	var (
		template    string
		name        string
		description string
		port        int
		list        bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a lesson",
		Long: `Write a lessonvars.json and a variables.yaml for a new lesson.

Templates:
  sine    The unit-circle lesson with one angle variable (default)
  wave    A waveform explorer with amplitude, frequency and shape
  blank   An empty declaration file

Examples:
  lessonvars init
  lessonvars init trig-101 --template=wave`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if list {
				for _, n := range templates.List() {
					tmpl, _ := templates.Get(n)
					info(w, "%-6s %s", n, tmpl.Description)
				}
				return nil
			}

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(w, dir, template, templates.Config{
				Name:        name,
				Description: description,
				Port:        port,
			})
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "sine", "Lesson template (sine, wave, blank)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Lesson name (default: directory name)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Lesson description")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Widget host port")
	cmd.Flags().BoolVar(&list, "list", false, "List the available templates")

	return cmd
}

func runInit(w io.Writer, dir, templateName string, cfg templates.Config) error {
	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(abs)
	}
	if cfg.Description == "" {
		cfg.Description = "Shared variables for " + cfg.Name
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return err
	}
	if err := tmpl.Create(abs, cfg); err != nil {
		return err
	}

	success(w, "Created lesson %s from the '%s' template", cfg.Name, tmpl.Name)
	for _, p := range tmpl.Paths() {
		info(w, "%s", filepath.Join(dir, p))
	}
	fmt.Fprintln(w)
	info(w, "Next: cd %s && lessonvars serve", dir)
	return nil
}
