// Package dev provides hot reload of variable declarations.
//
// A Watcher follows one declaration file. When the file changes it is
// re-parsed after a short debounce; a valid document is handed to the
// reload callback (typically page.Reload, which keeps every live value),
// and an invalid one is logged and reported while the previous registry
// stays in effect.
//
// # Usage
//
//	w, err := dev.NewWatcher(dev.Config{Path: "variables.yaml"}, p.Reload)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// Editors that save by writing a temporary file and renaming it over the
// declaration file are handled: the watcher follows the directory and
// filters events by name.
package dev
