// Package catalog defines the brief template an extraction produces:
// which sections exist, what the model is told about them, and the
// compaction vocabulary applied to transcripts beforehand.
//
// # Overview
//
// A Catalog is loaded from a YAML file or taken from the built-in
// default. It carries the section inventory (stable IDs plus display
// titles), the system prompt sent to the extraction model, the
// fallback order for deriving titles from truncated streams, and
// optional overrides for the compactor's filler, backchannel, and
// abbreviation lists.
//
//	mgr := catalog.NewManager(cfg.Catalog.Path, cfg.Catalog.DebounceInterval, logger)
//	if err := mgr.Load(); err != nil {
//	    return err
//	}
//	c := mgr.Current()
//	title, ok := c.Title("executive_summary")
//
// # Hot Reload
//
// Manager.Watch watches the catalog file with fsnotify and reloads it
// on change, debounced against editor save storms. A reload that fails
// to parse or validate keeps the previous catalog active, so a broken
// edit never takes down running extractions. Extractions snapshot the
// catalog once at session start; a reload mid-stream affects only
// later sessions.
package catalog
