// Package ui formats CLI output for env.
//
// Every formatter has a color for terminals and a plain fallback for pipes,
// CI logs and NO_COLOR:
//
//	ui.Code.Sprint("env sync --dry-run")   // `env sync --dry-run`
//	ui.Highlight.Sprint("DATABASE_URL")    // 'DATABASE_URL'
//	ui.Muted.Sprint("2 public, 3 private") // (2 public, 3 private)
//	ui.Path.Sprint(".env.production")      // .env.production
//
// Mark and Changes render the per-target lines of `env sync`:
//
//	ui.Mark(res.Failed()) + " convex " + ui.Changes(1, 2, 0) // ✓ convex +1 ~2 -0
//
// RenderTable draws lipgloss tables for ls, get -e all and friends. With
// colors disabled the border is plain ASCII.
package ui
