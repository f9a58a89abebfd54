// Package ui formats keyward's terminal output.
//
// Each Formatter stands for one kind of content. With a color capable
// terminal it is colorized; when NO_COLOR is set or the terminal cannot
// render colors, plain decorations are used instead:
//
//	ui.Code.Sprint("keyward keygen")     // `keyward keygen`
//	ui.Path.Sprint("secrets/.env")       // secrets/.env
//	ui.Highlight.Sprint("DB_PASSWORD")   // 'DB_PASSWORD'
//	ui.Muted.Sprint("dry run")           // (dry run)
//	ui.Done("sealed %d files", 3)        // ✓ sealed 3 files
package ui
