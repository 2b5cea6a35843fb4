// Package config loads the editor's TOML configuration and watches it
// for changes.
//
// A configuration file looks like:
//
//	log_level = "info"
//
//	[editor]
//	validate_states = false
//
//	[metrics]
//	enabled = true
//	addr = ":9090"
//
//	[theme]
//	paragraph = "my-paragraph"
//	link = "my-link-class"
//
//	[theme.text]
//	bold = "my-bold-class"
//
// Nested theme tables flatten to dotted names ("text.bold"). A missing
// file yields the defaults.
package config
