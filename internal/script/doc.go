// Package script builds documents from Lua programs.
//
// A script runs inside one editor update, so its edits commit together or
// not at all. The global table doc exposes the editing API:
//
//	doc.paragraph()          -- append a paragraph and make it current
//	doc.text(s [, format])   -- append text; format is "bold|italic"
//	doc.link(text, url)      -- append a link
//	doc.linebreak()          -- append a line break
//	doc.flags(key, flags)    -- set flags, e.g. "immutable|inert"
//	doc.select(key, offset)  -- place a collapsed selection
//	doc.insert(s)            -- insert text at the selection
//	doc.content()            -- the document's text content
//
// The leaf functions return the new node's key and append to the current
// paragraph, creating one when there is none.
//
// Scripts run in a restricted state: only the base, table, string and
// math libraries are opened, and loaders that reach the file system are
// removed. Execution stops when the context is done.
package script
