// Package dom provides helpers over golang.org/x/net/html nodes, which
// serve as the rendered element tree the reconciler patches.
//
// Elements are plain *html.Node values. The helpers here create elements,
// manage their class attribute and text, and render them to HTML. The
// package also exposes the narrow sanitization collaborator used when
// rendered output leaves the process.
package dom
