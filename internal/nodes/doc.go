// Package nodes provides the concrete node types of the editor: paragraph,
// text, link and line break.
//
// Every type follows the node contract: factories allocate a fresh key from
// the owning transaction, getters resolve the latest version of the key, and
// setters write to the draft version. NewRegistry returns a registry holding
// all of them.
package nodes
