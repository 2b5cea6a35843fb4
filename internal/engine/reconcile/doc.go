// Package reconcile patches a rendered element tree so that it mirrors
// the next editor state.
//
// Reconcile compares a previous and a next EditorState scope by scope,
// starting at the root. Within a scope, children are matched by key:
//
//   - keys only in the previous list are removed with their subtrees
//   - keys in both lists with the same type are kept; the minimal set of
//     them is moved so the rendered order matches the next order
//   - keys only in the next list, or whose type changed, are created
//   - kept nodes whose version changed get UpdateDOM; true means the
//     element is replaced by a fresh CreateDOM subtree
//
// Operations in a scope run in the order remove, move, insert, then
// recurse into kept children. Subtrees whose versions are unchanged and
// that contain no dirty key are skipped.
//
// Before touching the tree, a validation pass checks that every element
// the run will need from the previous render exists and is attached where
// expected, and that every node type is registered. A failing pass leaves
// the tree untouched and returns ErrReconciliation.
package reconcile
