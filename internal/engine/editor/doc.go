// Package editor implements the transaction manager of the rich text engine.
//
// An Editor owns one published EditorState and, optionally, a rendered
// tree. All mutation happens inside Update:
//
//	err := ed.Update(ctx, func(tx *editor.Txn) error {
//		p, err := nodes.NewParagraph(tx)
//		if err != nil {
//			return err
//		}
//		return node.Append(tx.Root(), p)
//	})
//
// Update opens a draft over the published state, runs the callback, then
// commits: detached nodes are collected, the selection is remapped, the
// next state is built and validated, the rendered tree is reconciled and
// the state is published. A callback error or panic discards the draft.
//
// Updates from different callers are admitted one at a time in FIFO
// order. An Update made with tx.Context(), or through tx.Update, joins the
// enclosing transaction instead of queueing behind it.
//
// Node handles resolve the latest version of their key: the draft inside
// an update, the published state otherwise. Handles are not safe for use
// from other goroutines while an update is running.
package editor
