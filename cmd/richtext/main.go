// Package main is the entry point for the richtext command, which builds
// documents from node descriptions and renders them through the editor
// engine.
package main

func main() {
	execute()
}
