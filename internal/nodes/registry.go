package nodes

import "github.com/dshills/richtext/internal/engine/node"

// Register adds the catalog to reg.
func Register(reg *node.Registry) error {
	for _, c := range Classes() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the root and every catalog type.
func NewRegistry() *node.Registry {
	reg := node.NewRegistry()
	reg.MustRegister(Classes()...)
	return reg
}

// Classes returns the class descriptors of the catalog.
func Classes() []node.Class {
	return []node.Class{
		{
			Type: ParagraphType,
			Create: func(o node.Owner, _ ...string) (node.Node, error) {
				return NewParagraph(o)
			},
			IsInstance: IsParagraph,
		},
		{
			Type: TextType,
			Create: func(o node.Owner, args ...string) (node.Node, error) {
				return NewText(o, arg(args, 0))
			},
			IsInstance: IsText,
		},
		{
			Type: LinkType,
			Create: func(o node.Owner, args ...string) (node.Node, error) {
				return NewLink(o, arg(args, 0), arg(args, 1))
			},
			IsInstance: IsLink,
		},
		{
			Type: LineBreakType,
			Create: func(o node.Owner, _ ...string) (node.Node, error) {
				return NewLineBreak(o)
			},
			IsInstance: IsLineBreak,
		},
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
