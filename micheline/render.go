package micheline

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Render prints n in Michelson concrete syntax, e.g.
//
//	pair (address %owner) nat
//	{ Elt "symbol" 0x414243 }
func Render(n Node) string {
	var b strings.Builder
	render(&b, n, false)
	return b.String()
}

func render(b *strings.Builder, n Node, nested bool) {
	switch n.Kind {
	case KindInt:
		if n.Int == nil {
			b.WriteString("0")
			return
		}
		b.WriteString(n.Int.String())
	case KindString:
		b.WriteString(strconv.Quote(n.Str))
	case KindBytes:
		b.WriteString("0x")
		b.WriteString(hex.EncodeToString(n.Bytes))
	case KindSeq:
		if len(n.Items) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, item := range n.Items {
			if i > 0 {
				b.WriteString(" ; ")
			}
			render(b, item, false)
		}
		b.WriteString(" }")
	case KindPrim:
		wrap := nested && (len(n.Args) > 0 || len(n.Annots) > 0)
		if wrap {
			b.WriteString("(")
		}
		b.WriteString(n.Prim)
		for _, a := range n.Annots {
			b.WriteString(" ")
			b.WriteString(a)
		}
		for _, arg := range n.Args {
			b.WriteString(" ")
			render(b, arg, true)
		}
		if wrap {
			b.WriteString(")")
		}
	default:
		b.WriteString("<invalid>")
	}
}
