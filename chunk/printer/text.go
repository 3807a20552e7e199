package printer

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/elfkit/chunk"
)

func (p *Printer) printTreeText(root chunk.Node) error {
	return chunk.Walk(root, func(n chunk.Node, depth int) error {
		if p.opts.MaxDepth > 0 && depth >= p.opts.MaxDepth {
			return chunk.SkipIncludes
		}
		return p.printNodeText(n, depth)
	})
}

// printNodeText prints one line per node:
//
//	[0x0020, 0x0040) 32 bytes page loaded modified
func (p *Printer) printNodeText(n chunk.Node, depth int) error {
	c := chunk.Base(n)
	indent := strings.Repeat(" ", depth*p.opts.IndentSize)

	line := fmt.Sprintf("%s[0x%04x, 0x%04x) %s %s", indent, n.Start(), n.End(), p.size(n.Size()), kind(n))
	if f := flags(c); len(f) > 0 {
		line += " " + strings.Join(f, " ")
	}
	if page, ok := n.(*chunk.Page); ok {
		line += fmt.Sprintf(" header=0x%x", page.Header().Start())
	}
	if _, err := fmt.Fprintln(p.writer, line); err != nil {
		return err
	}

	if p.opts.ShowData && c.Loaded() {
		data, cut := p.preview(c)
		more := ""
		if cut {
			more = " ..."
		}
		if _, err := fmt.Fprintf(p.writer, "%s  %s |%s|%s\n", indent, hex.EncodeToString(data), printable(data), more); err != nil {
			return err
		}
	}
	return nil
}

// size formats a byte count with locale digit grouping.
func (p *Printer) size(n int64) string {
	if n == 1 {
		return "1 byte"
	}
	return p.num.Sprintf("%d bytes", n)
}

// printable decodes data as Latin-1 and masks control characters.
func printable(data []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		decoded = data
	}
	return strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return '.'
		}
		return r
	}, string(decoded))
}
