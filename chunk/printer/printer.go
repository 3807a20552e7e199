// Package printer renders chunk trees as indented text or JSON.
package printer

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/elfkit/chunk"
)

const (
	DefaultIndentSize   = 2
	DefaultMaxDepth     = 0
	DefaultMaxDataBytes = 16
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs an indented, human-readable tree.
	FormatText Format = "text"

	// FormatJSON outputs a nested JSON document.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text format only).
	// Default: 2
	IndentSize int

	// MaxDepth limits recursion depth (0 = unlimited).
	// Default: 0 (unlimited)
	MaxDepth int

	// ShowData includes a preview of each node's buffer.
	// Default: false
	ShowData bool

	// MaxDataBytes limits how many bytes of a buffer the preview shows.
	// Set to 0 for no limit.
	// Default: 16
	MaxDataBytes int

	// Language selects digit grouping for byte counts in text output.
	// Default: language.English
	Language language.Tag
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:       FormatText,
		IndentSize:   DefaultIndentSize,
		MaxDepth:     DefaultMaxDepth,
		ShowData:     false,
		MaxDataBytes: DefaultMaxDataBytes,
		Language:     language.English,
	}
}

// Printer handles formatted output of chunk trees.
type Printer struct {
	opts   Options
	writer io.Writer
	num    *message.Printer
}

// New creates a Printer writing to w.
//
// Example:
//
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	p.PrintTree(im.Root())
func New(w io.Writer, opts Options) *Printer {
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	return &Printer{
		opts:   opts,
		writer: w,
		num:    message.NewPrinter(opts.Language),
	}
}

// PrintTree prints root and its includes down to MaxDepth.
func (p *Printer) PrintTree(root chunk.Node) error {
	if root == nil {
		return fmt.Errorf("printer: nil node")
	}
	switch p.opts.Format {
	case FormatJSON:
		return p.printTreeJSON(root)
	default:
		return p.printTreeText(root)
	}
}

// PrintNode prints a single node without its includes.
func (p *Printer) PrintNode(n chunk.Node) error {
	if n == nil {
		return fmt.Errorf("printer: nil node")
	}
	switch p.opts.Format {
	case FormatJSON:
		return p.writeJSON(p.jsonNode(n))
	default:
		return p.printNodeText(n, 0)
	}
}

// flags lists the state markers of a node in a fixed order.
func flags(c *chunk.Chunk) []string {
	var out []string
	if c.Loaded() {
		out = append(out, "loaded")
	}
	if c.Modified() {
		out = append(out, "modified")
	}
	if c.Protected() {
		out = append(out, "protected")
	}
	if c.Suppressed() {
		out = append(out, "suppressed")
	}
	if c.Inserted() {
		out = append(out, "inserted")
	}
	if c.Disposed() {
		out = append(out, "disposed")
	}
	return out
}

// kind names the node type.
func kind(n chunk.Node) string {
	switch n.(type) {
	case *chunk.Page:
		return "page"
	case *chunk.Chunk:
		return "chunk"
	default:
		return fmt.Sprintf("%T", n)
	}
}

// preview returns at most MaxDataBytes of the node's buffer and whether it was cut.
func (p *Printer) preview(c *chunk.Chunk) ([]byte, bool) {
	data := c.Data()
	if p.opts.MaxDataBytes > 0 && len(data) > p.opts.MaxDataBytes {
		return data[:p.opts.MaxDataBytes], true
	}
	return data, false
}
