package printer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/joshuapare/elfkit/chunk"
)

// jsonNode represents a chunk tree node in JSON format.
type jsonNode struct {
	Kind      string     `json:"kind"`
	Start     int64      `json:"start"`
	End       int64      `json:"end"`
	Size      int64      `json:"size"`
	State     string     `json:"state"`
	Flags     []string   `json:"flags,omitempty"`
	Header    *int64     `json:"header,omitempty"`
	Data      string     `json:"data,omitempty"`
	Truncated bool       `json:"truncated,omitempty"`
	Includes  []jsonNode `json:"includes,omitempty"`
}

func (p *Printer) jsonNode(n chunk.Node) jsonNode {
	c := chunk.Base(n)
	out := jsonNode{
		Kind:  kind(n),
		Start: n.Start(),
		End:   n.End(),
		Size:  n.Size(),
		State: c.State().String(),
		Flags: flags(c),
	}
	if page, ok := n.(*chunk.Page); ok {
		start := page.Header().Start()
		out.Header = &start
	}
	if p.opts.ShowData && c.Loaded() {
		data, cut := p.preview(c)
		out.Data = hex.EncodeToString(data)
		out.Truncated = cut
	}
	return out
}

func (p *Printer) jsonTree(n chunk.Node, depth int) jsonNode {
	out := p.jsonNode(n)
	if p.opts.MaxDepth > 0 && depth+1 >= p.opts.MaxDepth {
		return out
	}
	for _, inc := range chunk.Base(n).Includes() {
		out.Includes = append(out.Includes, p.jsonTree(inc, depth+1))
	}
	return out
}

func (p *Printer) printTreeJSON(root chunk.Node) error {
	return p.writeJSON(p.jsonTree(root, 0))
}

func (p *Printer) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.writer, "%s\n", data)
	return err
}
