package chunk

import "errors"

// Page is a headed chunk: a header node plus the body range it describes,
// such as a program header entry and its segment. The page is the body; the
// header is shared, not owned.
type Page struct {
	Chunk

	header Node
}

// NewPage creates the body [offset, offset+size) for header and loads it from
// the header's default source. The header is the page's issuer.
func NewPage(header Node, offset, size int64) (*Page, error) {
	if header == nil {
		return nil, errors.New("chunk: page needs a header")
	}
	p := &Page{header: header}
	if err := p.init(header.base().props, offset, size, header); err != nil {
		return nil, err
	}
	p.self = p
	if err := p.Load(); err != nil {
		p.Dispose()
		return nil, err
	}
	return p, nil
}

// Header returns the page's header node.
func (p *Page) Header() Node { return p.header }

// Chunks returns the header followed by the page body.
func (p *Page) Chunks() []Node { return []Node{p.header, p} }

// Remove removes the header and then the body. A header that refuses removal
// does not stop the body; the body's result is returned.
func (p *Page) Remove(force bool) error {
	if err := p.header.Remove(force); err != nil {
		p.logger().Debug("chunk: page header not removed",
			"header", p.header.Start(), "page", p.start, "err", err)
	}
	return p.Chunk.Remove(force)
}

// RemoveBody removes the body only and leaves the header alone, for headers
// that are shared or owned elsewhere.
func (p *Page) RemoveBody(force bool) error {
	return p.Chunk.Remove(force)
}
