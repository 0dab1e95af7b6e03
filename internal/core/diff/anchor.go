package diff

// Anchor is an externally held position that survives edits. Positions
// outside an edited span are preserved; positions after a span shift by the
// edit's net length delta; positions on deleted lines are invalidated.
//
// Anchors are only meaningful between transactions: callers that need
// durable references across parses should re-resolve against the fresh
// TodoMap instead.
type Anchor struct {
	Row, Col int

	doc   *Document
	valid bool
}

// NewAnchor registers a position anchor with the document.
func (d *Document) NewAnchor(row, col int) *Anchor {
	a := &Anchor{Row: row, Col: col, doc: d, valid: true}
	d.anchors = append(d.anchors, a)
	return a
}

// Valid reports whether the anchored position still exists.
func (a *Anchor) Valid() bool { return a.valid }

// Release removes the anchor from its document.
func (a *Anchor) Release() {
	if a.doc == nil {
		return
	}
	for i, other := range a.doc.anchors {
		if other == a {
			a.doc.anchors = append(a.doc.anchors[:i], a.doc.anchors[i+1:]...)
			break
		}
	}
	a.doc = nil
	a.valid = false
}

func (d *Document) remapAnchors(h Hunk) {
	for _, a := range d.anchors {
		if !a.valid {
			continue
		}
		if h.Kind == KindLine {
			remapLineAnchor(a, h)
		} else {
			remapTextAnchor(a, h)
		}
	}
}

func remapLineAnchor(a *Anchor, h Hunk) {
	delta := len(h.Lines) - h.Count

	switch {
	case a.Row < h.Row:
		// Before the edit: untouched.
	case a.Row >= h.Row+h.Count:
		a.Row += delta
	case len(h.Lines) > 0:
		// Inside a replaced block: clamp to the first replacement line.
		a.Row = h.Row
		if a.Col > len(h.Lines[0]) {
			a.Col = len(h.Lines[0])
		}
	default:
		a.valid = false
	}
}

func remapTextAnchor(a *Anchor, h Hunk) {
	if a.Row != h.Row {
		return
	}
	delta := len(h.Text) - (h.EndCol - h.StartCol)

	switch {
	case a.Col <= h.StartCol:
		// Before or at the span start: untouched.
	case a.Col >= h.EndCol:
		a.Col += delta
	case h.Kind == KindMarker:
		// Token swap: keep the anchor where it is, clamped to the new end.
		if a.Col > h.StartCol+len(h.Text) {
			a.Col = h.StartCol + len(h.Text)
		}
	default:
		a.Col = h.StartCol
	}
}
