package task

// Splitter flattens an arbitrary validator tree into two ordered leaf
// lists for the wire response encoder's benefit. Composite structure
// above the leaves, which branches were ANDed vs ORed, is lost in the
// wire representation; that is a limitation of the external API, not the
// engine, so the internal Conjunction/Disjunction tree remains the source
// of truth and is never reconstructed from the flattened form.
type Splitter struct {
	MustStart []MustStartBetween
	MustEnd   []MustEndBetween
}

// Split walks v and every descendant, collecting leaves in traversal
// order. Every child of every composite node is visited.
func Split(v Validator) Splitter {
	s := Splitter{}
	s.visit(v)
	return s
}

func (s *Splitter) visit(v Validator) {
	switch node := v.(type) {
	case MustStartBetween:
		s.MustStart = append(s.MustStart, node)
	case MustEndBetween:
		s.MustEnd = append(s.MustEnd, node)
	case Conjunction:
		for _, child := range node.Children {
			s.visit(child)
		}
	case Disjunction:
		for _, child := range node.Children {
			s.visit(child)
		}
	default:
		// Opaque leaves (e.g. ExpressionValidator) contribute nothing to
		// the flattened wire lists; they have no start/end interval to
		// report.
	}
}
