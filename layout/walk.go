package layout

// Cells visits every grid position the segment covers, in order from
// (X1, Y1) to (X2, Y2); a via visits its base cell and then its top
// cell. The walk stops early when fn returns false.
func (s *Seg) Cells(fn func(x, y, layer int) bool) {
	x, y, layer := s.X1, s.Y1, s.Layer
	for {
		if !fn(x, y, layer) {
			return
		}
		if x == s.X2 && y == s.Y2 {
			if s.IsVia() && layer == s.Layer {
				layer++

				continue
			}

			return
		}
		if x < s.X2 {
			x++
		} else if x > s.X2 {
			x--
		}
		if y < s.Y2 {
			y++
		} else if y > s.Y2 {
			y--
		}
	}
}

// Covers reports whether the segment covers (x, y, layer), via top
// included.
func (s *Seg) Covers(x, y, layer int) bool {
	found := false
	s.Cells(func(cx, cy, cl int) bool {
		if cx == x && cy == y && cl == layer {
			found = true

			return false
		}

		return true
	})

	return found
}
