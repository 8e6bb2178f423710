package calib

import "fmt"

// Matrix holds one verdict per swept configuration. It is a dense
// rectangle over depths MinDepth..MaxDepth and thresholds
// MinThreshold..MaxDepth; cells with threshold > depth are never populated.
type Matrix struct {
	bounds Bounds
	cols   int
	cells  []Verdict
}

// NewMatrix creates an empty matrix covering bounds.
func NewMatrix(bounds Bounds) (*Matrix, error) {
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep bounds: %w", err)
	}

	rows := int(bounds.MaxDepth - bounds.MinDepth + 1)
	cols := int(bounds.MaxDepth - bounds.MinThreshold + 1)

	return &Matrix{
		bounds: bounds,
		cols:   cols,
		cells:  make([]Verdict, rows*cols),
	}, nil
}

// Bounds returns the region covered by the matrix.
func (m *Matrix) Bounds() Bounds {
	return m.bounds
}

// Rows returns the number of depth rows.
func (m *Matrix) Rows() int {
	return len(m.cells) / m.cols
}

// Cols returns the number of threshold columns.
func (m *Matrix) Cols() int {
	return m.cols
}

// Depths returns the row labels in order.
func (m *Matrix) Depths() []uint32 {
	depths := make([]uint32, 0, m.Rows())
	for d := m.bounds.MinDepth; d <= m.bounds.MaxDepth; d++ {
		depths = append(depths, d)
	}
	return depths
}

// Thresholds returns the column labels in order.
func (m *Matrix) Thresholds() []uint32 {
	thresholds := make([]uint32, 0, m.cols)
	for t := m.bounds.MinThreshold; t <= m.bounds.MaxDepth; t++ {
		thresholds = append(thresholds, t)
	}
	return thresholds
}

// Get returns the verdict at (depth, threshold). The second result is false
// for cells outside the rectangle and for cells that were never set.
func (m *Matrix) Get(depth, threshold uint32) (Verdict, bool) {
	idx, ok := m.index(depth, threshold)
	if !ok {
		return Verdict{}, false
	}
	v := m.cells[idx]
	return v, v.Outcome != Unswept
}

// At returns the cell at row r and column c, Unswept if never set.
func (m *Matrix) At(r, c int) Verdict {
	return m.cells[r*m.cols+c]
}

// Set stores the verdict for c. Every cell may be written once.
func (m *Matrix) Set(c Config, v Verdict) error {
	if !m.bounds.Contains(c) {
		return fmt.Errorf("configuration %s is outside the swept region", c)
	}
	if v.Outcome == Unswept {
		return fmt.Errorf("configuration %s: cannot store an unswept verdict", c)
	}

	idx, _ := m.index(c.Depth, c.Threshold)
	if m.cells[idx].Outcome != Unswept {
		return fmt.Errorf("configuration %s was already classified", c)
	}

	m.cells[idx] = v
	return nil
}

// Populated returns the number of classified cells.
func (m *Matrix) Populated() int {
	n := 0
	for _, v := range m.cells {
		if v.Outcome != Unswept {
			n++
		}
	}
	return n
}

// Count returns how many cells carry the given outcome.
func (m *Matrix) Count(o Outcome) int {
	n := 0
	for _, v := range m.cells {
		if v.Outcome == o {
			n++
		}
	}
	return n
}

func (m *Matrix) index(depth, threshold uint32) (int, bool) {
	if depth < m.bounds.MinDepth || depth > m.bounds.MaxDepth ||
		threshold < m.bounds.MinThreshold || threshold > m.bounds.MaxDepth {
		return 0, false
	}
	r := int(depth - m.bounds.MinDepth)
	c := int(threshold - m.bounds.MinThreshold)
	return r*m.cols + c, true
}
