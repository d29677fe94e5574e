package terminal

// Cell represents a single terminal cell
type Cell struct {
	Ch rune
	Fg Attribute
	Bg Attribute
}

// CellBuffer is a row-major grid of cells: cells[y*width + x]
// Not safe for concurrent use; drivers guard it with their own lock
type CellBuffer struct {
	cells  []Cell
	width  int
	height int
}

// NewCellBuffer creates a buffer of the given size filled with blank cells
func NewCellBuffer(width, height int) *CellBuffer {
	b := &CellBuffer{}
	b.Resize(width, height)
	return b
}

// Size returns buffer dimensions
func (b *CellBuffer) Size() (int, int) {
	return b.width, b.height
}

// InBounds reports whether (x, y) addresses a cell
func (b *CellBuffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// Set writes a cell; out-of-range coordinates are ignored
func (b *CellBuffer) Set(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	b.cells[y*b.width+x] = c
}

// Get returns the cell at (x, y) and false when out of range
func (b *CellBuffer) Get(x, y int) (Cell, bool) {
	if !b.InBounds(x, y) {
		return Cell{}, false
	}
	return b.cells[y*b.width+x], true
}

// Clear fills every cell with fill
func (b *CellBuffer) Clear(fill Cell) {
	for i := range b.cells {
		b.cells[i] = fill
	}
}

// Resize changes dimensions, keeping the overlapping region
func (b *CellBuffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if width == b.width && height == b.height && b.cells != nil {
		return
	}

	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = Cell{Ch: ' '}
	}

	copyW := min(width, b.width)
	copyH := min(height, b.height)
	for y := 0; y < copyH; y++ {
		copy(cells[y*width:y*width+copyW], b.cells[y*b.width:y*b.width+copyW])
	}

	b.cells = cells
	b.width = width
	b.height = height
}

// Row returns the cells of row y, nil when out of range
// The slice aliases buffer storage
func (b *CellBuffer) Row(y int) []Cell {
	if y < 0 || y >= b.height {
		return nil
	}
	return b.cells[y*b.width : (y+1)*b.width]
}
