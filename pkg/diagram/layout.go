package diagram

// Grid placement for nodes that have no remembered position.
const (
	GridOriginX = 100
	GridOriginY = 100
	GridStepX   = 200
	GridStepY   = 150
	GridColumns = 3
)

// GridPosition returns the canvas position of the n-th inserted node (1-based).
// Positions are cosmetic; visual editors let users drag nodes afterwards.
func GridPosition(n int) Point {
	return Point{
		X: float64(GridOriginX + (n%GridColumns)*GridStepX),
		Y: float64(GridOriginY + (n/GridColumns)*GridStepY),
	}
}
