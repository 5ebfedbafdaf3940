package diagram

import (
	"fmt"
	"math"

	"github.com/rcliao/section-j/internal/model"
)

// Grid coordinate bounds, inclusive.
const (
	MinCoord = 1
	MaxCoord = 100
)

// Grid maps grid coordinates to pixels: pixel = Origin + (coord-1) * CellSize.
type Grid struct {
	Origin   float64 `yaml:"origin" json:"origin"`
	CellSize float64 `yaml:"cell_size" json:"cellSize"`
}

// DefaultGrid returns the canonical mapping.
func DefaultGrid() Grid {
	return Grid{Origin: 50, CellSize: 150}
}

// ToPixel converts a grid coordinate, rejecting values outside [MinCoord, MaxCoord].
func (g Grid) ToPixel(x, y int) (model.Position, error) {
	if x < MinCoord || x > MaxCoord || y < MinCoord || y > MaxCoord {
		return model.Position{}, fmt.Errorf("%w: (%d,%d) outside %d..%d", ErrCoordinate, x, y, MinCoord, MaxCoord)
	}
	return model.Position{
		X: g.Origin + float64(x-1)*g.CellSize,
		Y: g.Origin + float64(y-1)*g.CellSize,
	}, nil
}

// ToGrid converts a pixel position to the nearest grid coordinate.
func (g Grid) ToGrid(p model.Position) (int, int) {
	if g.CellSize == 0 {
		return MinCoord, MinCoord
	}
	x := int(math.Round((p.X-g.Origin)/g.CellSize)) + 1
	y := int(math.Round((p.Y-g.Origin)/g.CellSize)) + 1
	return x, y
}
