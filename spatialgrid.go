package rink

import (
	"math"
	"sort"

	"github.com/akmonengine/rink/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// maxCellsPerBody bounds how many cells a single body is hashed into.
// Bodies spanning more (a whole table mesh) are tested against everyone.
const maxCellsPerBody = 512

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds indices of the bodies overlapping it
type Cell struct {
	bodyIndices []int
}

// Pair is a couple of bodies whose bounds overlap
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

// SpatialGrid is a uniform hashed grid used as the broad phase
type SpatialGrid struct {
	cellSize  float64
	cells     []Cell
	cellMask  int
	oversized []int
}

// NewSpatialGrid creates a grid of numCells hash buckets (rounded up to a power of two)
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (sg *SpatialGrid) cellSpan(aabb actor.AABB) (CellKey, CellKey, int) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)
	count := (maxCell.X - minCell.X + 1) * (maxCell.Y - minCell.Y + 1) * (maxCell.Z - minCell.Z + 1)
	return minCell, maxCell, count
}

// Insert adds a body index to every cell its AABB covers
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	minCell, maxCell, count := sg.cellSpan(body.Shape.GetAABB())
	if count > maxCellsPerBody || count <= 0 {
		sg.oversized = append(sg.oversized, bodyIndex)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
			}
		}
	}
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.oversized = sg.oversized[:0]
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			sort.Ints(sg.cells[i].bodyIndices)
		}
	}
}

// Collect rebuilds the grid from bodies and returns the overlapping pairs
func (sg *SpatialGrid) Collect(bodies []*actor.RigidBody) []Pair {
	sg.Clear()
	for i, body := range bodies {
		sg.Insert(i, body)
	}
	sg.SortCells()

	return sg.FindPairs(bodies)
}

// FindPairs returns each overlapping pair once, in deterministic order
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies))
	seen := make([]bool, len(bodies))

	isOversized := make([]bool, len(bodies))
	for _, idx := range sg.oversized {
		isOversized[idx] = true
	}

	for bodyIdx := 0; bodyIdx < len(bodies); bodyIdx++ {
		clear(seen)
		bodyA := bodies[bodyIdx]

		consider := func(otherIdx int) {
			if otherIdx == bodyIdx || seen[otherIdx] {
				return
			}
			// pairs with an oversized body are emitted from the oversized side
			if isOversized[otherIdx] && !isOversized[bodyIdx] {
				return
			}
			// both regular: lower index emits
			if !isOversized[bodyIdx] && otherIdx < bodyIdx {
				return
			}
			// both oversized: lower index emits
			if isOversized[bodyIdx] && isOversized[otherIdx] && otherIdx < bodyIdx {
				return
			}
			seen[otherIdx] = true

			bodyB := bodies[otherIdx]
			if !canCollide(bodyA, bodyB) {
				return
			}
			if bodyA.Shape.GetAABB().Overlaps(bodyB.Shape.GetAABB()) {
				pairs = append(pairs, Pair{BodyA: bodyA, BodyB: bodyB})
			}
		}

		if isOversized[bodyIdx] {
			for otherIdx := range bodies {
				consider(otherIdx)
			}
			continue
		}

		minCell, maxCell, _ := sg.cellSpan(bodyA.Shape.GetAABB())
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					for _, otherIdx := range sg.cells[sg.hashCell(CellKey{x, y, z})].bodyIndices {
						consider(otherIdx)
					}
				}
			}
		}
		for _, otherIdx := range sg.oversized {
			consider(otherIdx)
		}
	}

	return pairs
}

func canCollide(bodyA, bodyB *actor.RigidBody) bool {
	if bodyA.BodyType == actor.BodyTypeStatic && bodyB.BodyType == actor.BodyTypeStatic {
		return false
	}
	if bodyA.IsSleeping && bodyB.IsSleeping {
		return false
	}
	return true
}

// worldToCell converts a world position to cell coordinates
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

// hashCell maps a cell to a bucket index
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
