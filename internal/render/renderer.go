package render

// Tile is one note to draw. Progress runs from 0 at the top of the lane to 1
// at the hit line; Extent is its length as a fraction of the lane.
type Tile struct {
	Lane     int
	Progress float64
	Extent   float64
	Long     bool
}

// Scene is everything drawn in one frame.
type Scene struct {
	Lanes    int
	Tiles    []Tile
	Active   []bool // Lanes pressed recently
	Progress float64
	Status   []string
	Overlay  []string
}

type Renderer interface {
	Init() error
	Deinit() error
	Draw(scene Scene)
}
