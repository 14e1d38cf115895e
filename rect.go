package main

type Rect struct {
	X, Y          float32
	Width, Height float32
}

// Contains reports whether the point lies inside r, right and bottom edges excluded.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}
