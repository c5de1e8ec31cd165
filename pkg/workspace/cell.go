package workspace

import "sync"

// Cell is a compute-once memoization cell. The first call to Get runs the
// compute function; every later call returns the stored result, including
// a stored error.
type Cell[T any] struct {
	once sync.Once
	val  T
	err  error
}

// Get returns the cell's value, computing it on first use.
func (c *Cell[T]) Get(compute func() (T, error)) (T, error) {
	c.once.Do(func() {
		c.val, c.err = compute()
	})
	return c.val, c.err
}
