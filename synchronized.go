package quadbench

import (
	"iter"
	"sync"
)

// SynchronizedTabulatedFunction serializes all access to one TabulatedFunction.
//
// Every method holds the lock for the duration of that single call only;
// two calls made back to back are not atomic together. Use WithLock or
// DoSynchronously to compose several operations into one atomic step.
//
// Reads share an RWMutex read lock; SetY and the composite operations take
// the write lock. The lock is not reentrant.
type SynchronizedTabulatedFunction struct {
	mu    sync.RWMutex
	table *TabulatedFunction
}

var (
	_ Table = (*TabulatedFunction)(nil)
	_ Table = (*SynchronizedTabulatedFunction)(nil)
)

// Synchronize wraps table. From now on every access to table must go through
// the returned accessor; touching table directly while it is shared is a data
// race.
func Synchronize(table *TabulatedFunction) *SynchronizedTabulatedFunction {
	return &SynchronizedTabulatedFunction{table: table}
}

func (s *SynchronizedTabulatedFunction) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Count()
}

func (s *SynchronizedTabulatedFunction) X(i int) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.X(i)
}

func (s *SynchronizedTabulatedFunction) Y(i int) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Y(i)
}

func (s *SynchronizedTabulatedFunction) SetY(i int, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.SetY(i, v)
}

func (s *SynchronizedTabulatedFunction) LeftBound() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.LeftBound()
}

func (s *SynchronizedTabulatedFunction) RightBound() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.RightBound()
}

func (s *SynchronizedTabulatedFunction) IndexOfX(x float64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.IndexOfX(x)
}

func (s *SynchronizedTabulatedFunction) IndexOfY(y float64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.IndexOfY(y)
}

func (s *SynchronizedTabulatedFunction) Apply(x float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Apply(x)
}

// AsFunction returns a Function that evaluates the table under the read
// lock, so it can be integrated while other goroutines call SetY.
func (s *SynchronizedTabulatedFunction) AsFunction() Function {
	return s.Apply
}

// Snapshot copies all points under one lock acquisition.
func (s *SynchronizedTabulatedFunction) Snapshot() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Points()
}

// Iterator returns an iterator over a point-in-time copy of the table.
// The copy is taken under the lock; iterating never touches the lock again,
// so later SetY calls are not observed.
func (s *SynchronizedTabulatedFunction) Iterator() *SnapshotIterator {
	return &SnapshotIterator{points: s.Snapshot()}
}

// All returns a range-over-func sequence over a fresh snapshot, taken when
// iteration starts.
func (s *SynchronizedTabulatedFunction) All() iter.Seq2[int, Point] {
	return func(yield func(int, Point) bool) {
		for i, p := range s.Snapshot() {
			if !yield(i, p) {
				return
			}
		}
	}
}

// DoSynchronously runs op while holding the write lock.
//
// op receives the wrapped table directly and must use it, not s: calling any
// method of s from inside op deadlocks.
func (s *SynchronizedTabulatedFunction) DoSynchronously(op func(Table)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op(s.table)
}

// WithLock runs op while holding s's write lock and returns its result.
// It is the building block for read-modify-write sequences:
//
//	err := quadbench.WithLock(s, func(t quadbench.Table) error {
//	    y, err := t.Y(3)
//	    if err != nil {
//	        return err
//	    }
//	    return t.SetY(3, 2*y)
//	})
//
// The same reentrancy rule as DoSynchronously applies.
func WithLock[T any](s *SynchronizedTabulatedFunction, op func(Table) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return op(s.table)
}

// SnapshotIterator walks an immutable copy of a table's points.
// It is not safe for concurrent use by multiple goroutines.
type SnapshotIterator struct {
	points []Point
	next   int
}

// HasNext reports whether Next will return a point.
func (it *SnapshotIterator) HasNext() bool { return it.next < len(it.points) }

// Next returns the next point, or ErrIteratorExhausted after the last one.
func (it *SnapshotIterator) Next() (Point, error) {
	if it.next >= len(it.points) {
		return Point{}, ErrIteratorExhausted
	}
	p := it.points[it.next]
	it.next++
	return p, nil
}

// Reset rewinds the iterator to the first point of the same snapshot.
func (it *SnapshotIterator) Reset() { it.next = 0 }

// Len returns the number of points in the snapshot.
func (it *SnapshotIterator) Len() int { return len(it.points) }
