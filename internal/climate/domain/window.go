package domain

// RollingWindow is a fixed capacity FIFO of the most recent values of one
// signal. Pushing into a full window drops the oldest value.
type RollingWindow struct {
	values []float64
	head   int // index of the oldest value
	size   int
}

func NewRollingWindow(capacity int) *RollingWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingWindow{values: make([]float64, capacity)}
}

// NewFilledWindow returns a window that is already warmed up with capacity
// copies of fill.
func NewFilledWindow(capacity int, fill float64) *RollingWindow {
	w := NewRollingWindow(capacity)
	for range w.values {
		w.Push(fill)
	}
	return w
}

func (w *RollingWindow) Push(value float64) {
	if w.size < len(w.values) {
		w.values[(w.head+w.size)%len(w.values)] = value
		w.size++
		return
	}
	w.values[w.head] = value
	w.head = (w.head + 1) % len(w.values)
}

func (w *RollingWindow) Len() int { return w.size }

func (w *RollingWindow) Cap() int { return len(w.values) }

func (w *RollingWindow) Full() bool { return w.size == len(w.values) }

// Values returns a copy of the window contents, oldest first.
func (w *RollingWindow) Values() []float64 {
	out := make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.values[(w.head+i)%len(w.values)]
	}
	return out
}

// Average is the arithmetic mean of the values currently held. The boolean is
// false for an empty window.
func (w *RollingWindow) Average() (float64, bool) {
	if w.size == 0 {
		return 0, false
	}
	sum := 0.0
	for i := 0; i < w.size; i++ {
		sum += w.values[(w.head+i)%len(w.values)]
	}
	return sum / float64(w.size), true
}
