package ringbuf

// Ring keeps the last len(Data) pushed values; index 0 is the newest.
type Ring[T any] struct {
	Data  []T
	Head  int
	count int
}

func New[T any](size int) *Ring[T] {
	return &Ring[T]{
		Data: make([]T, size),
		Head: 0,
	}
}

func (r *Ring[T]) PushFront(v T) *Ring[T] {
	r.Head = r.Head - 1
	if r.Head < 0 {
		r.Head = len(r.Data) - 1
	}
	r.Data[r.Head] = v
	if r.count < len(r.Data) {
		r.count++
	}
	return r
}

func (r *Ring[T]) WalkFirstN(count int, fn func(T)) {
	for i := 0; i < count; i++ {
		fn(r.Data[(r.Head+i)%len(r.Data)])
	}
}

// Items returns the filled values, newest first.
func (r *Ring[T]) Items() []T {
	items := make([]T, 0, r.count)
	r.WalkFirstN(r.count, func(v T) {
		items = append(items, v)
	})
	return items
}

func (r *Ring[T]) GetN(i int) T {
	idx := r.Head + i
	if idx < 0 {
		idx = len(r.Data) + idx
	}
	return r.Data[(idx)%len(r.Data)]
}

func (r *Ring[T]) Len() int {
	return len(r.Data)
}

// Count is the number of values pushed so far, capped at Len.
func (r *Ring[T]) Count() int {
	return r.count
}
