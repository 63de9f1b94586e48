package threadpool

// queue is a bounded FIFO ring of pending jobs. Not safe for concurrent use.
type queue struct {
	buf  []*job
	head int
	n    int
}

func newQueue(capacity uint) *queue {
	return &queue{buf: make([]*job, capacity)}
}

func (q *queue) len() int    { return q.n }
func (q *queue) cap() int    { return len(q.buf) }
func (q *queue) empty() bool { return q.n == 0 }
func (q *queue) full() bool  { return q.n == len(q.buf) }

// push appends j. The caller checks full first.
func (q *queue) push(j *job) {
	q.buf[(q.head+q.n)%len(q.buf)] = j
	q.n++
}

// pop removes and returns the head. The caller checks empty first.
func (q *queue) pop() *job {
	j := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return j
}
