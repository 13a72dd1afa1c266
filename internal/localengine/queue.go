package localengine

import "github.com/kvit-s/veribench/internal/model"

// WorkItem is one run bound to the run set it came from, carried
// through the queue so a worker can look up the run set's options and
// tool without a second lookup.
type WorkItem struct {
	RunSet *model.RunSet
	Run    *model.Run
}

// Queue is a plain FIFO of work items. Runs are enqueued in benchmark
// document order (§4.6: "runs are dispatched in the order they appear
// in the flattened run list") and workers pop from the front, giving
// every worker a consistent, reproducible view of what runs next.
type Queue struct {
	items []WorkItem
	next  int
}

// NewQueue builds a queue over every run in runSets, in order.
func NewQueue(runSets []*model.RunSet) *Queue {
	q := &Queue{}
	for _, rs := range runSets {
		for _, run := range rs.Runs {
			q.items = append(q.items, WorkItem{RunSet: rs, Run: run})
		}
	}
	return q
}

// Len returns the number of items left to pop.
func (q *Queue) Len() int {
	return len(q.items) - q.next
}

// Pop removes and returns the next item. The second return value is
// false once the queue is drained.
func (q *Queue) Pop() (WorkItem, bool) {
	if q.next >= len(q.items) {
		return WorkItem{}, false
	}
	item := q.items[q.next]
	q.next++
	return item, true
}

// Total returns the number of items the queue was built with.
func (q *Queue) Total() int {
	return len(q.items)
}
