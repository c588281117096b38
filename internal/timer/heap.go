package timer

import "container/heap"

// regHeap implements container/heap.Interface for Registration, sorted by
// trigger time (earliest first).
type regHeap []Registration

func (h regHeap) Len() int           { return len(h) }
func (h regHeap) Less(i, j int) bool { return h[i].At.Before(h[j].At) }
func (h regHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *regHeap) Push(x any) {
	*h = append(*h, x.(Registration))
}

func (h *regHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *regHeap, reg Registration) {
	heap.Push(h, reg)
}

func heapPop(h *regHeap) Registration {
	return heap.Pop(h).(Registration)
}

// heapRemoveKey removes the registration with the given key, if present.
func heapRemoveKey(h *regHeap, key Key) bool {
	for i, reg := range *h {
		if reg.Key == key {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

// heapRemoveReminder removes every registration belonging to a reminder
// and returns how many were dropped.
func heapRemoveReminder(h *regHeap, reminderID string) int {
	removed := 0
	for {
		found := false
		for i, reg := range *h {
			if reg.Key.ReminderID == reminderID {
				// Restart the scan: Remove reorders the slice.
				heap.Remove(h, i)
				removed++
				found = true
				break
			}
		}
		if !found {
			return removed
		}
	}
}
