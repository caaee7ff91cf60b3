package jobs

// jobHeap orders queued handles for container/heap.
// Higher priority first; equal priorities by submission sequence (FIFO).
// Each handle tracks its heap index so cancellation can remove it in place.
type jobHeap []*Handle

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	// Higher priority comes first (max-heap behavior)
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority > h[j].job.Priority
	}
	// Same priority: lower sequence number (earlier) comes first
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x any) {
	item := x.(*Handle)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // Avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// peek returns the head without removing it.
func (h jobHeap) peek() *Handle {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// QueueStats reports queue depth by priority band.
type QueueStats struct {
	Total       int `json:"total"`
	Urgent      int `json:"urgent"`
	CurrentPage int `json:"current_page"`
	Preload     int `json:"preload"`
	Thumbnail   int `json:"thumbnail"`
	Maintenance int `json:"maintenance"`
}

func (h jobHeap) stats() QueueStats {
	stats := QueueStats{Total: len(h)}
	for _, item := range h {
		switch p := item.job.Priority; {
		case p >= PriorityUrgent:
			stats.Urgent++
		case p >= PriorityCurrentPage:
			stats.CurrentPage++
		case p >= PriorityPreload:
			stats.Preload++
		case p >= PriorityThumbnail:
			stats.Thumbnail++
		default:
			stats.Maintenance++
		}
	}
	return stats
}
