package eviction

import "container/list"

// lru keeps keys in recency order: front is the most recently used.
type lru struct {
	order *list.List
	nodes map[string]*list.Element
}

func newLRU() *lru {
	return &lru{order: list.New(), nodes: make(map[string]*list.Element)}
}

// OnGet marks k as most recently used.
func (l *lru) OnGet(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.MoveToFront(el)
	}
}

// OnPut starts tracking k as most recently used. A tracked key is only touched.
func (l *lru) OnPut(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.MoveToFront(el)
		return
	}
	l.nodes[k] = l.order.PushFront(k)
}

// Evict drops the key at the back of the list.
func (l *lru) Evict() string {
	el := l.order.Back()
	if el == nil {
		return ""
	}
	k := l.order.Remove(el).(string)
	delete(l.nodes, k)
	return k
}

func (l *lru) Remove(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.Remove(el)
		delete(l.nodes, k)
	}
}

func (l *lru) Len() int { return len(l.nodes) }
