package eviction

import "container/list"

// lfuNode is one tracked key and its position inside its frequency bucket.
type lfuNode struct {
	key  string
	freq int
	el   *list.Element
}

/*
lfu groups keys into buckets by access frequency. Inside a bucket the front
holds the key that reached that frequency most recently, so evicting from the
back of the lowest bucket breaks ties by age.
*/
type lfu struct {
	nodes   map[string]*lfuNode
	buckets map[int]*list.List

	// minFreq is the lowest non-empty bucket, kept so Evict does not scan.
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		nodes:   make(map[string]*lfuNode),
		buckets: make(map[int]*list.List),
	}
}

// OnGet moves k one bucket up.
func (l *lfu) OnGet(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}
	old := n.freq
	l.unlink(n)
	if l.minFreq == old && l.buckets[old] == nil {
		l.minFreq = old + 1
	}
	n.freq++
	l.link(n)
}

// OnPut starts k at frequency 1. A tracked key counts as a use.
func (l *lfu) OnPut(k string) {
	if _, ok := l.nodes[k]; ok {
		l.OnGet(k)
		return
	}
	n := &lfuNode{key: k, freq: 1}
	l.nodes[k] = n
	l.link(n)
	l.minFreq = 1
}

// Evict drops the oldest key in the lowest frequency bucket.
func (l *lfu) Evict() string {
	if len(l.nodes) == 0 {
		return ""
	}
	b := l.buckets[l.minFreq]
	if b == nil {
		l.recomputeMin()
		b = l.buckets[l.minFreq]
	}
	n := b.Back().Value.(*lfuNode)
	l.unlink(n)
	delete(l.nodes, n.key)
	if l.buckets[l.minFreq] == nil {
		l.recomputeMin()
	}
	return n.key
}

func (l *lfu) Remove(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}
	l.unlink(n)
	delete(l.nodes, k)
	if n.freq == l.minFreq && l.buckets[n.freq] == nil {
		l.recomputeMin()
	}
}

func (l *lfu) Len() int { return len(l.nodes) }

func (l *lfu) link(n *lfuNode) {
	b := l.buckets[n.freq]
	if b == nil {
		b = list.New()
		l.buckets[n.freq] = b
	}
	n.el = b.PushFront(n)
}

// unlink removes n from its bucket and drops the bucket once empty.
func (l *lfu) unlink(n *lfuNode) {
	b := l.buckets[n.freq]
	b.Remove(n.el)
	n.el = nil
	if b.Len() == 0 {
		delete(l.buckets, n.freq)
	}
}

func (l *lfu) recomputeMin() {
	l.minFreq = 0
	for f := range l.buckets {
		if l.minFreq == 0 || f < l.minFreq {
			l.minFreq = f
		}
	}
}
