package pipeline

import "sync"

// CancelToken is a level-triggered global flag plus a per-path set, per
// §5 "both global and per-path cancellation are level-triggered, checked
// at (a) dequeue time in each worker, (b) start of each stage."
type CancelToken struct {
	mu      sync.Mutex
	global  bool
	byPath  map[string]bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{byPath: make(map[string]bool)}
}

func (c *CancelToken) CancelAll() {
	c.mu.Lock()
	c.global = true
	c.mu.Unlock()
}

func (c *CancelToken) CancelPath(path string) {
	c.mu.Lock()
	c.byPath[path] = true
	c.mu.Unlock()
}

// Canceled reports whether the whole job is canceled.
func (c *CancelToken) Canceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global
}

// PathCanceled reports whether path specifically was canceled, or the
// whole job was.
func (c *CancelToken) PathCanceled(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global || c.byPath[path]
}
