package auth

import "sync"

// Context holds the process-wide bearer token. It is handed to the API
// client at construction so token state never hides in a package global.
type Context struct {
	mu    sync.RWMutex
	token string
}

func NewContext() *Context {
	return &Context{}
}

// SetToken installs the bearer token attached to subsequent requests.
func (c *Context) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Clear removes the token; subsequent requests go out anonymous.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// Token returns the current bearer token, or empty when none is set.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}
