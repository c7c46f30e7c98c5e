package identity

import (
	"sync"
)

// Cache deduplicates Account instances within one process lifetime. It is not
// a source of truth: fresh store resolutions always overwrite cached entries.
// Federated logins are additionally keyed by "{provider}.{externalSubject}"
// so repeated federated logins resolve to the same Account instance.
//
// Injected rather than package-global so tests construct isolated instances.
type Cache struct {
	mu        sync.RWMutex
	bySubject map[string]*Account
	federated map[string]*Account
}

// NewCache constructs an empty account cache.
func NewCache() *Cache {
	return &Cache{
		bySubject: make(map[string]*Account),
		federated: make(map[string]*Account),
	}
}

// Put stores an account by subject id, replacing any previous entry.
func (c *Cache) Put(account *Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bySubject[account.SubjectID] = account
}

// GetSubject returns the cached account for a subject id, or nil.
func (c *Cache) GetSubject(subjectID string) *Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bySubject[subjectID]
}

// GetOrCreateFederated returns the cached account for a federated key,
// creating it with the supplied constructor under the write lock so two
// concurrent logins for the same federated identity observe the same
// Account instance.
func (c *Cache) GetOrCreateFederated(key string, create func() *Account) *Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	if account, ok := c.federated[key]; ok {
		return account
	}
	account := create()
	c.federated[key] = account
	c.bySubject[account.SubjectID] = account
	return account
}

// Len reports the number of accounts cached by subject id.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bySubject)
}
