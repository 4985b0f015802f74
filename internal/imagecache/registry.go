package imagecache

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// handlePrefix marks a URL as a local blob handle
const handlePrefix = "blob:ladle/"

// Handle is a locally valid, revocable reference to image bytes held in a
// Registry
type Handle struct {
	ID  string
	URL string
}

// IsZero reports whether h is the empty handle
func (h Handle) IsZero() bool {
	return h.ID == ""
}

// ParseHandle turns a handle URL back into a Handle
func ParseHandle(url string) (Handle, bool) {
	id, ok := strings.CutPrefix(url, handlePrefix)
	if !ok || id == "" {
		return Handle{}, false
	}
	return Handle{ID: id, URL: url}, true
}

type blob struct {
	data        []byte
	contentType string
	refs        int
}

// Registry holds image bytes behind handles. A handle stays valid until every
// holder has revoked it.
type Registry struct {
	mu    sync.RWMutex
	blobs map[string]*blob
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{blobs: make(map[string]*blob)}
}

// Create stores data and returns a new handle holding one reference
func (r *Registry) Create(data []byte, contentType string) Handle {
	id := uuid.NewString()

	r.mu.Lock()
	r.blobs[id] = &blob{data: data, contentType: contentType, refs: 1}
	r.mu.Unlock()

	return Handle{ID: id, URL: handlePrefix + id}
}

// Retain adds a reference to a live handle. It reports false if the handle
// was already freed.
func (r *Registry) Retain(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blobs[h.ID]
	if !ok {
		return false
	}
	b.refs++
	return true
}

// Open returns the bytes and content type behind a live handle
func (r *Registry) Open(h Handle) ([]byte, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[h.ID]
	if !ok {
		return nil, "", false
	}
	return b.data, b.contentType, true
}

// Revoke drops one reference and frees the bytes with the last one. Revoking
// a freed or unknown handle is a no-op.
func (r *Registry) Revoke(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blobs[h.ID]
	if !ok {
		return
	}
	b.refs--
	if b.refs <= 0 {
		delete(r.blobs, h.ID)
	}
}

// Len returns the number of live handles
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
