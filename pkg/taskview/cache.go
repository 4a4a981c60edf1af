package taskview

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/Skotchmaster/tasktracker/pkg/client"
)

// ErrStale is returned by Fetch when the read was cancelled or overtaken by a
// write before it completed. Its result is discarded.
var ErrStale = errors.New("taskview: query superseded")

// QueryKey identifies one cached task listing.
type QueryKey struct {
	ProjectID string
	Status    client.Status
	Sort      string
}

func (k QueryKey) Query() client.TaskQuery {
	return client.TaskQuery{Status: k.Status, Sort: k.Sort}
}

type Fetcher func(ctx context.Context) ([]client.Task, error)

type entry struct {
	data    []client.Task
	loaded  bool
	fetcher Fetcher

	// gen moves on every write and cancellation. A read only lands if gen
	// is unchanged since it started.
	gen      uint64
	inflight map[uint64]context.CancelFunc
}

// Cache is a concurrency-safe cache of task listings.
type Cache struct {
	mu      sync.Mutex
	seq     uint64
	entries map[QueryKey]*entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[QueryKey]*entry)}
}

func (c *Cache) entry(key QueryKey) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{inflight: make(map[uint64]context.CancelFunc)}
		c.entries[key] = e
	}
	return e
}

// Fetch runs fetch for key and stores its result. The fetcher is remembered
// so Invalidate can run it again.
func (c *Cache) Fetch(ctx context.Context, key QueryKey, fetch Fetcher) ([]client.Task, error) {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	e := c.entry(key)
	e.fetcher = fetch
	c.seq++
	id := c.seq
	e.inflight[id] = cancel
	gen := e.gen
	c.mu.Unlock()

	tasks, err := fetch(fctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(e.inflight, id)

	if e.gen != gen {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	e.data = slices.Clone(tasks)
	e.loaded = true
	return slices.Clone(tasks), nil
}

// CancelQueries aborts every in-flight read for the project. Reads that
// finish anyway are discarded.
func (c *Cache) CancelQueries(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if key.ProjectID != projectID {
			continue
		}
		e.gen++
		for id, cancel := range e.inflight {
			cancel()
			delete(e.inflight, id)
		}
	}
}

// Snapshot returns a copy of the cached listing and whether one exists.
func (c *Cache) Snapshot(key QueryKey) ([]client.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.loaded {
		return nil, false
	}
	return slices.Clone(e.data), true
}

func (c *Cache) Put(key QueryKey, tasks []client.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	e.gen++
	e.data = slices.Clone(tasks)
	e.loaded = true
}

// Invalidate refetches every listing of the project that has a fetcher.
func (c *Cache) Invalidate(ctx context.Context, projectID string) error {
	type job struct {
		key   QueryKey
		fetch Fetcher
	}

	c.mu.Lock()
	var jobs []job
	for key, e := range c.entries {
		if key.ProjectID == projectID && e.fetcher != nil {
			jobs = append(jobs, job{key: key, fetch: e.fetcher})
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, j := range jobs {
		if _, err := c.Fetch(ctx, j.key, j.fetch); err != nil && !errors.Is(err, ErrStale) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
