package runtime

import "sync"

// Pipeline is one registered job type.
type Pipeline interface {
	Type() string
	Run(jc *Context) error
}

type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]Pipeline
}

func NewRegistry() *Registry {
	return &Registry{pipelines: map[string]Pipeline{}}
}

func (r *Registry) Register(p Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[p.Type()] = p
}

func (r *Registry) Get(jobType string) (Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[jobType]
	return p, ok
}

func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pipelines))
	for t := range r.pipelines {
		out = append(out, t)
	}
	return out
}
