package cron

import "context"

// Job is one unit of background maintenance, such as cancelling orders
// whose online payment never arrived.
type Job interface {
	// Name identifies the job in logs and metrics labels.
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs a worker executes each sweep, in registration
// order. Duplicate names are rejected so metrics stay unambiguous.
type Registry struct {
	jobs  []Job
	names map[string]bool
}

// NewRegistry builds a registry from the given jobs, skipping nils.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{names: map[string]bool{}}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job unless one with the same name is already present.
func (r *Registry) Register(job Job) {
	if job == nil || r.names[job.Name()] {
		return
	}
	r.names[job.Name()] = true
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs in execution order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
