package updater

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/KalleV/WSAddonUpdater/internal/addon"
	"github.com/KalleV/WSAddonUpdater/internal/catalog"
	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
)

// Messages emitted by the stages
const (
	SearchStartMessage = "Searching for addon updates..."
)

// Resolver maps a local addon name to its catalog entry
type Resolver interface {
	Resolve(ctx context.Context, localName string) (addon.Record, error)
}

// ResolverFactory builds the resolver for one run. Warnings passed to warn
// end up in the run's warning queue.
type ResolverFactory func(warn catalog.WarnFunc) Resolver

// RecordReader looks up stored addon records by catalog name or by the
// folder they were installed for
type RecordReader interface {
	Get(name string) (addon.Record, bool)
	Lookup(folder string) (addon.Record, bool)
}

// AddonInstaller installs one resolved addon
type AddonInstaller interface {
	Install(ctx context.Context, folder string, rec addon.Record) error
}

// WorkItem is a confirmed update: the local addon and the entry to install.
type WorkItem struct {
	LocalName string
	Remote    addon.Record
}

// Pipeline wires the search and install stages of an update run.
type Pipeline struct {
	newResolver ResolverFactory
	records     RecordReader
	installer   AddonInstaller
	createdAt   func(name string) (time.Time, error)
}

// PipelineOption is a functional option for configuring Pipeline
type PipelineOption func(*Pipeline)

// WithCreationTimeFunc overrides how the creation time of a local addon
// folder is read.
func WithCreationTimeFunc(fn func(name string) (time.Time, error)) PipelineOption {
	return func(p *Pipeline) {
		p.createdAt = fn
	}
}

// NewPipeline creates a pipeline for the addons installed in dir.
func NewPipeline(newResolver ResolverFactory, records RecordReader, installer AddonInstaller, dir string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		newResolver: newResolver,
		records:     records,
		installer:   installer,
		createdAt: func(name string) (time.Time, error) {
			return addonCreationTime(dir, name)
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run is one update run in flight.
type Run struct {
	id       string
	tasks    chan WorkItem
	progress mailbox[ProgressEvent]
	warnings mailbox[WarningEvent]
	done     chan struct{}

	mu       sync.Mutex
	report   Report
	failures failures
}

// Start launches the search and install stages for names and returns
// immediately. Duplicate names are searched once. Cancelling ctx stops both
// stages at their next check.
func (p *Pipeline) Start(ctx context.Context, names []string) *Run {
	names = dedupe(names)

	r := &Run{
		id:    uuid.NewString(),
		tasks: make(chan WorkItem, len(names)),
		done:  make(chan struct{}),
	}
	r.report = Report{RunID: r.id, Resolved: make(map[string]string)}

	resolver := p.newResolver(func(name, message string) {
		r.warnings.Put(WarningEvent{
			Addon:   name,
			Message: message,
			Err:     fmt.Errorf("%w: %s", catalog.ErrNotFound, name),
		})
	})

	logger.Debug("run %s: checking %d addons", r.id, len(names))

	var wg conc.WaitGroup
	wg.Go(func() { p.search(ctx, r, resolver, names) })
	wg.Go(func() { p.install(ctx, r) })

	go func() {
		defer close(r.done)
		wg.Wait()

		r.mu.Lock()
		r.report.Cancelled = ctx.Err() != nil
		r.report.Err = r.failures.err()
		r.mu.Unlock()
		logger.Debug("run %s: finished", r.id)
	}()

	return r
}

// search resolves every name and queues the ones that need an update.
// It closes the task channel when it returns.
func (p *Pipeline) search(ctx context.Context, r *Run, resolver Resolver, names []string) {
	defer close(r.tasks)

	r.progress.Put(ProgressEvent{Stage: StageSearch, Message: SearchStartMessage})

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}

		r.progress.Put(ProgressEvent{
			Stage:   StageSearch,
			Addon:   name,
			Message: fmt.Sprintf("Searching for '%s'...", name),
		})

		remote, err := resolver.Resolve(ctx, name)
		r.mu.Lock()
		r.report.Searched++
		r.mu.Unlock()
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				r.appendTo(&r.report.Missing, name)
			}
			continue
		}

		r.mu.Lock()
		r.report.Resolved[name] = remote.Name
		r.mu.Unlock()

		if !NeedsUpdate(p.storedRecord(name, remote), remote, p.creationTime(name)) {
			r.appendTo(&r.report.Current, name)
			continue
		}

		r.appendTo(&r.report.Queued, name)
		r.tasks <- WorkItem{LocalName: name, Remote: remote}
	}
}

// install drains the task channel until it is closed or ctx is cancelled.
func (p *Pipeline) install(ctx context.Context, r *Run) {
	processed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-r.tasks:
			if !ok {
				return
			}

			processed++
			r.progress.Put(ProgressEvent{
				Stage:   StageInstall,
				Addon:   item.LocalName,
				Message: fmt.Sprintf("Downloading %s...", item.Remote.Name),
				Done:    processed,
				Total:   r.queued(),
			})

			if err := p.installer.Install(ctx, item.LocalName, item.Remote); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.appendTo(&r.report.Failed, item.LocalName)
				r.mu.Lock()
				r.failures.add(err)
				r.mu.Unlock()
				r.warnings.Put(WarningEvent{
					Addon:   item.LocalName,
					Message: fmt.Sprintf("Unable to install '%s'", item.LocalName),
					Err:     err,
				})
				continue
			}

			r.appendTo(&r.report.Installed, item.LocalName)
		}
	}
}

// storedRecord looks up the local folder first, then the catalog name.
func (p *Pipeline) storedRecord(name string, remote addon.Record) *addon.Record {
	if rec, ok := p.records.Lookup(name); ok {
		return &rec
	}
	if rec, ok := p.records.Get(remote.Name); ok {
		return &rec
	}
	return nil
}

// creationTime returns the zero time when the folder cannot be read, which
// makes the addon eligible for an update.
func (p *Pipeline) creationTime(name string) time.Time {
	created, err := p.createdAt(name)
	if err != nil {
		logger.Warn("failed to read creation time of %s: %v", name, err)
		return time.Time{}
	}
	return created
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// DrainProgress returns the progress events queued since the last call.
func (r *Run) DrainProgress() []ProgressEvent {
	return r.progress.Drain()
}

// DrainWarnings returns the warnings queued since the last call.
func (r *Run) DrainWarnings() []WarningEvent {
	return r.warnings.Drain()
}

// Done is closed once both stages have returned.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run is finished and returns its report.
func (r *Run) Wait() Report {
	<-r.done
	return r.snapshot()
}

// PendingTasks returns the number of queued tasks not yet picked up.
func (r *Run) PendingTasks() int {
	return len(r.tasks)
}

func (r *Run) queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.report.Queued)
}

func (r *Run) appendTo(list *[]string, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*list = append(*list, name)
}

func (r *Run) snapshot() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := r.report
	report.Queued = append([]string(nil), r.report.Queued...)
	report.Installed = append([]string(nil), r.report.Installed...)
	report.Current = append([]string(nil), r.report.Current...)
	report.Missing = append([]string(nil), r.report.Missing...)
	report.Failed = append([]string(nil), r.report.Failed...)
	report.Resolved = make(map[string]string, len(r.report.Resolved))
	for local, remote := range r.report.Resolved {
		report.Resolved[local] = remote
	}
	return report
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
