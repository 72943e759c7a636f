// Package store owns the application state. All mutation flows through a
// pure reducer; consumers receive snapshots and call named intents that
// orchestrate the resource gateway, connectivity and health signals.
package store

import (
	"context"
	"sync"
	"time"

	"modelman/internal/connectivity"
	"modelman/internal/gateway"
	"modelman/internal/health"
	"modelman/internal/transport"
	"modelman/pkg/logger"
)

// healthAdvisory is the general error set while the backend is reported
// unhealthy. Recovery clears exactly this message and nothing else.
const healthAdvisory = "Backend is not responding; displayed data may be stale"

// Backend is the slice of the resource gateway the store drives.
// *gateway.Gateway satisfies it.
type Backend interface {
	ListFolders(ctx context.Context) ([]gateway.Folder, error)
	ListModels(ctx context.Context, folderID string) ([]gateway.Model, error)
	GetModel(ctx context.Context, modelID string) (*gateway.ModelDetail, error)
	Search(ctx context.Context, query, folderID string) ([]gateway.Model, error)
	UpdateMetadata(ctx context.Context, modelID string, patch gateway.MetadataPatch) (*gateway.ModelDetail, error)
}

// CatalogCache is the optional offline snapshot layer. Loads write through
// to it; ReadCache serves from it when offline.
type CatalogCache interface {
	SaveFolders(folders []gateway.Folder) error
	SaveModels(folderID string, models []gateway.Model) error
	Folders() ([]gateway.Folder, error)
	Models(folderID string) ([]gateway.Model, error)
}

// Store mediates between intents and the backend while keeping AppState
// consistent under overlapping loads.
type Store struct {
	backend Backend
	conn    connectivity.Watcher
	monitor *health.Monitor
	cache   CatalogCache
	now     func() time.Time

	mu    sync.Mutex
	state AppState
	// generations reject completions of loads that were superseded while
	// in flight; both stale successes and stale failures are dropped.
	generations map[Resource]uint64

	subMu   sync.Mutex
	subs    map[int]func(AppState)
	nextSub int

	unsubConn   func()
	unsubHealth func()
}

// Options carries the optional collaborators.
type Options struct {
	Connectivity connectivity.Watcher
	Monitor      *health.Monitor
	Cache        CatalogCache
	Now          func() time.Time
}

// New creates a store over backend and subscribes to the connectivity and
// health signals when provided.
func New(backend Backend, opts Options) *Store {
	s := &Store{
		backend:     backend,
		conn:        opts.Connectivity,
		monitor:     opts.Monitor,
		cache:       opts.Cache,
		now:         opts.Now,
		state:       NewAppState(),
		generations: make(map[Resource]uint64),
		subs:        make(map[int]func(AppState)),
	}
	if s.now == nil {
		s.now = time.Now
	}

	if s.conn != nil {
		s.state.Online = s.conn.Online()
		s.unsubConn = s.conn.Subscribe(s.handleConnectivity)
	}
	if s.monitor != nil {
		s.unsubHealth = s.monitor.Subscribe(s.handleHealth)
	}
	return s
}

// Close detaches the store from its signal sources.
func (s *Store) Close() {
	if s.unsubConn != nil {
		s.unsubConn()
	}
	if s.unsubHealth != nil {
		s.unsubHealth()
	}
}

// State returns a deep-copied snapshot of the current state.
func (s *Store) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state change
// and returns an unsubscribe handle.
func (s *Store) Subscribe(fn func(AppState)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// dispatch applies one or more actions atomically and notifies
// subscribers with the resulting snapshot.
func (s *Store) dispatch(actions ...action) {
	s.mu.Lock()
	for _, a := range actions {
		s.state = reduce(s.state, a)
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Store) notify(snapshot AppState) {
	s.subMu.Lock()
	subs := make([]func(AppState), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// beginLoad rejects when offline, bumps the resource generation and flips
// the loading flag. The returned commit applies outcome actions only if
// the load has not been superseded; its bool reports acceptance.
func (s *Store) beginLoad(resource Resource) (commit func(...action) bool, ok bool) {
	s.mu.Lock()
	if !s.state.Online {
		s.state = reduce(s.state, setError{resource: resource, message: transport.OfflineError("").Message})
		snapshot := s.state.clone()
		s.mu.Unlock()
		s.notify(snapshot)
		return nil, false
	}
	s.generations[resource]++
	gen := s.generations[resource]
	s.state = reduce(s.state, setLoading{resource: resource, value: true})
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.notify(snapshot)

	commit = func(actions ...action) bool {
		s.mu.Lock()
		if s.generations[resource] != gen {
			s.mu.Unlock()
			log := logger.With("store")
			log.Debug().
				Str("resource", string(resource)).
				Msg("Dropping superseded load result")
			return false
		}
		for _, a := range actions {
			s.state = reduce(s.state, a)
		}
		s.state = reduce(s.state, setLoading{resource: resource, value: false})
		snap := s.state.clone()
		s.mu.Unlock()
		s.notify(snap)
		return true
	}
	return commit, true
}

// LoadFolders fetches the folder list. Failures are buffered into the
// folders error slot, never returned.
func (s *Store) LoadFolders(ctx context.Context) {
	commit, ok := s.beginLoad(ResourceFolders)
	if !ok {
		return
	}

	folders, err := s.backend.ListFolders(ctx)
	if err != nil {
		commit(setError{resource: ResourceFolders, message: humanMessage(err)})
		return
	}
	if commit(setFolders{folders: folders}, setLastSync{at: s.now()}) {
		s.writeCacheFolders(folders)
	}
}

// LoadModels fetches the model list of one folder, replacing the slice
// wholesale. Failures are buffered into the models error slot.
func (s *Store) LoadModels(ctx context.Context, folderID string) {
	commit, ok := s.beginLoad(ResourceModels)
	if !ok {
		return
	}

	models, err := s.backend.ListModels(ctx, folderID)
	if err != nil {
		commit(setError{resource: ResourceModels, message: humanMessage(err)})
		return
	}
	if commit(setModels{folderID: folderID, models: models}, setLastSync{at: s.now()}) {
		s.writeCacheModels(folderID, models)
	}
}

// LoadModelDetails fetches the enriched record of one model into the
// selected-model slot. Failures are buffered into the details error slot.
func (s *Store) LoadModelDetails(ctx context.Context, modelID string) {
	commit, ok := s.beginLoad(ResourceModelDetails)
	if !ok {
		return
	}

	detail, err := s.backend.GetModel(ctx, modelID)
	if err != nil {
		commit(setError{resource: ResourceModelDetails, message: humanMessage(err)})
		return
	}
	commit(setSelectedModel{detail: detail}, setLastSync{at: s.now()})
}

// SelectFolder records the selection and loads its models.
func (s *Store) SelectFolder(ctx context.Context, folderID string) {
	s.dispatch(setSelectedFolder{folderID: folderID})
	s.LoadModels(ctx, folderID)
}

// Search queries models by name. Unlike loads, the failure is returned to
// the caller rather than buffered; the query itself is recorded either
// way.
func (s *Store) Search(ctx context.Context, query string) ([]gateway.Model, error) {
	s.dispatch(setSearchQuery{query: query})

	s.mu.Lock()
	online := s.state.Online
	folderID := s.state.SelectedFolder
	s.mu.Unlock()
	if !online {
		return nil, transport.OfflineError("search models")
	}

	return s.backend.Search(ctx, query, folderID)
}

// UpdateModelMetadata patches a model's metadata. On success the selected
// model is refreshed and, when the owning folder's list is loaded, the
// matching entry is replaced in place without a reload. The failure is
// returned to the caller, not buffered.
func (s *Store) UpdateModelMetadata(ctx context.Context, modelID string, patch gateway.MetadataPatch) error {
	s.mu.Lock()
	online := s.state.Online
	s.mu.Unlock()
	if !online {
		return transport.OfflineError("update metadata")
	}

	detail, err := s.backend.UpdateMetadata(ctx, modelID, patch)
	if err != nil {
		return err
	}

	s.mu.Lock()
	actions := []action{patchModel{folderID: detail.FolderID, model: detail.Model}}
	if s.state.SelectedModel != nil && s.state.SelectedModel.ID == detail.ID {
		actions = append(actions, setSelectedModel{detail: detail})
	}
	for _, a := range actions {
		s.state = reduce(s.state, a)
	}
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.notify(snapshot)
	return nil
}

// SetSearchQuery records the query without issuing a search.
func (s *Store) SetSearchQuery(query string) {
	s.dispatch(setSearchQuery{query: query})
}

// SetFilters replaces the filter criteria.
func (s *Store) SetFilters(filters Filters) {
	s.dispatch(setFilters{filters: filters})
}

// SelectModel records the selection without fetching details.
func (s *Store) SelectModel(detail *gateway.ModelDetail) {
	s.dispatch(setSelectedModel{detail: detail})
}

// ClearErrors clears every error slot.
func (s *Store) ClearErrors() {
	s.dispatch(clearErrors{})
}

// Reset returns the state to its initial value, preserving connectivity.
func (s *Store) Reset() {
	s.dispatch(resetState{})
}

// LoadFromCache fills folders (and the selected folder's models) from the
// offline catalog cache. It is an explicit intent: regular loads never
// fall back to the cache silently.
func (s *Store) LoadFromCache() error {
	if s.cache == nil {
		return nil
	}
	folders, err := s.cache.Folders()
	if err != nil {
		return err
	}
	actions := []action{setFolders{folders: folders}}

	s.mu.Lock()
	folderID := s.state.SelectedFolder
	s.mu.Unlock()
	if folderID != "" {
		models, err := s.cache.Models(folderID)
		if err != nil {
			return err
		}
		actions = append(actions, setModels{folderID: folderID, models: models})
	}
	s.dispatch(actions...)
	return nil
}

// handleConnectivity mirrors the watcher into state. Coming back online
// with an empty, errored folder list triggers exactly one automatic
// folder reload; no other resource is replayed.
func (s *Store) handleConnectivity(online bool) {
	s.mu.Lock()
	s.state = reduce(s.state, setOnlineStatus{online: online})
	reload := online && len(s.state.Folders) == 0 && s.state.Errors.Folders != ""
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.notify(snapshot)

	if reload {
		log := logger.With("store")
		log.Info().Msg("Back online, reloading folders")
		go s.LoadFolders(context.Background())
	}
}

// handleHealth sets the general advisory while the backend is unhealthy
// and the machine is otherwise online, and clears only that advisory on
// recovery.
func (s *Store) handleHealth(healthy bool) {
	s.mu.Lock()
	switch {
	case !healthy && s.state.Online:
		s.state = reduce(s.state, setGeneralError{message: healthAdvisory})
	case healthy && s.state.Errors.General == healthAdvisory:
		s.state = reduce(s.state, setGeneralError{message: ""})
	default:
		s.mu.Unlock()
		return
	}
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.notify(snapshot)
}

func (s *Store) writeCacheFolders(folders []gateway.Folder) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveFolders(folders); err != nil {
		log := logger.With("store")
		log.Warn().Err(err).Msg("Failed to cache folders")
	}
}

func (s *Store) writeCacheModels(folderID string, models []gateway.Model) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveModels(folderID, models); err != nil {
		log := logger.With("store")
		log.Warn().Err(err).Msg("Failed to cache models")
	}
}

// humanMessage converts a transport failure into the string shown to the
// user, falling back to a generic message for unrecognized failures.
func humanMessage(err error) string {
	te := transport.AsError(err)
	switch te.Code {
	case transport.CodeNetwork:
		return "Cannot reach the backend. Check your connection."
	case transport.CodeTimeout:
		return "The backend took too long to respond."
	case transport.CodeCanceled:
		return "The request was canceled."
	case transport.CodeOffline:
		return te.Message
	case transport.CodeHTTP:
		if te.IsNotFound() {
			return "The requested resource was not found."
		}
		if te.IsServerError() {
			return "The backend reported an internal error."
		}
		return te.Message
	default:
		return "Something went wrong. Please try again."
	}
}
