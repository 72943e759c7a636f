package store

import (
	"time"

	"modelman/internal/gateway"
)

// Resource identifies one independently loaded state slice.
type Resource string

// Loadable resources.
const (
	ResourceFolders      Resource = "folders"
	ResourceModels       Resource = "models"
	ResourceModelDetails Resource = "modelDetails"
)

// LoadingState tracks which resources have a load in flight.
type LoadingState struct {
	Folders      bool
	Models       bool
	ModelDetails bool
}

// ErrorState holds one human-readable message per resource plus a general
// advisory slot. Empty string means no error.
type ErrorState struct {
	Folders      string
	Models       string
	ModelDetails string
	General      string
}

// Filters is the structured criteria applied to model listings.
type Filters struct {
	Types     []string
	Tags      []string
	MinRating int
}

// AppState is the single state container driving the UI. Consumers only
// ever see copies; mutation happens through the reducer alone.
type AppState struct {
	Folders        []gateway.Folder
	ModelsByFolder map[string][]gateway.Model
	SelectedFolder string
	SelectedModel  *gateway.ModelDetail
	Loading        LoadingState
	SearchQuery    string
	Filters        Filters
	Errors         ErrorState
	Online         bool
	LastSync       time.Time
}

// NewAppState returns the initial state: online and optimistic, nothing
// loaded.
func NewAppState() AppState {
	return AppState{
		ModelsByFolder: make(map[string][]gateway.Model),
		Online:         true,
	}
}

// clone returns a deep copy safe to hand to subscribers.
func (s AppState) clone() AppState {
	out := s
	if s.Folders != nil {
		out.Folders = append([]gateway.Folder(nil), s.Folders...)
	}
	out.ModelsByFolder = make(map[string][]gateway.Model, len(s.ModelsByFolder))
	for id, models := range s.ModelsByFolder {
		out.ModelsByFolder[id] = append([]gateway.Model(nil), models...)
	}
	if s.SelectedModel != nil {
		detail := *s.SelectedModel
		out.SelectedModel = &detail
	}
	if s.Filters.Types != nil {
		out.Filters.Types = append([]string(nil), s.Filters.Types...)
	}
	if s.Filters.Tags != nil {
		out.Filters.Tags = append([]string(nil), s.Filters.Tags...)
	}
	return out
}

// action is the closed set of state transitions. Anything else passed to
// reduce is a no-op.
type action interface{ isAction() }

type setLoading struct {
	resource Resource
	value    bool
}

type setError struct {
	resource Resource
	message  string
}

type setGeneralError struct{ message string }

type setFolders struct{ folders []gateway.Folder }

type setModels struct {
	folderID string
	models   []gateway.Model
}

type setSelectedFolder struct{ folderID string }

type setSelectedModel struct{ detail *gateway.ModelDetail }

type patchModel struct {
	folderID string
	model    gateway.Model
}

type setSearchQuery struct{ query string }

type setFilters struct{ filters Filters }

type setOnlineStatus struct{ online bool }

type setLastSync struct{ at time.Time }

type clearErrors struct{}

type resetState struct{}

func (setLoading) isAction()        {}
func (setError) isAction()          {}
func (setGeneralError) isAction()   {}
func (setFolders) isAction()        {}
func (setModels) isAction()         {}
func (setSelectedFolder) isAction() {}
func (setSelectedModel) isAction()  {}
func (patchModel) isAction()        {}
func (setSearchQuery) isAction()    {}
func (setFilters) isAction()        {}
func (setOnlineStatus) isAction()   {}
func (setLastSync) isAction()       {}
func (clearErrors) isAction()       {}
func (resetState) isAction()        {}

// reduce is a pure total function from state and action to the next
// state. It never mutates its input; slices and maps are copied on write.
func reduce(s AppState, a action) AppState {
	switch a := a.(type) {
	case setLoading:
		switch a.resource {
		case ResourceFolders:
			s.Loading.Folders = a.value
		case ResourceModels:
			s.Loading.Models = a.value
		case ResourceModelDetails:
			s.Loading.ModelDetails = a.value
		}
		return s

	case setError:
		switch a.resource {
		case ResourceFolders:
			s.Errors.Folders = a.message
		case ResourceModels:
			s.Errors.Models = a.message
		case ResourceModelDetails:
			s.Errors.ModelDetails = a.message
		}
		return s

	case setGeneralError:
		s.Errors.General = a.message
		return s

	case setFolders:
		s.Folders = a.folders
		s.Errors.Folders = ""
		return s

	case setModels:
		next := make(map[string][]gateway.Model, len(s.ModelsByFolder)+1)
		for id, models := range s.ModelsByFolder {
			next[id] = models
		}
		next[a.folderID] = a.models
		s.ModelsByFolder = next
		s.Errors.Models = ""
		return s

	case setSelectedFolder:
		s.SelectedFolder = a.folderID
		return s

	case setSelectedModel:
		s.SelectedModel = a.detail
		s.Errors.ModelDetails = ""
		return s

	case patchModel:
		models, ok := s.ModelsByFolder[a.folderID]
		if !ok {
			return s
		}
		patched := make([]gateway.Model, len(models))
		copy(patched, models)
		for i := range patched {
			if patched[i].ID == a.model.ID {
				patched[i] = a.model
				break
			}
		}
		next := make(map[string][]gateway.Model, len(s.ModelsByFolder))
		for id, m := range s.ModelsByFolder {
			next[id] = m
		}
		next[a.folderID] = patched
		s.ModelsByFolder = next
		return s

	case setSearchQuery:
		s.SearchQuery = a.query
		return s

	case setFilters:
		s.Filters = a.filters
		return s

	case setOnlineStatus:
		s.Online = a.online
		return s

	case setLastSync:
		s.LastSync = a.at
		return s

	case clearErrors:
		s.Errors = ErrorState{}
		return s

	case resetState:
		next := NewAppState()
		next.Online = s.Online
		return next

	default:
		return s
	}
}
