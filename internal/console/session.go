package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tphummel/machine_registry/internal/apiclient"
	"github.com/tphummel/machine_registry/internal/models"
	"github.com/tphummel/machine_registry/internal/mutation"
	"github.com/tphummel/machine_registry/internal/store"
	"github.com/tphummel/machine_registry/internal/view"
)

// MsgLoadFailed is shown when the collection cannot be fetched.
const MsgLoadFailed = "Failed to load machines."

// Loader loads the machine collection.
type Loader interface {
	Load(ctx context.Context) ([]models.Machine, error)
}

// Options configures a Session.
type Options struct {
	Store       Loader
	Backend     mutation.Backend
	Credentials apiclient.CredentialProvider
	Downloader  mutation.Downloader
	Logger      *slog.Logger
	// OnReload runs after every completed load, successful or not.
	OnReload func([]models.Machine)
}

// Session owns the State of one console view. The state lock is never held
// across a network call.
type Session struct {
	loader   Loader
	ctrl     *mutation.Controller
	logger   *slog.Logger
	onReload func([]models.Machine)

	mu    sync.Mutex
	state State

	noticeMu sync.Mutex
	notices  []mutation.Notice

	mount sync.Once
}

// NewSession creates a Session in its initial state.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		loader:   opts.Store,
		logger:   logger,
		onReload: opts.OnReload,
		state:    Initial(),
	}
	s.ctrl = &mutation.Controller{
		Backend:     opts.Backend,
		Reloader:    reloader{s},
		Credentials: opts.Credentials,
		Notifier:    s,
		Downloader:  opts.Downloader,
		Logger:      logger,
	}
	return s
}

type reloader struct{ s *Session }

func (r reloader) Load(ctx context.Context) ([]models.Machine, error) { return r.s.Reload(ctx) }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a to the current state.
func (s *Session) Dispatch(a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := Apply(s.state, a)
	s.state = next
	return next, err
}

// Mount performs the initial load exactly once.
func (s *Session) Mount(ctx context.Context) {
	s.mount.Do(func() {
		_, _ = s.Reload(ctx)
	})
}

// Reload fetches the collection and replaces the displayed records. A
// malformed list response only empties the list; transport failures also
// queue a notice.
func (s *Session) Reload(ctx context.Context) ([]models.Machine, error) {
	s.Dispatch(LoadStarted{})
	records, err := s.loader.Load(ctx)
	s.Dispatch(Loaded{Records: records})

	if err != nil {
		var shape *store.LoadShapeError
		if !errors.As(err, &shape) {
			s.Notify(mutation.Notice{Level: mutation.LevelError, Message: MsgLoadFailed})
		}
	}
	if s.onReload != nil {
		s.onReload(records)
	}
	return records, err
}

// Edit opens the form for a loaded record.
func (s *Session) Edit(id int64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.Find(id)
	if !ok {
		return s.state, fmt.Errorf("%w: %d", ErrRecordNotFound, id)
	}
	s.state = Reduce(s.state, OpenEdit{Record: rec})
	return s.state, nil
}

// Submit sends the open draft. On success the collection is reloaded and the
// form is closed and reset; on failure the form stays open.
func (s *Session) Submit(ctx context.Context) (*models.Machine, error) {
	st := s.State()
	if !st.FormOpen {
		return nil, ErrFormClosed
	}
	mode := mutation.ModeCreate
	if st.Editing {
		mode = mutation.ModeEdit
	}

	saved, err := s.ctrl.Submit(ctx, st.Draft, mode, st.EditID)
	if err != nil {
		return nil, err
	}
	s.Dispatch(SubmitSucceeded{})
	return saved, nil
}

// Delete removes a record once confirm approves.
func (s *Session) Delete(ctx context.Context, id int64, confirm mutation.Confirmer) error {
	return s.ctrl.Delete(ctx, id, confirm)
}

// Export downloads the document of a loaded record and returns its file name.
func (s *Session) Export(ctx context.Context, id int64, kind string) (string, error) {
	rec, ok := s.State().Find(id)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrRecordNotFound, id)
	}
	return s.ctrl.Export(ctx, rec, kind)
}

// Notify queues a notice for the UI.
func (s *Session) Notify(n mutation.Notice) {
	s.noticeMu.Lock()
	s.notices = append(s.notices, n)
	s.noticeMu.Unlock()
	if n.Level == mutation.LevelError {
		s.logger.Warn("notice", "message", n.Message)
	}
}

// Notices drains the queued notices.
func (s *Session) Notices() []mutation.Notice {
	s.noticeMu.Lock()
	defer s.noticeMu.Unlock()
	out := s.notices
	s.notices = nil
	if out == nil {
		out = []mutation.Notice{}
	}
	return out
}

// Snapshot is the rendered list screen.
type Snapshot struct {
	Rows         []models.Machine `json:"rows"`
	Total        int              `json:"total"`
	ModelOptions []string         `json:"model_options"`
	Query        string           `json:"query"`
	ModelFilter  string           `json:"model_filter"`
	Sort         view.SortConfig  `json:"sort"`
	Loading      bool             `json:"loading"`
	FormOpen     bool             `json:"form_open"`
}

// View renders the current state.
func (s *Session) View() Snapshot {
	st := s.State()
	return Snapshot{
		Rows:         st.Rows(),
		Total:        len(st.Records),
		ModelOptions: st.ModelOptions(),
		Query:        st.Query,
		ModelFilter:  st.ModelFilter,
		Sort:         st.Sort,
		Loading:      st.Loading,
		FormOpen:     st.FormOpen,
	}
}
