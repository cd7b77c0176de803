package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tphummel/machine_registry/internal/apiclient"
	"github.com/tphummel/machine_registry/internal/form"
	"github.com/tphummel/machine_registry/internal/models"
)

var (
	// ErrSecurityTokenMissing is returned when no CSRF token is available.
	ErrSecurityTokenMissing = errors.New("security token missing")
	// ErrUnsupportedExportKind is returned for export kinds other than docx and pdf.
	ErrUnsupportedExportKind = errors.New("unsupported export kind")
	// ErrNotConfirmed is returned when the user declines a delete.
	ErrNotConfirmed = errors.New("delete not confirmed")
	// ErrNoDownloader is returned by ContextDownloader when the context
	// carries no destination.
	ErrNoDownloader = errors.New("no download destination")
)

// User-facing notice texts.
const (
	MsgTokenMissing    = "Security token missing. Please refresh the page or log in again."
	MsgCreated         = "Machine registered successfully!"
	MsgUpdated         = "Machine updated successfully!"
	MsgSaveFailed      = "Failed to save machine. Please check all required fields."
	MsgDeleteFailed    = "Failed to delete machine"
	MsgExportKind      = "Only DOCX and PDF exports are supported."
	MsgExportFailedFmt = "Failed to export machine document as %s."
	MsgDeletePrompt    = "Are you sure you want to delete this machine?"
)

// Mode selects between creating and editing a record.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Level classifies a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a blocking message shown to the user.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives user-facing notices.
type Notifier interface {
	Notify(Notice)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Downloader delivers an exported document to the user.
type Downloader interface {
	Download(ctx context.Context, name string, doc apiclient.Document) error
}

// DownloadFunc adapts a function to Downloader.
type DownloadFunc func(ctx context.Context, name string, doc apiclient.Document) error

// Download implements Downloader.
func (f DownloadFunc) Download(ctx context.Context, name string, doc apiclient.Document) error {
	return f(ctx, name, doc)
}

type downloaderKey struct{}

// WithDownloader attaches a per-call download destination to ctx.
func WithDownloader(ctx context.Context, d Downloader) context.Context {
	return context.WithValue(ctx, downloaderKey{}, d)
}

// ContextDownloader forwards to the destination attached with WithDownloader.
type ContextDownloader struct{}

// Download implements Downloader.
func (ContextDownloader) Download(ctx context.Context, name string, doc apiclient.Document) error {
	d, ok := ctx.Value(downloaderKey{}).(Downloader)
	if !ok || d == nil {
		return ErrNoDownloader
	}
	return d.Download(ctx, name, doc)
}

// Backend is the subset of the API client used for mutations.
type Backend interface {
	CreateMachine(ctx context.Context, m models.Machine, csrf string) (*models.Machine, error)
	UpdateMachine(ctx context.Context, id int64, m models.Machine, csrf string) (*models.Machine, error)
	DeleteMachine(ctx context.Context, id int64, csrf string) error
	ExportMachine(ctx context.Context, id int64, kind string) (*apiclient.Document, error)
}

// Reloader refreshes the local collection after a successful mutation.
type Reloader interface {
	Load(ctx context.Context) ([]models.Machine, error)
}

// Controller performs create, update, delete and export calls with the
// session's CSRF token.
type Controller struct {
	Backend     Backend
	Reloader    Reloader
	Credentials apiclient.CredentialProvider
	Notifier    Notifier
	Downloader  Downloader
	Logger      *slog.Logger
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Controller) notify(level Level, msg string) {
	if c.Notifier != nil {
		c.Notifier.Notify(Notice{Level: level, Message: msg})
	}
}

func (c *Controller) token() (string, error) {
	if c.Credentials != nil {
		if token, ok := c.Credentials.CSRFToken(); ok {
			return token, nil
		}
	}
	c.logger().Error("CSRF token not found")
	c.notify(LevelError, MsgTokenMissing)
	return "", ErrSecurityTokenMissing
}

func (c *Controller) reload(ctx context.Context) {
	if c.Reloader == nil {
		return
	}
	if _, err := c.Reloader.Load(ctx); err != nil {
		c.logger().Warn("reload after mutation", "error", err)
	}
}

// Submit sends the draft as a new record or as a full replacement of the
// record with the given id, then reloads the collection.
func (c *Controller) Submit(ctx context.Context, d form.Draft, mode Mode, id int64) (*models.Machine, error) {
	if err := d.Validate(); err != nil {
		c.notify(LevelError, err.Error())
		return nil, err
	}
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	body, err := d.Machine()
	if err != nil {
		c.notify(LevelError, MsgSaveFailed)
		return nil, fmt.Errorf("convert draft: %w", err)
	}

	var saved *models.Machine
	if mode == ModeEdit {
		saved, err = c.Backend.UpdateMachine(ctx, id, body, token)
	} else {
		saved, err = c.Backend.CreateMachine(ctx, body, token)
	}
	if err != nil {
		c.logger().Error("save machine", "mode", mode.String(), "id", id, "error", err)
		c.notify(LevelError, MsgSaveFailed)
		return nil, fmt.Errorf("%s machine: %w", mode, err)
	}

	if mode == ModeEdit {
		c.notify(LevelInfo, MsgUpdated)
	} else {
		c.notify(LevelInfo, MsgCreated)
	}
	c.reload(ctx)
	return saved, nil
}

// Delete removes the record after explicit confirmation and reloads the
// collection. The local collection is never patched optimistically.
func (c *Controller) Delete(ctx context.Context, id int64, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(ctx, MsgDeletePrompt) {
		return ErrNotConfirmed
	}
	token, err := c.token()
	if err != nil {
		return err
	}
	if err := c.Backend.DeleteMachine(ctx, id, token); err != nil {
		c.logger().Error("delete machine", "id", id, "error", err)
		c.notify(LevelError, MsgDeleteFailed)
		return fmt.Errorf("delete machine %d: %w", id, err)
	}
	c.reload(ctx)
	return nil
}

// ExportName is the download file name for a record's document.
func ExportName(m models.Machine, kind string) string {
	return fmt.Sprintf("Machine_%s.%s", m.MachineCode, kind)
}

// Export fetches the rendered document for the record and hands it to the
// downloader.
func (c *Controller) Export(ctx context.Context, m models.Machine, kind string) (string, error) {
	if !apiclient.SupportedExport(kind) {
		c.notify(LevelError, MsgExportKind)
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExportKind, kind)
	}
	doc, err := c.Backend.ExportMachine(ctx, m.ID, kind)
	if err == nil && c.Downloader != nil {
		err = c.Downloader.Download(ctx, ExportName(m, kind), *doc)
	}
	if err != nil {
		c.logger().Error("export machine", "id", m.ID, "kind", kind, "error", err)
		c.notify(LevelError, fmt.Sprintf(MsgExportFailedFmt, kind))
		return "", fmt.Errorf("export machine %d as %s: %w", m.ID, kind, err)
	}
	return ExportName(m, kind), nil
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Approved is a Confirmer for callers that already collected approval.
var Approved Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Declined never approves.
var Declined Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
