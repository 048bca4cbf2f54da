package editor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"adboard-booking/internal/adapi"
	"adboard-booking/internal/models"
	"adboard-booking/internal/validator"
)

var (
	ErrIncomplete    = errors.New("please fill all fields")
	ErrDraftNotFound = errors.New("draft not found")
	ErrUnknownField  = errors.New("unknown draft field")
	ErrClosed        = errors.New("editor is closed")
)

// Mode is derived from whether the editor was seeded with existing bookings.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// String names the mode as "create" or "edit".
func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Heading is the editor title shown for the mode.
func (m Mode) Heading() string {
	if m == ModeEdit {
		return "Edit Booking"
	}
	return "Book Inventory"
}

// SubmitLabel is the submit button wording for the mode.
func (m Mode) SubmitLabel() string {
	if m == ModeEdit {
		return "Update Bookings"
	}
	return "Book Now"
}

// verb is used in toast wording.
func (m Mode) verb() (present, past string) {
	if m == ModeEdit {
		return "updating", "updated"
	}
	return "creating", "created"
}

func (m Mode) action() string {
	if m == ModeEdit {
		return "update"
	}
	return "create"
}

// Field names an editable draft field.
type Field string

const (
	FieldAdBoard   Field = "adBoardId"
	FieldStartDate Field = "startDate"
	FieldEndDate   Field = "endDate"
)

// Options wires an editor to its collaborators. API is required.
type Options struct {
	API      adapi.Service
	Notifier Notifier
	Loader   Loader
	// OnClose runs once when the editor closes, by cancel or after a submit.
	OnClose func()
	// Refresh asks the owner to reload its creative list after a submit.
	Refresh func()
	Logger  *zerolog.Logger
	Now     func() time.Time
	NewID   func() string
}

// Editor holds the booking drafts of one editing session for a single creative.
// It is not safe for concurrent use.
type Editor struct {
	creativeID string
	mode       Mode
	drafts     []models.Draft
	invalid    []string

	confirmOpen   bool
	pendingDelete string
	closed        bool

	creatives []models.Creative
	boards    []models.BoardOption

	api      adapi.Service
	notifier Notifier
	loader   Loader
	onClose  func()
	refresh  func()
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// New seeds an editor. A non-empty existing list opens it in edit mode with one
// draft per booking; otherwise it starts in create mode with one empty draft.
func New(creativeID string, existing []models.Booking, opts Options) *Editor {
	e := &Editor{
		creativeID: creativeID,
		api:        opts.API,
		notifier:   opts.Notifier,
		loader:     opts.Loader,
		onClose:    opts.OnClose,
		refresh:    opts.Refresh,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.loader == nil {
		e.loader = &LoadingCounter{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	} else {
		e.log = log.Logger
	}
	e.log = e.log.With().Str("creative_id", creativeID).Logger()

	if len(existing) > 0 {
		e.mode = ModeEdit
		e.drafts = make([]models.Draft, 0, len(existing))
		for _, b := range existing {
			e.drafts = append(e.drafts, models.DraftFromBooking(b))
		}
	} else {
		e.mode = ModeCreate
		e.drafts = []models.Draft{e.emptyDraft()}
	}
	return e
}

func (e *Editor) emptyDraft() models.Draft {
	today := e.today()
	return models.Draft{
		ID:        e.newID(),
		AdID:      e.creativeID,
		StartDate: today,
		EndDate:   today,
	}
}

func (e *Editor) today() string {
	return e.now().UTC().Format(models.DateLayout)
}

// Load fetches the creative list and the ad board list in parallel. Each
// failure is reported on its own and does not affect the other result.
func (e *Editor) Load(ctx context.Context) error {
	var (
		g         errgroup.Group
		creatives []models.Creative
		boards    []models.AdBoard
	)

	g.Go(func() error {
		return withLoading(e.loader, func() error {
			var err error
			creatives, err = e.api.Creatives(ctx)
			if err != nil {
				e.notifier.Notify("Error fetching creatives!", models.ToastError)
				e.log.Error().Err(err).Msg("Error fetching creatives")
			}
			return err
		})
	})
	g.Go(func() error {
		return withLoading(e.loader, func() error {
			var err error
			boards, err = e.api.AdBoards(ctx)
			if err != nil {
				e.notifier.Notify("Error fetching ad boards!", models.ToastError)
				e.log.Error().Err(err).Msg("Error fetching ad boards")
			}
			return err
		})
	})
	err := g.Wait()

	if creatives != nil {
		e.creatives = creatives
	}
	if boards != nil {
		e.boards = make([]models.BoardOption, 0, len(boards))
		for _, b := range boards {
			e.boards = append(e.boards, b.Option())
		}
	}
	return err
}

// AddDraft appends an empty draft dated today.
func (e *Editor) AddDraft() (models.Draft, error) {
	if e.closed {
		return models.Draft{}, ErrClosed
	}
	d := e.emptyDraft()
	e.drafts = append(e.drafts, d)
	return d, nil
}

// UpdateField replaces one field of the draft with the given id.
func (e *Editor) UpdateField(id string, field Field, value string) error {
	if e.closed {
		return ErrClosed
	}
	switch field {
	case FieldAdBoard, FieldStartDate, FieldEndDate:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return e.modify(id, func(d *models.Draft) {
		switch field {
		case FieldAdBoard:
			d.AdBoardID = value
		case FieldStartDate:
			d.StartDate = value
		case FieldEndDate:
			d.EndDate = value
		}
	})
}

// SetToday sets both bounds of a draft to today's date.
func (e *Editor) SetToday(id string) error {
	if e.closed {
		return ErrClosed
	}
	today := e.today()
	return e.modify(id, func(d *models.Draft) {
		d.StartDate = today
		d.EndDate = today
	})
}

func (e *Editor) modify(id string, fn func(d *models.Draft)) error {
	for i := range e.drafts {
		if e.drafts[i].ID == id {
			fn(&e.drafts[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
}

// RequestDelete opens the delete confirmation for a draft without removing it.
func (e *Editor) RequestDelete(id string) error {
	if e.closed {
		return ErrClosed
	}
	e.pendingDelete = id
	e.confirmOpen = true
	return nil
}

// ConfirmDelete answers the open confirmation. The prompt is closed either way.
// It reports whether a draft was removed.
func (e *Editor) ConfirmDelete(confirmed bool) bool {
	removed := false
	if confirmed && e.confirmOpen {
		before := len(e.drafts)
		e.drafts = slices.DeleteFunc(e.drafts, func(d models.Draft) bool {
			return d.ID == e.pendingDelete
		})
		removed = len(e.drafts) < before
	}
	e.confirmOpen = false
	e.pendingDelete = ""
	return removed
}

// PendingDelete returns the draft id awaiting confirmation, if the prompt is open.
func (e *Editor) PendingDelete() (string, bool) {
	return e.pendingDelete, e.confirmOpen
}

// Validate flags every draft with an empty board or date and returns their ids.
func (e *Editor) Validate() []string {
	invalid := make([]string, 0)
	for _, d := range e.drafts {
		if errs := validator.Validate(d); len(errs) > 0 {
			e.log.Debug().Str("draft_id", d.ID).Strs("missing", slices.Sorted(maps.Keys(errs))).Msg("Draft is incomplete")
			invalid = append(invalid, d.ID)
		}
	}
	e.invalid = invalid
	return slices.Clone(invalid)
}

// Submit validates the drafts and sends them as one batch: an update in edit
// mode, a create otherwise. An incomplete batch is rejected locally and the
// editor stays open. Once the request has been attempted the editor refreshes
// its owner and closes, whatever the outcome. The request is not cancelled
// with ctx.
func (e *Editor) Submit(ctx context.Context) error {
	if e.closed {
		return ErrClosed
	}
	if invalid := e.Validate(); len(invalid) > 0 {
		e.notifier.Notify("Please fill all fields", models.ToastError)
		return fmt.Errorf("%w: %d incomplete draft(s)", ErrIncomplete, len(invalid))
	}

	ctx = context.WithoutCancel(ctx)
	drafts := slices.Clone(e.drafts)
	present, past := e.mode.verb()

	e.loader.Show()
	defer func() {
		if e.refresh != nil {
			e.refresh()
		}
		e.loader.Hide()
		e.Close()
	}()

	var err error
	if e.mode == ModeEdit {
		err = e.api.UpdateBookings(ctx, drafts)
	} else {
		err = e.api.CreateBookings(ctx, drafts)
	}

	switch {
	case err == nil:
		e.notifier.Notify(fmt.Sprintf("Bookings %s successfully!", past), models.ToastSuccess)
		e.log.Info().Str("mode", e.mode.String()).Int("drafts", len(drafts)).Msg("Bookings submitted")
	case adapi.IsAPIError(err):
		e.notifier.Notify(fmt.Sprintf("Failed to %s bookings!", e.mode.action()), models.ToastError)
		e.log.Error().Err(err).Str("mode", e.mode.String()).Msg("Booking API rejected the batch")
	default:
		e.notifier.Notify(fmt.Sprintf("Error %s bookings!", present), models.ToastError)
		e.log.Error().Err(err).Str("mode", e.mode.String()).Msg("Error submitting bookings")
	}
	return err
}

// Close discards all drafts. The close callback runs only the first time.
func (e *Editor) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.drafts = nil
	e.invalid = nil
	e.confirmOpen = false
	e.pendingDelete = ""
	if e.onClose != nil {
		e.onClose()
	}
}

// Closed reports whether the editor has been cancelled or submitted.
func (e *Editor) Closed() bool { return e.closed }

// Mode returns the mode fixed when the editor was seeded.
func (e *Editor) Mode() Mode { return e.mode }

// CreativeID returns the creative every draft books.
func (e *Editor) CreativeID() string { return e.creativeID }

// Drafts returns a copy of the drafts in order.
func (e *Editor) Drafts() []models.Draft { return slices.Clone(e.drafts) }

// Invalid returns the draft ids flagged by the last validation.
func (e *Editor) Invalid() []string { return slices.Clone(e.invalid) }

// BoardOptions returns the ad boards loaded for selection.
func (e *Editor) BoardOptions() []models.BoardOption { return slices.Clone(e.boards) }

// Title resolves the display title of the creative being booked, or "" if the
// creative list has not been loaded or does not contain it.
func (e *Editor) Title() string {
	for _, c := range e.creatives {
		if c.ID == e.creativeID {
			return c.Title
		}
	}
	return ""
}
