// Package documents manages purchase (achat) and sale (vente) drafts: line
// editing, totals through the pricing engine, submission to the backend and
// the per-kind state pages.
package documents

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soleilcom/gestion/internal/pricing"
	"github.com/soleilcom/gestion/internal/shared"
)

// Kind distinguishes purchases from sales. Both share one structure.
type Kind string

const (
	KindAchat Kind = "achat"
	KindVente Kind = "vente"
)

// ParseKind validates a route or form value.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindAchat:
		return KindAchat, nil
	case KindVente:
		return KindVente, nil
	default:
		return "", fmt.Errorf("documents: unknown kind %q", raw)
	}
}

// Plural is the URL segment of the kind.
func (k Kind) Plural() string { return string(k) + "s" }

// Title is the French label shown in pages.
func (k Kind) Title() string {
	if k == KindVente {
		return "Vente"
	}
	return "Achat"
}

// NewTitle is the heading of the entry form.
func (k Kind) NewTitle() string {
	if k == KindVente {
		return "Nouvelle vente"
	}
	return "Nouvel achat"
}

// PartyLabel names the counterpart of the document.
func (k Kind) PartyLabel() string {
	if k == KindVente {
		return "Client"
	}
	return "Fournisseur"
}

// State is the draft lifecycle position.
type State string

const (
	StateEmpty      State = "empty"
	StateBuilding   State = "building"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateFailed     State = "failed"
)

var (
	// ErrInvalidTransition is returned when an operation does not apply to
	// the current state.
	ErrInvalidTransition = errors.New("documents: invalid draft state transition")
	// ErrLineIndex is returned for an out of range line index.
	ErrLineIndex = errors.New("documents: line index out of range")
	// ErrDraftIncomplete wraps the required-field failures found at submit.
	ErrDraftIncomplete = fmt.Errorf("documents: draft incomplete: %w", shared.ErrValidation)
	// ErrDuplicateSubmission is returned when a draft was already submitted.
	ErrDuplicateSubmission = fmt.Errorf("documents: duplicate submission: %w", shared.ErrIdempotencyConflict)
)

// DateLayout is the wire and form layout of document dates.
const DateLayout = "2006-01-02"

// Draft is an in-progress document. Only inputs are stored; computed values
// are derived on demand.
type Draft struct {
	ID                    uuid.UUID          `json:"id"`
	Kind                  Kind               `json:"kind"`
	PartyID               int64              `json:"partyId" validate:"required,gt=0"`
	Date                  string             `json:"date" validate:"required,datetime=2006-01-02"`
	Items                 []pricing.LineItem `json:"items" validate:"min=1"`
	GlobalDiscountPercent decimal.Decimal    `json:"globalDiscountPercent"`
	State                 State              `json:"state"`
	LastError             string             `json:"lastError,omitempty"`
}

// NewDraft starts an empty draft with a fresh idempotency identifier.
func NewDraft(kind Kind) *Draft {
	return &Draft{
		ID:                    uuid.New(),
		Kind:                  kind,
		Items:                 []pricing.LineItem{},
		GlobalDiscountPercent: decimal.Zero,
		State:                 StateEmpty,
	}
}

func (d *Draft) editable() error {
	switch d.State {
	case StateEmpty, StateBuilding:
		return nil
	default:
		return fmt.Errorf("%w: cannot edit a %s draft", ErrInvalidTransition, d.State)
	}
}

func (d *Draft) touch() {
	d.State = StateBuilding
	d.LastError = ""
}

// AddLine appends a line after validating it through the pricing engine.
func (d *Draft) AddLine(item pricing.LineItem) error {
	if err := d.editable(); err != nil {
		return err
	}
	if _, err := pricing.ComputeLine(item); err != nil {
		return err
	}
	d.Items = append(d.Items, item)
	d.touch()
	return nil
}

// UpdateLine replaces the line at index i without moving it.
func (d *Draft) UpdateLine(i int, item pricing.LineItem) error {
	if err := d.editable(); err != nil {
		return err
	}
	if i < 0 || i >= len(d.Items) {
		return ErrLineIndex
	}
	if _, err := pricing.ComputeLine(item); err != nil {
		return err
	}
	d.Items[i] = item
	d.touch()
	return nil
}

// RemoveLine deletes the line at index i, keeping the order of the others.
func (d *Draft) RemoveLine(i int) error {
	if err := d.editable(); err != nil {
		return err
	}
	if i < 0 || i >= len(d.Items) {
		return ErrLineIndex
	}
	d.Items = append(d.Items[:i:i], d.Items[i+1:]...)
	d.touch()
	return nil
}

// SetGlobalDiscount sets the document level discount percent.
func (d *Draft) SetGlobalDiscount(percent decimal.Decimal) error {
	if err := d.editable(); err != nil {
		return err
	}
	if _, err := pricing.Aggregate(nil, percent); err != nil {
		return err
	}
	d.GlobalDiscountPercent = percent
	d.touch()
	return nil
}

// SetHeader records the counterpart and the document date.
func (d *Draft) SetHeader(partyID int64, date string) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.PartyID = partyID
	d.Date = strings.TrimSpace(date)
	d.touch()
	return nil
}

// Lines recomputes every line.
func (d *Draft) Lines() ([]pricing.Line, error) {
	lines, idx, err := pricing.ComputeLines(d.Items)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", idx+1, err)
	}
	return lines, nil
}

// Totals recomputes the document totals from the full line set.
func (d *Draft) Totals() (pricing.DocumentTotals, error) {
	lines, err := d.Lines()
	if err != nil {
		return pricing.DocumentTotals{}, err
	}
	return pricing.AggregateLines(lines, d.GlobalDiscountPercent)
}

// ParsedDate returns the document date in loc.
func (d *Draft) ParsedDate(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, d.Date, loc)
}

// Validate checks the fields required for submission.
func (d *Draft) Validate() error {
	if err := draftValidator.Struct(d); err != nil {
		return fmt.Errorf("%w: %w", ErrDraftIncomplete, err)
	}
	return nil
}

// BeginSubmit moves a complete draft to Submitting.
func (d *Draft) BeginSubmit() error {
	if d.State != StateBuilding {
		return fmt.Errorf("%w: cannot submit a %s draft", ErrInvalidTransition, d.State)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if _, err := d.Totals(); err != nil {
		return err
	}
	d.State = StateSubmitting
	return nil
}

// Complete marks a successful submission. The caller discards the draft.
func (d *Draft) Complete() error {
	if d.State != StateSubmitting {
		return fmt.Errorf("%w: cannot complete a %s draft", ErrInvalidTransition, d.State)
	}
	d.State = StateSubmitted
	return nil
}

// Fail records a failed submission and returns the draft to Building with
// its content and ID intact.
func (d *Draft) Fail(cause error) error {
	if d.State != StateSubmitting {
		return fmt.Errorf("%w: cannot fail a %s draft", ErrInvalidTransition, d.State)
	}
	// Failed is transient: the draft goes straight back to Building.
	d.State = StateBuilding
	if cause != nil {
		d.LastError = shared.UserSafeMessage(cause)
	}
	return nil
}

var draftValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
