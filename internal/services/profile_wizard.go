package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"internmatch/profile-builder/internal/models"
)

const TotalSteps = 6

var stepTitles = [TotalSteps]string{
	"Personal Details",
	"Education",
	"Work Experience",
	"Trainings & Projects",
	"Skills & Portfolio",
	"Accomplishments",
}

// Steps re-checked on submit. The others carry no rules.
var submitSteps = []int{1, 2, 5}

const generationWarning = "Your profile was saved, but resume generation failed. You can generate it later from the dashboard."

type SessionMode string

const (
	ModeNew      SessionMode = "new"
	ModeEdit     SessionMode = "edit"
	ModeAutofill SessionMode = "autofill"
)

// ProfileStore persists a full profile snapshot for its owner.
type ProfileStore interface {
	SaveProfile(ctx context.Context, ownerID string, profile models.Profile) error
}

// DocumentGenerator renders a resume document into a downloadable file.
type DocumentGenerator interface {
	Generate(ctx context.Context, doc models.ResumeDocument, settings models.ResumeSettings) (*GeneratedDocument, error)
}

type GeneratedDocument struct {
	Content     []byte
	ContentType string
}

// PreviewScheduler receives every profile change. Implementations must not block.
type PreviewScheduler interface {
	Schedule(profile models.Profile)
	Stop()
}

type WizardDeps struct {
	Store     ProfileStore
	Generator DocumentGenerator
	Preview   PreviewScheduler
	Now       func() time.Time
	Logger    *slog.Logger
}

// WizardState is a point-in-time copy of a session.
type WizardState struct {
	ID           uuid.UUID
	OwnerID      string
	Mode         SessionMode
	Step         int
	TotalSteps   int
	StepTitle    string
	Profile      models.Profile
	Errors       []models.FieldError
	FirstInvalid string
	Closed       bool
}

type SubmitOutcome struct {
	Saved             bool
	DocumentGenerated bool
	Warning           string
	Document          *GeneratedDocument
	Profile           models.Profile
}

// ProfileWizard owns the profile of one editing session and drives it
// through the six form steps. All methods are safe for concurrent use; a
// session is normally driven by a single client.
type ProfileWizard struct {
	mu sync.Mutex

	id      uuid.UUID
	ownerID string
	mode    SessionMode
	step    int
	profile models.Profile
	errors  []models.FieldError
	closed  bool
	done    chan struct{}
	touched time.Time

	// highest id ever handed out per collection, so removed ids are not reused
	lastIDs map[string]int

	store     ProfileStore
	generator DocumentGenerator
	preview   PreviewScheduler
	now       func() time.Time
	logger    *slog.Logger
}

func NewProfileWizard(id uuid.UUID, ownerID string, mode SessionMode, initial models.Profile, deps WizardDeps) *ProfileWizard {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Preview == nil {
		deps.Preview = noopPreview{}
	}

	w := &ProfileWizard{
		id:        id,
		ownerID:   ownerID,
		mode:      mode,
		step:      1,
		profile:   initial.Clone(),
		done:      make(chan struct{}),
		touched:   deps.Now(),
		lastIDs:   make(map[string]int, len(collections)),
		store:     deps.Store,
		generator: deps.Generator,
		preview:   deps.Preview,
		now:       deps.Now,
		logger:    deps.Logger,
	}
	w.trackIDs(&w.profile)
	w.preview.Schedule(w.profile.Clone())
	return w
}

func (w *ProfileWizard) ID() uuid.UUID   { return w.id }
func (w *ProfileWizard) OwnerID() string { return w.ownerID }

// Done is closed when the session is submitted or closed.
func (w *ProfileWizard) Done() <-chan struct{} { return w.done }

// LastTouched is the time of the last read or change made through the wizard.
func (w *ProfileWizard) LastTouched() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched
}

func (w *ProfileWizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touched = w.now()
	return w.stateLocked()
}

func (w *ProfileWizard) stateLocked() WizardState {
	s := WizardState{
		ID:         w.id,
		OwnerID:    w.ownerID,
		Mode:       w.mode,
		Step:       w.step,
		TotalSteps: TotalSteps,
		StepTitle:  stepTitles[w.step-1],
		Profile:    w.profile.Clone(),
		Errors:     append([]models.FieldError{}, w.errors...),
		Closed:     w.closed,
	}
	if len(s.Errors) > 0 {
		s.FirstInvalid = s.Errors[0].Field
	}
	return s
}

// SetField updates a top-level field.
func (w *ProfileWizard) SetField(field, value string) error {
	return w.mutate(func(p *models.Profile) error {
		if err := setScalarField(p, field, value); err != nil {
			return err
		}
		w.clearErrors(func(key string) bool { return key == field })
		return nil
	})
}

func (w *ProfileWizard) AddLanguage(language string) error {
	return w.mutate(func(p *models.Profile) error {
		p.Languages = addLanguage(p.Languages, language)
		return nil
	})
}

func (w *ProfileWizard) SetLocation(loc models.GeoLocation) error {
	return w.mutate(func(p *models.Profile) error {
		p.Location = &loc
		if strings.TrimSpace(p.Address) == "" {
			p.Address = loc.Address
			w.clearErrors(func(key string) bool { return key == "address" })
		}
		return nil
	})
}

// AddItem appends a new item to a collection and returns its id.
func (w *ProfileWizard) AddItem(collection string, fields map[string]string) (int, error) {
	var id int
	err := w.mutate(func(p *models.Profile) error {
		coll, err := profileCollection(p, collection)
		if err != nil {
			return err
		}
		id = max(w.lastIDs[collection], coll.maxID()) + 1
		if err := coll.add(id, fields); err != nil {
			return err
		}
		w.lastIDs[collection] = id
		if collection == CollectionSkills {
			w.clearErrors(func(key string) bool { return key == CollectionSkills })
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (w *ProfileWizard) UpdateItem(collection string, id int, field, value string) error {
	return w.mutate(func(p *models.Profile) error {
		coll, err := profileCollection(p, collection)
		if err != nil {
			return err
		}
		if err := coll.update(id, field, value); err != nil {
			return err
		}
		key := itemErrorKey(collection, id, field)
		w.clearErrors(func(k string) bool { return k == key })
		return nil
	})
}

func (w *ProfileWizard) RemoveItem(collection string, id int) error {
	return w.mutate(func(p *models.Profile) error {
		coll, err := profileCollection(p, collection)
		if err != nil {
			return err
		}
		if err := coll.remove(id); err != nil {
			return err
		}
		prefix := fmt.Sprintf("%s-%d-", collection, id)
		w.clearErrors(func(k string) bool { return strings.HasPrefix(k, prefix) })
		return nil
	})
}

// ApplyResume merges parsed resume data into the session profile.
func (w *ProfileWizard) ApplyResume(patch models.ProfilePatch, overwriteNonEmpty bool) error {
	return w.mutate(func(p *models.Profile) error {
		*p = MergeProfile(*p, patch, overwriteNonEmpty)
		w.trackIDs(p)
		return nil
	})
}

// Next validates the current step and advances on success. On failure the
// step does not change and the returned *ValidationError lists the fields.
func (w *ProfileWizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrSessionClosed
	}
	w.touched = w.now()
	if errs := ValidateStep(w.step, w.profile, w.now()); len(errs) > 0 {
		w.errors = errs
		return &ValidationError{Step: w.step, Errors: errs}
	}
	w.errors = nil
	w.step = min(w.step+1, TotalSteps)
	return nil
}

func (w *ProfileWizard) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrSessionClosed
	}
	w.touched = w.now()
	w.step = max(w.step-1, 1)
	return nil
}

// Submit persists the profile and then generates the resume document.
// Persistence failure is returned as an error and leaves the session as it
// was. Generation failure is reported through SubmitOutcome.Warning because
// the profile is already saved at that point.
func (w *ProfileWizard) Submit(ctx context.Context) (*SubmitOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrSessionClosed
	}
	w.touched = w.now()
	if w.step != TotalSteps {
		return nil, ErrNotLastStep
	}

	if verr := ValidateForSubmit(w.profile, w.now()); verr != nil {
		w.errors = verr.Errors
		return nil, verr
	}
	w.errors = nil

	snapshot := w.profile.Clone()
	if err := w.store.SaveProfile(ctx, w.ownerID, snapshot); err != nil {
		submitTotal.WithLabelValues("save_failed").Inc()
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	outcome := &SubmitOutcome{Saved: true, Profile: snapshot}
	doc, err := w.generator.Generate(ctx, MapProfileToDocument(snapshot), DefaultGenerationSettings())
	if err != nil {
		w.logger.Warn("resume generation failed after profile save",
			slog.String("session_id", w.id.String()),
			slog.Any("error", err),
		)
		outcome.Warning = generationWarning
		submitTotal.WithLabelValues("saved_without_document").Inc()
	} else {
		outcome.DocumentGenerated = true
		outcome.Document = doc
		submitTotal.WithLabelValues("completed").Inc()
	}

	w.closeLocked()
	return outcome, nil
}

// Close stops background work for the session.
func (w *ProfileWizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeLocked()
}

func (w *ProfileWizard) closeLocked() {
	if w.closed {
		return
	}
	w.closed = true
	w.preview.Stop()
	close(w.done)
}

func (w *ProfileWizard) mutate(fn func(p *models.Profile) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrSessionClosed
	}
	w.touched = w.now()
	next := w.profile.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	w.profile = next
	w.preview.Schedule(next.Clone())
	return nil
}

func (w *ProfileWizard) clearErrors(match func(key string) bool) {
	var kept []models.FieldError
	for _, fe := range w.errors {
		if !match(fe.Field) {
			kept = append(kept, fe)
		}
	}
	w.errors = kept
}

func (w *ProfileWizard) trackIDs(p *models.Profile) {
	for _, name := range collections {
		coll, err := profileCollection(p, name)
		if err != nil {
			continue
		}
		w.lastIDs[name] = max(w.lastIDs[name], coll.maxID())
	}
}

type noopPreview struct{}

func (noopPreview) Schedule(models.Profile) {}
func (noopPreview) Stop()                   {}
