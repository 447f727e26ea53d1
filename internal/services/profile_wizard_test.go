package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch/profile-builder/internal/models"
)

type fakeStore struct {
	mu    sync.Mutex
	err   error
	saved []models.Profile
}

func (f *fakeStore) SaveProfile(_ context.Context, _ string, p models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, p)
	return nil
}

type fakeGenerator struct {
	err   error
	calls int
	last  models.ResumeDocument
}

func (f *fakeGenerator) Generate(_ context.Context, doc models.ResumeDocument, _ models.ResumeSettings) (*GeneratedDocument, error) {
	f.calls++
	f.last = doc
	if f.err != nil {
		return nil, f.err
	}
	return &GeneratedDocument{Content: []byte("%PDF-1.4"), ContentType: "application/pdf"}, nil
}

type fakePreview struct {
	mu        sync.Mutex
	scheduled []models.Profile
	stopped   bool
}

func (f *fakePreview) Schedule(p models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, p)
}

func (f *fakePreview) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

type wizardFixture struct {
	wizard  *ProfileWizard
	store   *fakeStore
	gen     *fakeGenerator
	preview *fakePreview
}

func newWizardFixture(t *testing.T, initial models.Profile) *wizardFixture {
	t.Helper()
	f := &wizardFixture{store: &fakeStore{}, gen: &fakeGenerator{}, preview: &fakePreview{}}
	f.wizard = NewProfileWizard(uuid.New(), "owner-1", ModeNew, initial, WizardDeps{
		Store:     f.store,
		Generator: f.gen,
		Preview:   f.preview,
		Now:       func() time.Time { return fixedNow },
	})
	return f
}

func completeProfile() models.Profile {
	p := validPersonal()
	p.Education = []models.EducationItem{{ID: 1, Institution: "IIT Delhi", Degree: "BTech", StartYear: "2019", EndYear: "2023", Score: "8.6"}}
	p.Skills = []models.SkillItem{{ID: 1, Name: "Go", Level: "Advanced"}}
	return p
}

func advanceTo(t *testing.T, w *ProfileWizard, step int) {
	t.Helper()
	for w.State().Step < step {
		require.NoError(t, w.Next())
	}
}

func TestProfileWizard_NextRejectsInvalidStep(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, models.NewEmptyProfile())
	err := f.wizard.Next()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, err, ErrStepValidation)
	assert.Equal(t, "firstName", verr.FirstInvalid())

	state := f.wizard.State()
	assert.Equal(t, 1, state.Step)
	assert.Equal(t, "firstName", state.FirstInvalid)
	assert.Len(t, state.Errors, 5)
}

func TestProfileWizard_UpdatesClearTheirErrors(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, models.NewEmptyProfile())
	require.Error(t, f.wizard.Next())

	require.NoError(t, f.wizard.SetField("firstName", "Asha"))
	state := f.wizard.State()
	assert.Equal(t, "phone", state.FirstInvalid)
	assert.Len(t, state.Errors, 4)
}

func TestProfileWizard_NavigationClamps(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, completeProfile())
	require.NoError(t, f.wizard.Previous())
	assert.Equal(t, 1, f.wizard.State().Step)

	advanceTo(t, f.wizard, TotalSteps)
	require.NoError(t, f.wizard.Next())
	assert.Equal(t, TotalSteps, f.wizard.State().Step)
	assert.Equal(t, "Accomplishments", f.wizard.State().StepTitle)

	require.NoError(t, f.wizard.Previous())
	assert.Equal(t, 5, f.wizard.State().Step)
}

func TestProfileWizard_SanitizesOnUpdate(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, models.NewEmptyProfile())
	require.NoError(t, f.wizard.SetField("phone", "+91 98765-43210"))
	require.NoError(t, f.wizard.UpdateItem(CollectionEducation, 1, "score", "8.6.2 CGPA"))
	require.NoError(t, f.wizard.UpdateItem(CollectionEducation, 1, "institution", "IIT 2 Delhi"))

	state := f.wizard.State()
	assert.Equal(t, "9198765432", state.Profile.Phone)
	assert.Equal(t, "8.62", state.Profile.Education[0].Score)
	assert.Equal(t, "IIT  Delhi", state.Profile.Education[0].Institution)
}

func TestProfileWizard_RejectsUnknownAndInvalid(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, models.NewEmptyProfile())
	require.ErrorIs(t, f.wizard.SetField("salary", "1"), ErrUnknownField)
	require.ErrorIs(t, f.wizard.UpdateItem("hobbies", 1, "name", "x"), ErrUnknownCollection)
	require.ErrorIs(t, f.wizard.UpdateItem(CollectionEducation, 9, "degree", "x"), ErrItemNotFound)
	require.ErrorIs(t, f.wizard.UpdateItem(CollectionEducation, 1, "startYear", "1990"), ErrInvalidOption)

	_, err := f.wizard.AddItem(CollectionSkills, map[string]string{"name": "Go", "level": "Guru"})
	require.ErrorIs(t, err, ErrInvalidOption)
	assert.Empty(t, f.wizard.State().Profile.Skills)
}

func TestProfileWizard_ItemIDsAreNotReused(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, models.NewEmptyProfile())

	id1, err := f.wizard.AddItem(CollectionSkills, map[string]string{"name": "Go"})
	require.NoError(t, err)
	id2, err := f.wizard.AddItem(CollectionSkills, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, id1)
	assert.Equal(t, 2, id2)

	require.NoError(t, f.wizard.RemoveItem(CollectionSkills, id2))
	id3, err := f.wizard.AddItem(CollectionSkills, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, id3)

	eduID, err := f.wizard.AddItem(CollectionEducation, map[string]string{"institution": "NIT"})
	require.NoError(t, err)
	assert.Equal(t, 2, eduID)

	expID, err := f.wizard.AddItem(CollectionExperience, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExperienceTypeInternship, f.wizard.State().Profile.Experience[0].Type)
	assert.Equal(t, 1, expID)
}

func TestProfileWizard_AddLanguageDeduplicates(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, models.NewEmptyProfile())
	require.NoError(t, f.wizard.AddLanguage("English"))
	require.NoError(t, f.wizard.AddLanguage(" Hindi "))
	require.NoError(t, f.wizard.AddLanguage("english"))
	assert.Equal(t, "English, Hindi", f.wizard.State().Profile.Languages)
}

func TestProfileWizard_EveryChangeSchedulesPreview(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, models.NewEmptyProfile())
	require.NoError(t, f.wizard.SetField("firstName", "A"))
	require.NoError(t, f.wizard.SetField("firstName", "As"))
	require.Error(t, f.wizard.SetField("nope", "x"))

	f.preview.mu.Lock()
	defer f.preview.mu.Unlock()
	require.Len(t, f.preview.scheduled, 3)
	assert.Equal(t, "As", f.preview.scheduled[2].FirstName)
}

func TestProfileWizard_ApplyResumeReplacesPlaceholder(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, models.NewEmptyProfile())
	patch := MapParsedResumeToProfile(models.ParsedResume{
		Educations: []models.ParsedEducation{{School: "IIT Delhi", Degree: "BTech", Date: "2018 - 2022"}},
	})
	require.NoError(t, f.wizard.ApplyResume(patch, false))

	edu := f.wizard.State().Profile.Education
	require.Len(t, edu, 1)
	assert.Equal(t, "IIT Delhi", edu[0].Institution)

	id, err := f.wizard.AddItem(CollectionEducation, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, id)
}

func TestProfileWizard_SubmitOnlyFromLastStep(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, completeProfile())
	_, err := f.wizard.Submit(context.Background())
	require.ErrorIs(t, err, ErrNotLastStep)
	assert.Empty(t, f.store.saved)
}

func TestProfileWizard_SubmitSuccess(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, completeProfile())
	advanceTo(t, f.wizard, TotalSteps)

	out, err := f.wizard.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Saved)
	assert.True(t, out.DocumentGenerated)
	assert.Empty(t, out.Warning)
	assert.Equal(t, "application/pdf", out.Document.ContentType)
	require.Len(t, f.store.saved, 1)
	assert.Equal(t, "Asha", f.gen.last.Profile.Name)
	assert.True(t, f.preview.stopped)
	select {
	case <-f.wizard.Done():
	default:
		t.Fatal("Done not closed after submit")
	}
	f.wizard.Close()

	require.ErrorIs(t, f.wizard.SetField("firstName", "B"), ErrSessionClosed)
	_, err = f.wizard.Submit(context.Background())
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestProfileWizard_SubmitGenerationFailureIsAWarning(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, completeProfile())
	f.gen.err = errors.New("renderer down")
	advanceTo(t, f.wizard, TotalSteps)

	out, err := f.wizard.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Saved)
	assert.False(t, out.DocumentGenerated)
	assert.Nil(t, out.Document)
	assert.Equal(t, generationWarning, out.Warning)
	assert.Len(t, f.store.saved, 1)
	assert.True(t, f.wizard.State().Closed)
}

func TestProfileWizard_SubmitSaveFailureKeepsSession(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, completeProfile())
	f.store.err = errors.New("db down")
	advanceTo(t, f.wizard, TotalSteps)

	_, err := f.wizard.Submit(context.Background())
	require.Error(t, err)
	assert.Zero(t, f.gen.calls)

	state := f.wizard.State()
	assert.Equal(t, TotalSteps, state.Step)
	assert.False(t, state.Closed)
	assert.Equal(t, "Asha", state.Profile.FirstName)

	f.store.err = nil
	out, err := f.wizard.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Saved)
}

func TestProfileWizard_SubmitRevalidates(t *testing.T) {
	t.Parallel()

	f := newWizardFixture(t, completeProfile())
	advanceTo(t, f.wizard, TotalSteps)
	require.NoError(t, f.wizard.RemoveItem(CollectionSkills, 1))

	_, err := f.wizard.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 5, verr.Step)
	assert.Empty(t, f.store.saved)
}
