package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"internmatch/profile-builder/internal/config"
	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/repositories"
	"internmatch/profile-builder/internal/services"
)

const testSecret = "test-secret"

var testNow = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
}

func (m *memProfiles) GetProfile(_ context.Context, ownerID string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[ownerID]
	if !ok {
		return models.Profile{}, services.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (m *memProfiles) SaveProfile(_ context.Context, ownerID string, p models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[ownerID] = p.Clone()
	return nil
}

type stubGenerator struct{ err error }

func (s stubGenerator) Generate(context.Context, models.ResumeDocument, models.ResumeSettings) (*services.GeneratedDocument, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.GeneratedDocument{Content: []byte("%PDF-1.7"), ContentType: "application/pdf"}, nil
}

type stubParser struct {
	parsed *models.ParsedResume
	err    error
}

func (s stubParser) Parse(context.Context, string) (*models.ParsedResume, error) { return s.parsed, s.err }
func (s stubParser) ParseBytes(context.Context, []byte) (*models.ParsedResume, error) {
	return s.parsed, s.err
}

type testServer struct {
	app      *fiber.App
	profiles *memProfiles
	uploads  repositories.ResumeUploadRepository
}

func newTestServer(t *testing.T, parser stubParser) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	profiles := &memProfiles{profiles: map[string]models.Profile{}}
	bus := services.NewMemoryPreviewBus()
	sessions := services.NewSessionManager(profiles, stubGenerator{}, bus, services.SessionManagerOptions{
		PreviewDebounce: 5 * time.Millisecond,
		Now:             func() time.Time { return testNow },
	})
	t.Cleanup(sessions.CloseAll)

	storage := services.NewStorageService(t.TempDir(), 1024)
	uploads := repositories.NewResumeUploadRepository(db)

	app := NewApp(Dependencies{
		Sessions:    sessions,
		Profiles:    profiles,
		Generator:   stubGenerator{},
		Parser:      parser,
		Storage:     storage,
		Uploads:     uploads,
		Bus:         bus,
		JWTSecret:   testSecret,
		MaxFileSize: 1024,
		Now:         func() time.Time { return testNow },
	})
	return &testServer{app: app, profiles: profiles, uploads: uploads}
}

func token(t *testing.T, subject string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, owner, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, owner))
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func (s *testServer) openSession(t *testing.T, owner, mode string) models.SessionResponse {
	t.Helper()
	resp, body := s.do(t, owner, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Mode: mode})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	return decode[models.SessionResponse](t, body)
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	s := newTestServer(t, stubParser{})

	resp, _ := s.do(t, "", http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(t, "", http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, stubParser{})

	resp, body := s.do(t, "", http.MethodGet, "/api/v1/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	got := decode[errorResponse](t, body)
	assert.Equal(t, http.StatusUnauthorized, got.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, _ = s.send(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, stubParser{})
	sess := s.openSession(t, "owner-1", "")
	assert.Equal(t, 1, sess.Step)
	assert.Equal(t, "Personal Details", sess.StepTitle)
	base := "/api/v1/sessions/" + sess.ID

	// empty step 1 is rejected with the first invalid field
	resp, body := s.do(t, "owner-1", http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	verr := decode[errorResponse](t, body)
	assert.Equal(t, "firstName", verr.FirstInvalid)
	assert.Equal(t, 1, verr.Step)

	for field, value := range map[string]string{
		"firstName":   "Asha",
		"phone":       "+91 98765-43210",
		"dateOfBirth": "2003-05-10",
		"gender":      "Female",
		"address":     "Pune",
	} {
		resp, body = s.do(t, "owner-1", http.MethodPatch, base+"/fields", models.FieldUpdateRequest{Field: field, Value: value})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}
	state := decode[models.SessionResponse](t, body)
	assert.Equal(t, "9198765432", state.Profile.Phone)

	resp, body = s.do(t, "owner-1", http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 2, decode[models.SessionResponse](t, body).Step)

	for field, value := range map[string]string{
		"institution": "IIT Delhi", "degree": "BTech", "startYear": "2021", "endYear": "2025", "score": "8.6",
	} {
		resp, body = s.do(t, "owner-1", http.MethodPatch, base+"/items/education/1", models.FieldUpdateRequest{Field: field, Value: value})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}

	resp, body = s.do(t, "owner-1", http.MethodPost, base+"/items/skills", models.AddItemRequest{
		Fields: map[string]string{"name": "Go", "level": "Advanced"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	for i := 0; i < 4; i++ {
		resp, body = s.do(t, "owner-1", http.MethodPost, base+"/next", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}
	assert.Equal(t, services.TotalSteps, decode[models.SessionResponse](t, body).Step)

	resp, body = s.do(t, "owner-1", http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	out := decode[models.SubmitResponse](t, body)
	assert.True(t, out.Saved)
	assert.True(t, out.DocumentGenerated)
	assert.Equal(t, "/dashboard", out.Redirect)
	assert.Equal(t, "%PDF-1.7", string(out.Document))

	// the session is gone and the profile is persisted
	resp, _ = s.do(t, "owner-1", http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body = s.do(t, "owner-1", http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Asha", decode[models.Profile](t, body).FirstName)
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, stubParser{})
	sess := s.openSession(t, "owner-1", "new")
	base := "/api/v1/sessions/" + sess.ID

	tests := []struct {
		name   string
		owner  string
		method string
		path   string
		body   any
		status int
	}{
		{"other owner", "owner-2", http.MethodGet, base, nil, http.StatusNotFound},
		{"bad session id", "owner-1", http.MethodGet, "/api/v1/sessions/nope", nil, http.StatusBadRequest},
		{"unknown field", "owner-1", http.MethodPatch, base + "/fields", models.FieldUpdateRequest{Field: "salary", Value: "1"}, http.StatusBadRequest},
		{"missing field name", "owner-1", http.MethodPatch, base + "/fields", models.FieldUpdateRequest{Value: "1"}, http.StatusBadRequest},
		{"unknown collection", "owner-1", http.MethodPost, base + "/items/pets", nil, http.StatusBadRequest},
		{"missing item", "owner-1", http.MethodDelete, base + "/items/skills/42", nil, http.StatusNotFound},
		{"bad item id", "owner-1", http.MethodDelete, base + "/items/skills/x", nil, http.StatusBadRequest},
		{"submit early", "owner-1", http.MethodPost, base + "/submit", nil, http.StatusConflict},
		{"bad mode", "owner-1", http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Mode: "draft"}, http.StatusBadRequest},
		{"bad latitude", "owner-1", http.MethodPut, base + "/location", models.LocationRequest{Address: "Pune", Latitude: 123}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, tt.owner, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Equal(t, tt.status, decode[errorResponse](t, body).Code)
		})
	}

	resp, _ := s.do(t, "owner-1", http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestLocationAndLanguages(t *testing.T) {
	s := newTestServer(t, stubParser{})
	sess := s.openSession(t, "owner-1", "new")
	base := "/api/v1/sessions/" + sess.ID

	resp, body := s.do(t, "owner-1", http.MethodPut, base+"/location", models.LocationRequest{Address: "Pune, MH", Latitude: 18.52, Longitude: 73.85})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	state := decode[models.SessionResponse](t, body)
	assert.Equal(t, "Pune, MH", state.Profile.Address)
	require.NotNil(t, state.Profile.Location)

	s.do(t, "owner-1", http.MethodPost, base+"/languages", models.LanguageRequest{Language: "English"})
	_, body = s.do(t, "owner-1", http.MethodPost, base+"/languages", models.LanguageRequest{Language: "english"})
	assert.Equal(t, "English", decode[models.SessionResponse](t, body).Profile.Languages)
}

func multipartRequest(t *testing.T, path, owner, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, owner))
	return req
}

func TestResumeUpload(t *testing.T) {
	parsed := &models.ParsedResume{
		Profile: models.ParsedProfile{Name: "Asha Verma", Email: "asha@example.com"},
		Skills:  models.ParsedSkills{Descriptions: []string{"Go, SQL"}},
	}
	s := newTestServer(t, stubParser{parsed: parsed})

	newSess := s.openSession(t, "owner-1", "new")
	resp, _ := s.send(t, multipartRequest(t, "/api/v1/sessions/"+newSess.ID+"/resume", "owner-1", "cv.pdf", []byte("%PDF-1.4")))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	sess := s.openSession(t, "owner-1", "autofill")
	path := "/api/v1/sessions/" + sess.ID + "/resume"

	resp, _ = s.send(t, multipartRequest(t, path, "owner-1", "cv.docx", []byte("doc")))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.send(t, multipartRequest(t, path, "owner-1", "cv.pdf", []byte("<html>not a pdf</html>")))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.send(t, multipartRequest(t, path, "owner-1", "cv.pdf", bytes.Repeat([]byte("x"), 2048)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, body := s.send(t, multipartRequest(t, path+"?overwrite=false", "owner-1", "cv.pdf", []byte("%PDF-1.4")))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out struct {
		Upload  models.UploadResponse  `json:"upload"`
		Session models.SessionResponse `json:"session"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "parsed", out.Upload.Status)
	assert.Equal(t, "Asha", out.Session.Profile.FirstName)
	assert.Equal(t, "Verma", out.Session.Profile.LastName)
	assert.Len(t, out.Session.Profile.Skills, 2)
}

func TestResumeUploadParseFailureLeavesSession(t *testing.T) {
	s := newTestServer(t, stubParser{err: services.ErrResumeParse})
	sess := s.openSession(t, "owner-1", "autofill")

	resp, body := s.send(t, multipartRequest(t, "/api/v1/sessions/"+sess.ID+"/resume", "owner-1", "cv.pdf", []byte("%PDF-1.4")))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))

	_, body = s.do(t, "owner-1", http.MethodGet, "/api/v1/sessions/"+sess.ID, nil)
	assert.Equal(t, sess.Profile, decode[models.SessionResponse](t, body).Profile)
}

func TestProfilePutNormalisesAndValidates(t *testing.T) {
	s := newTestServer(t, stubParser{})

	resp, body := s.do(t, "owner-1", http.MethodPut, "/api/v1/profile", map[string]any{"first_name": "Asha"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
	assert.Equal(t, "phone", decode[errorResponse](t, body).FirstInvalid)

	resp, body = s.do(t, "owner-1", http.MethodPut, "/api/v1/profile", map[string]any{
		"first_name":     "Asha",
		"contact_number": "9876543210",
		"dob":            "2003-05-10",
		"gender":         "Female",
		"location":       "Pune",
		"educations": []map[string]any{{
			"institution": "IIT Delhi", "degree": "BTech", "start_year": "2021", "end_year": "2025", "score": "8.6",
		}},
		"skills": []map[string]any{{"name": "Go"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	saved, err := s.profiles.GetProfile(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", saved.Phone)
	assert.Equal(t, "Pune", saved.Address)
	require.Len(t, saved.Skills, 1)
	assert.Equal(t, models.SkillLevelIntermediate, saved.Skills[0].Level)

	resp, _ = s.do(t, "owner-2", http.MethodGet, "/api/v1/profile", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateResume(t *testing.T) {
	s := newTestServer(t, stubParser{})
	resp, _ := s.do(t, "owner-1", http.MethodPost, "/api/v1/resume/generate", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	p := models.NewEmptyProfile()
	p.FirstName = "Asha"
	require.NoError(t, s.profiles.SaveProfile(context.Background(), "owner-1", p))

	resp, body := s.do(t, "owner-1", http.MethodPost, "/api/v1/resume/generate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(nil)})
	app.Get("/boom", func(*fiber.Ctx) error { return errors.New("dial tcp 10.0.0.5:5432: refused") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), "10.0.0.5")
}

func TestPreviewStreamEndsWithSession(t *testing.T) {
	s := newTestServer(t, stubParser{})
	sess := s.openSession(t, "owner-1", "new")
	base := "/api/v1/sessions/" + sess.ID

	type result struct {
		status int
		body   string
		err    error
	}
	streamed := make(chan result, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, base+"/preview", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "owner-1"))
		resp, err := s.app.Test(req, -1)
		if err != nil {
			streamed <- result{err: err}
			return
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		streamed <- result{status: resp.StatusCode, body: string(data), err: err}
	}()

	// let the stream subscribe, then edit and leave
	time.Sleep(100 * time.Millisecond)
	resp, _ := s.do(t, "owner-1", http.MethodPatch, base+"/fields", models.FieldUpdateRequest{Field: "firstName", Value: "Meera"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	time.Sleep(100 * time.Millisecond)
	resp, _ = s.do(t, "owner-1", http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	select {
	case r := <-streamed:
		require.NoError(t, r.err)
		assert.Equal(t, http.StatusOK, r.status)
		events := strings.Split(strings.TrimSpace(r.body), "\n\n")
		require.GreaterOrEqual(t, len(events), 2, r.body)
		assert.Contains(t, events[0], `"seq":0`)
		assert.NotContains(t, events[0], "Meera")
		assert.Contains(t, events[len(events)-1], "Meera")
	case <-time.After(3 * time.Second):
		t.Fatal("preview stream still open after the session was discarded")
	}
}

func TestPushLatestKeepsNewestWhenFull(t *testing.T) {
	queue := make(chan []byte, 2)
	for _, payload := range []string{"1", "2", "3", "4"} {
		pushLatest(queue, []byte(payload))
	}
	require.Len(t, queue, 2)
	assert.Equal(t, "3", string(<-queue))
	assert.Equal(t, "4", string(<-queue))
}
