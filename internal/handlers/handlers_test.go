package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medivault-api/internal/logger"
	"github.com/harentsoaR/medivault-api/internal/metrics"
	"github.com/harentsoaR/medivault-api/internal/services"
	"github.com/harentsoaR/medivault-api/internal/store"
	"github.com/harentsoaR/medivault-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *gin.Engine
	repo   *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend, err := store.OpenMemory()
	require.NoError(t, err)
	return newTestServerWith(t, backend)
}

func newTestServerWith(t *testing.T, backend store.Backend) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	repo := store.New(backend, log)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })

	session := services.NewSession(repo, log)
	m := metrics.New()
	h := NewHandler(
		services.NewAuthService(repo, session, log),
		services.NewRecordService(repo, services.NewShareTokens("medivault"), 0, log),
		services.NewAssistant(0),
		services.NewDocumentExtractor(0),
		services.NewNotificationService("", log),
		utils.NewTokenIssuer("test-secret", time.Hour),
		m,
		log,
	)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/metrics", m.Handler())
	h.Routes(r)
	return &testServer{router: r, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type resultBody struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	User    map[string]interface{} `json:"user"`
	Token   string                 `json:"token"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func patientBody() map[string]any {
	return map[string]any{
		"name":        "Ann Lee",
		"phone":       "5551234567",
		"email":       "a@x.com",
		"password":    "secret1",
		"dateOfBirth": "1990-01-01",
		"age":         36,
		"place":       "Springfield",
		"bloodGroup":  "O+",
	}
}

func doctorBody() map[string]any {
	return map[string]any{
		"name":         "Dr Bo",
		"uid":          "MD123456",
		"email":        "doc@x.com",
		"password":     "secret1",
		"dateOfBirth":  "1980-05-05",
		"place":        "Shelbyville",
		"hospitalName": "City General",
		"speciality":   "Cardiology",
	}
}

// registerAndLoginPatient returns the patient id and bearer token.
func (s *testServer) registerAndLoginPatient(t *testing.T, body map[string]any) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/patients/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/patients/login", "", map[string]any{"identifier": body["email"], "password": "whatever"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[resultBody](t, w)
	return res.User["id"].(string), res.Token
}

func (s *testServer) registerAndLoginDoctor(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/doctors/register", "", doctorBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/doctors/login", "", map[string]any{"uid": "MD123456"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[resultBody](t, w).Token
}

func TestRegisterPatient_ThenDoctorWithSameEmail(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/patients/register", "", patientBody())
	require.Equal(t, http.StatusCreated, w.Code)
	res := decode[resultBody](t, w)
	assert.True(t, res.Success)
	assert.Equal(t, "Registration successful", res.Message)
	assert.Equal(t, "patient", res.User["type"])
	assert.Equal(t, false, res.User["isDonor"])
	assert.NotContains(t, res.User, "password")

	doc := doctorBody()
	doc["email"] = "a@x.com"
	w = s.do(t, http.MethodPost, "/auth/doctors/register", "", doc)
	assert.Equal(t, http.StatusConflict, w.Code)
	res = decode[resultBody](t, w)
	assert.False(t, res.Success)
	assert.Equal(t, "Email or UID already registered", res.Message)

	assert.Len(t, s.repo.LoadUsers(context.Background()), 1)
}

func TestRegister_ValidationFailures(t *testing.T) {
	s := newTestServer(t)

	bad := patientBody()
	bad["bloodGroup"] = "Z+"
	w := s.do(t, http.MethodPost, "/auth/patients/register", "", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad = patientBody()
	bad["age"] = 0
	w = s.do(t, http.MethodPost, "/auth/patients/register", "", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	doc := doctorBody()
	doc["speciality"] = "Astrology"
	w = s.do(t, http.MethodPost, "/auth/doctors/register", "", doc)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode[resultBody](t, w).Success)

	assert.Empty(t, s.repo.LoadUsers(context.Background()))
}

func TestLogin_SetsSessionAndLogoutClearsIt(t *testing.T) {
	s := newTestServer(t)

	id, token := s.registerAndLoginPatient(t, patientBody())
	assert.NotEmpty(t, token)

	w := s.do(t, http.MethodGet, "/auth/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode[resultBody](t, w).User["id"])
	assert.Equal(t, id, s.repo.Session(context.Background()).ID())

	// Login by phone works too.
	w = s.do(t, http.MethodPost, "/auth/patients/login", "", map[string]any{"identifier": "5551234567"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, s.repo.Session(context.Background()))
	w = s.do(t, http.MethodGet, "/auth/session", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionRoutes_RequireOwnerToken(t *testing.T) {
	s := newTestServer(t)

	_, token := s.registerAndLoginPatient(t, patientBody())
	w := s.do(t, http.MethodPut, "/api/patients/"+s.repo.Session(context.Background()).ID(), token,
		map[string]any{"medicalHistory": "Asthma", "allergies": "Penicillin"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "Penicillin")

	w = s.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotNil(t, s.repo.Session(context.Background()))

	// A valid token for a different user neither reads nor clears the session.
	other, err := utils.NewTokenIssuer("test-secret", time.Hour).GenerateJWT("someone-else", "patient")
	require.NoError(t, err)

	w = s.do(t, http.MethodGet, "/auth/session", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "Penicillin")

	w = s.do(t, http.MethodPost, "/auth/logout", other, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, s.repo.Session(context.Background()))

	w = s.do(t, http.MethodGet, "/auth/session", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_UnknownIdentity(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/patients/login", "", map[string]any{"identifier": "nobody@x.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", decode[resultBody](t, w).Message)

	w = s.do(t, http.MethodPost, "/auth/doctors/login", "", map[string]any{"uid": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Doctor not found", decode[resultBody](t, w).Message)
}

func TestAPI_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/user/x", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/user/x", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile_ThenGenerateReport(t *testing.T) {
	s := newTestServer(t)
	id, token := s.registerAndLoginPatient(t, patientBody())

	w := s.do(t, http.MethodPut, "/api/patients/"+id, token, map[string]any{"height": 170, "weight": 70, "allergies": "Peanuts"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[resultBody](t, w)
	assert.Equal(t, "Profile updated successfully", res.Message)
	assert.Equal(t, 170.0, res.User["height"])

	// Session pointer was refreshed with the new vitals.
	w = s.do(t, http.MethodGet, "/auth/session", "", nil)
	assert.Equal(t, 70.0, decode[resultBody](t, w).User["weight"])

	w = s.do(t, http.MethodPost, "/api/patients/"+id+"/report", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	type reportBody struct {
		PatientID string `json:"patientId"`
		QRCode    string `json:"qrCode"`
		Report    struct {
			Summary struct {
				BasicInfo struct {
					BMI float64 `json:"bmi"`
				} `json:"basicInfo"`
				OverallHealth string `json:"overallHealth"`
			} `json:"summary"`
			RiskFactors []string `json:"riskFactors"`
		} `json:"report"`
	}
	first := decode[reportBody](t, w)
	assert.Equal(t, 24.2, first.Report.Summary.BasicInfo.BMI)
	assert.Equal(t, "Normal", first.Report.Summary.OverallHealth)
	assert.Equal(t, []string{"Allergies: Peanuts"}, first.Report.RiskFactors)

	w = s.do(t, http.MethodPut, "/api/patients/"+id, token, map[string]any{"weight": 100})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/patients/"+id+"/report", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[reportBody](t, w)
	assert.Equal(t, 34.6, second.Report.Summary.BasicInfo.BMI)
	assert.Equal(t, "Obese", second.Report.Summary.OverallHealth)
	assert.NotEqual(t, first.QRCode, second.QRCode)

	assert.Len(t, s.repo.LoadReports(context.Background()), 1)

	w = s.do(t, http.MethodGet, "/api/patients/"+id+"/report", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, second.QRCode, decode[reportBody](t, w).QRCode)

	w = s.do(t, http.MethodGet, "/api/patients/"+id+"/report/qr.png", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	// A doctor can resolve the latest share-token only.
	doctorToken := s.registerAndLoginDoctor(t)
	w = s.do(t, http.MethodGet, "/api/reports/scan?token="+url.QueryEscape(second.QRCode), doctorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode[reportBody](t, w).PatientID)

	w = s.do(t, http.MethodGet, "/api/reports/scan?token="+url.QueryEscape(first.QRCode), doctorToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/reports/scan?token="+url.QueryEscape(second.QRCode), token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "patients cannot scan")
}

func TestUpdateProfile_Rules(t *testing.T) {
	s := newTestServer(t)
	id, token := s.registerAndLoginPatient(t, patientBody())

	other := patientBody()
	other["email"] = "b@x.com"
	other["phone"] = "5559876543"
	otherID, _ := s.registerAndLoginPatient(t, other)

	w := s.do(t, http.MethodPut, "/api/patients/"+otherID, token, map[string]any{"weight": 60})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/patients/"+id, token, map[string]any{"spo2": 140})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/patients/"+id, token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No update fields provided", decode[resultBody](t, w).Message)

	w = s.do(t, http.MethodGet, "/api/patients/"+id+"/report", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfile_TakenEmailOrPhoneConflicts(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLoginPatient(t, patientBody())

	other := patientBody()
	other["email"] = "b@x.com"
	other["phone"] = "5559876543"
	otherID, otherToken := s.registerAndLoginPatient(t, other)

	w := s.do(t, http.MethodPut, "/api/patients/"+otherID, otherToken, map[string]any{"email": "a@x.com", "phone": "5551234567"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email or phone number already registered", decode[resultBody](t, w).Message)

	w = s.do(t, http.MethodPut, "/api/patients/"+otherID, otherToken, map[string]any{"phone": "5551234567"})
	assert.Equal(t, http.StatusConflict, w.Code)

	withEmail := 0
	for _, u := range s.repo.LoadUsers(context.Background()) {
		if u.Email() == "a@x.com" {
			withEmail++
		}
	}
	assert.Equal(t, 1, withEmail)
}

// writeFailure fails writes of one key while failKey is set.
type writeFailure struct {
	store.Backend
	failKey string
}

func (b *writeFailure) Put(ctx context.Context, key string, value []byte) error {
	if b.failKey != "" && key == b.failKey {
		return errors.New("disk full")
	}
	return b.Backend.Put(ctx, key, value)
}

func TestRegisterDonor_PartialWriteFailures(t *testing.T) {
	mem, err := store.OpenMemory()
	require.NoError(t, err)
	backend := &writeFailure{Backend: mem}
	s := newTestServerWith(t, backend)
	id, token := s.registerAndLoginPatient(t, patientBody())
	isDonor := func() any {
		w := s.do(t, http.MethodGet, "/api/user/"+id, token, nil)
		return decode[map[string]any](t, w)["isDonor"]
	}

	// Flag write fails: no registry entry is left behind.
	backend.failKey = store.KeyUsers
	w := s.do(t, http.MethodPost, "/api/donors", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	backend.failKey = ""
	assert.Empty(t, s.repo.LoadDonors(context.Background()))
	assert.Equal(t, false, isDonor())

	// Registry write fails: the flag is reset.
	backend.failKey = store.KeyBloodDonors
	w = s.do(t, http.MethodPost, "/api/donors", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	backend.failKey = ""
	assert.Empty(t, s.repo.LoadDonors(context.Background()))
	assert.Equal(t, false, isDonor())

	w = s.do(t, http.MethodPost, "/api/donors", token, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, s.repo.LoadDonors(context.Background()), 1)
	assert.Equal(t, true, isDonor())
}

func TestGetUser_Permissions(t *testing.T) {
	s := newTestServer(t)
	id, token := s.registerAndLoginPatient(t, patientBody())
	doctorToken := s.registerAndLoginDoctor(t)

	w := s.do(t, http.MethodGet, "/api/user/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", decode[map[string]any](t, w)["email"])

	w = s.do(t, http.MethodGet, "/api/user/"+id, doctorToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/user/someone-else", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/user/missing", doctorToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDonorRegistrationAndSearch(t *testing.T) {
	s := newTestServer(t)
	id, token := s.registerAndLoginPatient(t, patientBody())

	w := s.do(t, http.MethodPost, "/api/donors", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	donor := decode[map[string]any](t, w)
	assert.Equal(t, "O+", donor["bloodGroup"])
	assert.Equal(t, "Springfield", donor["location"])

	w = s.do(t, http.MethodGet, "/api/user/"+id, token, nil)
	assert.Equal(t, true, decode[map[string]any](t, w)["isDonor"])

	second := patientBody()
	second["email"] = "c@x.com"
	second["phone"] = "5550001111"
	second["bloodGroup"] = "O-"
	_, token2 := s.registerAndLoginPatient(t, second)
	w = s.do(t, http.MethodPost, "/api/donors", token2, map[string]any{"location": "SPRINGDALE"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/donors/search?bloodGroup=O%2B&location=spring", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]map[string]any](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0]["patientId"])

	// Unescaped '+' decodes to a space.
	w = s.do(t, http.MethodGet, "/api/donors/search?bloodGroup=O+&location=field", token, nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/donors/search?bloodGroup=O-&location=spring", token, nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/donors/search?bloodGroup=AB%2B&location=spring", token, nil)
	assert.Equal(t, "[]", w.Body.String())

	doctorToken := s.registerAndLoginDoctor(t)
	w = s.do(t, http.MethodPost, "/api/donors", doctorToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChat(t *testing.T) {
	s := newTestServer(t)
	_, token := s.registerAndLoginPatient(t, patientBody())

	w := s.do(t, http.MethodPost, "/api/chat", token, map[string]any{"message": "any advice?"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["message"], "blood group O+")

	w = s.do(t, http.MethodPost, "/api/chat", token, map[string]any{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOCR(t *testing.T) {
	s := newTestServer(t)
	_, token := s.registerAndLoginPatient(t, patientBody())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "rx-0412.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("not really an image"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ocr", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, "prescription", body["kind"])
	assert.Contains(t, body["text"], "PRESCRIPTION")
	assert.Equal(t, "Successfully extracted text from 1 document(s).", body["message"])

	w = s.do(t, http.MethodPost, "/api/ocr", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please select files to process.", decode[resultBody](t, w).Message)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLoginPatient(t, patientBody())

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `medivault_registrations_total{outcome="success",role="patient"} 1`)
	assert.Contains(t, w.Body.String(), "medivault_http_request_duration_seconds")
}

func TestNormalizeBloodGroup(t *testing.T) {
	assert.Equal(t, "AB+", normalizeBloodGroup("AB "))
	assert.Equal(t, "O-", normalizeBloodGroup("O-"))
	assert.Equal(t, "X ", normalizeBloodGroup("X "))
	assert.Equal(t, "", normalizeBloodGroup(""))
}
