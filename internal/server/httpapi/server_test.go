package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/cryptox"
	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/auth"
	"github.com/bloomwell/telehealth/internal/server/config"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/server/repositories/auditlogs"
	"github.com/bloomwell/telehealth/internal/server/repositories/breaches"
	"github.com/bloomwell/telehealth/internal/server/repositories/consents"
	"github.com/bloomwell/telehealth/internal/server/repositories/retention"
	"github.com/bloomwell/telehealth/internal/server/services"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

var testJWTSecret = []byte("test-secret")

// --- in-memory repositories ---

type memUsers struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, byEmail: map[string]*models.User{}}
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, exists := m.byEmail[u.Email]; exists {
		return nil, common.ErrorConflict
	}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (m *memUsers) SetMFAEnabled(ctx context.Context, id string, enabled bool) error {
	if u, ok := m.byID[id]; ok {
		u.MFAEnabled = enabled
	}
	return nil
}

func (m *memUsers) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memUsers) Count(ctx context.Context) (int, error) { return len(m.byID), nil }

func (m *memUsers) CountMFAEnabled(ctx context.Context) (int, error) {
	n := 0
	for _, u := range m.byID {
		if u.MFAEnabled {
			n++
		}
	}
	return n, nil
}

type memPatients struct {
	byUser map[string]*models.PatientProfile
}

func newMemPatients() *memPatients {
	return &memPatients{byUser: map[string]*models.PatientProfile{}}
}

func (m *memPatients) Create(ctx context.Context, p *models.PatientProfile) (*models.PatientProfile, error) {
	m.byUser[p.UserID] = p
	return p, nil
}

func (m *memPatients) GetByUserID(ctx context.Context, userID string) (*models.PatientProfile, error) {
	p, ok := m.byUser[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (m *memPatients) UpdateFields(ctx context.Context, p *models.PatientProfile) error {
	m.byUser[p.UserID] = p
	return nil
}

func (m *memPatients) Count(ctx context.Context) (int, error) { return len(m.byUser), nil }

type memMFA struct {
	setups map[string]*models.MFASetup
	unused map[string]map[string]bool
}

func newMemMFA() *memMFA {
	return &memMFA{setups: map[string]*models.MFASetup{}, unused: map[string]map[string]bool{}}
}

func (m *memMFA) SaveSetup(ctx context.Context, setup *models.MFASetup) error {
	m.setups[setup.UserID] = setup
	return nil
}

func (m *memMFA) GetSetup(ctx context.Context, userID string) (*models.MFASetup, error) {
	s, ok := m.setups[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (m *memMFA) ReplaceBackupCodes(ctx context.Context, userID string, hashes []string) error {
	set := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		set[h] = true
	}
	m.unused[userID] = set
	return nil
}

func (m *memMFA) ConsumeBackupCode(ctx context.Context, userID, codeHash string) (bool, error) {
	if m.unused[userID][codeHash] {
		delete(m.unused[userID], codeHash)
		return true, nil
	}
	return false, nil
}

type memConsents struct {
	rows []*models.ConsentRecord
}

func (m *memConsents) Create(ctx context.Context, rec *models.ConsentRecord) (*models.ConsentRecord, error) {
	rec.ConsentDate = time.Now()
	m.rows = append(m.rows, rec)
	return rec, nil
}

func (m *memConsents) GetLatest(ctx context.Context, userID string, ct models.ConsentType) (*models.ConsentRecord, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID && m.rows[i].ConsentType == ct {
			return m.rows[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memConsents) History(ctx context.Context, userID string) ([]*models.ConsentRecord, error) {
	var out []*models.ConsentRecord
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memConsents) GetStats(ctx context.Context) (*consents.Stats, error) {
	return &consents.Stats{TotalRecords: len(m.rows)}, nil
}

type memRetention struct {
	policies []*models.RetentionPolicy
}

func (m *memRetention) Create(ctx context.Context, p *models.RetentionPolicy) (*models.RetentionPolicy, error) {
	m.policies = append(m.policies, p)
	return p, nil
}

func (m *memRetention) GetByID(ctx context.Context, id string) (*models.RetentionPolicy, error) {
	for _, p := range m.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memRetention) Schedule(ctx context.Context, userID string, dt models.DataCategory, at time.Time) error {
	for _, p := range m.policies {
		if p.UserID == userID && p.DataType == dt {
			p.Status = models.RetentionScheduledForDeletion
			p.DeletionDate = at
			return nil
		}
	}
	return common.ErrorNotFound
}

func (m *memRetention) UpdateStatus(ctx context.Context, id string, status string) error {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Status = status
	return nil
}

func (m *memRetention) FindDue(ctx context.Context, now time.Time) ([]*models.RetentionPolicy, error) {
	var out []*models.RetentionPolicy
	for _, p := range m.policies {
		if p.Status != models.RetentionDeleted && !p.DeletionDate.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRetention) GetStats(ctx context.Context) (*retention.Stats, error) {
	return &retention.Stats{TotalPolicies: len(m.policies)}, nil
}

type memBreaches struct {
	incidents map[string]*models.BreachIncident
	statsErr  error
}

func newMemBreaches() *memBreaches {
	return &memBreaches{incidents: map[string]*models.BreachIncident{}}
}

func (m *memBreaches) Create(ctx context.Context, inc *models.BreachIncident) (*models.BreachIncident, error) {
	m.incidents[inc.ID] = inc
	return inc, nil
}

func (m *memBreaches) GetByID(ctx context.Context, id string) (*models.BreachIncident, error) {
	inc, ok := m.incidents[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return inc, nil
}

func (m *memBreaches) UpdateStatus(ctx context.Context, id string, status string, at time.Time) error {
	inc, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	inc.Status = status
	return nil
}

func (m *memBreaches) RecordNotification(ctx context.Context, id string, affected, notified int, at time.Time) error {
	inc, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	inc.AffectedUsers = affected
	inc.NotifiedUsers = notified
	inc.NotificationDate = &at
	inc.Status = models.BreachNotificationSent
	return nil
}

func (m *memBreaches) GetStats(ctx context.Context) (*breaches.Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return &breaches.Stats{TotalIncidents: len(m.incidents)}, nil
}

type memAudit struct {
	entries []*models.AuditLogEntry
}

func (m *memAudit) Insert(ctx context.Context, e *models.AuditLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) ActiveUserIDsSince(ctx context.Context, since time.Time) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range m.entries {
		if e.UserID != "" && !e.Timestamp.Before(since) && !seen[e.UserID] {
			seen[e.UserID] = true
			out = append(out, e.UserID)
		}
	}
	return out, nil
}

func (m *memAudit) GetStats(ctx context.Context) (*auditlogs.Stats, error) {
	return &auditlogs.Stats{TotalEntries: len(m.entries), EntriesLast30: len(m.entries)}, nil
}

type memRefresh struct {
	tokens map[string]*models.RefreshToken
}

func newMemRefresh() *memRefresh {
	return &memRefresh{tokens: map[string]*models.RefreshToken{}}
}

func (m *memRefresh) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	m.tokens[token] = &models.RefreshToken{Token: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (m *memRefresh) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rt, nil
}

func (m *memRefresh) Delete(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

// --- wiring ---

type testEnv struct {
	server    *Server
	router    http.Handler
	users     *memUsers
	breaches  *memBreaches
	audit     *memAudit
	consents  *memConsents
	retention *memRetention
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	secure := logging.NewSecureLogger(logger, logging.NewSanitizer(logging.DefaultRedactedKeys()))

	cipher, err := cryptox.NewFieldCipher(testKeyHex, logger)
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}
	policy := cryptox.NewFieldPolicy(cryptox.DefaultSensitiveFields())

	usersRepo := newMemUsers()
	patientsRepo := newMemPatients()
	mfaRepo := newMemMFA()
	consentsRepo := &memConsents{}
	retentionRepo := &memRetention{}
	breachRepo := newMemBreaches()
	auditRepo := &memAudit{}
	refreshRepo := newMemRefresh()

	cfg := &config.Config{
		JWTSecret:                    string(testJWTSecret),
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 24 * time.Hour,
	}

	mfaSvc := services.NewMFAService(mfaRepo, usersRepo, logger)
	consentSvc := services.NewConsentService(consentsRepo, []models.ConsentType{models.ConsentHIPAANotice})
	userSvc := services.NewUserService(usersRepo, patientsRepo, mfaSvc, consentSvc,
		refreshRepo, cipher, policy, cfg, logger)
	retentionSvc := services.NewRetentionService(nil, retentionRepo, nil, nil,
		map[models.DataCategory]int{models.DataMedicalRecords: 6}, logger)
	breachSvc := services.NewBreachService(breachRepo, usersRepo, auditRepo,
		services.NewLogNotifier(logger), 60*24*time.Hour, logger)
	complianceSvc := services.NewComplianceService(auditRepo, usersRepo, patientsRepo,
		retentionRepo, consentsRepo, breachRepo, logger)
	auditSvc := services.NewAuditService(auditRepo, secure, logger)

	srv := NewServer(userSvc, mfaSvc, consentSvc, retentionSvc, breachSvc,
		complianceSvc, auditSvc, testJWTSecret, logger)

	return &testEnv{
		server:    srv,
		router:    srv.Routes(),
		users:     usersRepo,
		breaches:  breachRepo,
		audit:     auditRepo,
		consents:  consentsRepo,
		retention: retentionRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerAndLogin(t *testing.T, email, role string) (string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", "", registerRequest{Email: email, Password: "s3cret!pw", Role: role})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d: %s", w.Code, w.Body.String())
	}
	var u userResponse
	json.Unmarshal(w.Body.Bytes(), &u)

	w = e.do(t, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: "s3cret!pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", w.Code, w.Body.String())
	}
	var lr loginResponse
	json.Unmarshal(w.Body.Bytes(), &lr)
	return lr.Token, u.ID
}

// --- tests ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerAndLogin(t, "pat@example.com", "")
	if token == "" {
		t.Fatal("expected a token")
	}

	// Wrong password is rejected.
	w := env.do(t, http.MethodPost, "/auth/login", "", loginRequest{Email: "pat@example.com", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d", w.Code)
	}

	// Duplicate registration conflicts.
	w = env.do(t, http.MethodPost, "/auth/register", "", registerRequest{Email: "pat@example.com", Password: "another"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/profile", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/profile", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", w.Code)
	}
}

func TestAdminRoutesForbiddenForPatients(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerAndLogin(t, "pat@example.com", "")

	w := env.do(t, http.MethodGet, "/api/compliance/dashboard", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("patient on admin route: status = %d", w.Code)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerAndLogin(t, "pat@example.com", "")

	w := env.do(t, http.MethodPost, "/api/consents", token, consentRequest{ConsentType: "hipaa_notice", Given: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("record consent: status %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPut, "/api/profile", token, saveProfileRequest{
		FirstName: "Ada",
		LastName:  "Nguyen",
		Fields:    map[string]string{"ssn": "123-45-6789", "allergies": "penicillin"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save profile: status %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get profile: status %d: %s", w.Code, w.Body.String())
	}
	var resp profileResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Fields["ssn"] != "123-45-6789" {
		t.Fatalf("ssn round trip failed: %q", resp.Fields["ssn"])
	}
	if resp.Fields["allergies"] != "penicillin" {
		t.Fatalf("allergies round trip failed: %q", resp.Fields["allergies"])
	}
}

// PHI is not accepted until the required consents are on file.
func TestProfileRequiresConsent(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerAndLogin(t, "pat@example.com", "")

	w := env.do(t, http.MethodPut, "/api/profile", token, saveProfileRequest{
		FirstName: "Ada",
		LastName:  "Nguyen",
		Fields:    map[string]string{"ssn": "123-45-6789"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("profile without consent: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error == "" {
		t.Fatal("expected an error body")
	}
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "pat@example.com", "")

	w := env.do(t, http.MethodPost, "/auth/login", "", loginRequest{Email: "pat@example.com", Password: "s3cret!pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d", w.Code)
	}
	var lr loginResponse
	json.Unmarshal(w.Body.Bytes(), &lr)
	if lr.RefreshToken == "" {
		t.Fatal("login must return a refresh token")
	}

	w = env.do(t, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: lr.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status %d: %s", w.Code, w.Body.String())
	}
	var rr refreshResponse
	json.Unmarshal(w.Body.Bytes(), &rr)
	if rr.Token == "" || rr.RefreshToken == "" || rr.RefreshToken == lr.RefreshToken {
		t.Fatalf("refresh did not rotate: %+v", rr)
	}

	// The rotated-out token is gone.
	w = env.do(t, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: lr.RefreshToken})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: status %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/auth/logout", "", refreshRequest{RefreshToken: rr.RefreshToken})
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: status %d", w.Code)
	}
	w = env.do(t, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: rr.RefreshToken})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: status %d", w.Code)
	}
}

func TestConsentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerAndLogin(t, "pat@example.com", "")

	w := env.do(t, http.MethodGet, "/api/consents/status", token, nil)
	var status struct {
		HasAll  bool     `json:"has_all_consents"`
		Missing []string `json:"missing_consents"`
	}
	json.Unmarshal(w.Body.Bytes(), &status)
	if status.HasAll {
		t.Fatal("new user should be missing required consents")
	}

	w = env.do(t, http.MethodPost, "/api/consents", token, consentRequest{ConsentType: "hipaa_notice", Given: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("record consent: status %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/consents/status", token, nil)
	json.Unmarshal(w.Body.Bytes(), &status)
	if !status.HasAll {
		t.Fatalf("expected all consents granted, missing %v", status.Missing)
	}

	w = env.do(t, http.MethodPost, "/api/consents/revoke", token, consentRequest{ConsentType: "hipaa_notice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("revoke: status %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/consents/history", token, nil)
	var history []consentResponse
	json.Unmarshal(w.Body.Bytes(), &history)
	if len(history) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(history))
	}
}

func TestBreachEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.registerAndLogin(t, "admin@example.com", models.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/breaches", adminToken, reportBreachRequest{
		BreachType:  "data_theft",
		Severity:    "critical",
		Description: "backup tape lost",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("report breach: status %d: %s", w.Code, w.Body.String())
	}
	var inc breachResponse
	json.Unmarshal(w.Body.Bytes(), &inc)

	w = env.do(t, http.MethodGet, "/api/breaches/"+inc.ID+"/notification-required", adminToken, nil)
	var nr struct {
		Required bool `json:"notification_required"`
	}
	json.Unmarshal(w.Body.Bytes(), &nr)
	if !nr.Required {
		t.Fatal("critical breach must require notification immediately")
	}

	w = env.do(t, http.MethodPost, "/api/breaches/"+inc.ID+"/notify", adminToken, notifyBreachRequest{Method: "email"})
	if w.Code != http.StatusOK {
		t.Fatalf("notify: status %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPut, "/api/breaches/"+inc.ID+"/status", adminToken, updateBreachStatusRequest{Status: "resolved"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status: status %d", w.Code)
	}

	w = env.do(t, http.MethodPut, "/api/breaches/"+inc.ID+"/status", adminToken, updateBreachStatusRequest{Status: "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bogus status accepted: %d", w.Code)
	}
}

func TestRetentionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.registerAndLogin(t, "admin@example.com", models.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/retention/policies", adminToken, createPolicyRequest{
		UserID:   "u1",
		DataType: "medical_records",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create policy: status %d: %s", w.Code, w.Body.String())
	}
	var policy policyResponse
	json.Unmarshal(w.Body.Bytes(), &policy)
	if policy.RetentionYears != 6 {
		t.Fatalf("retention years = %d, want 6", policy.RetentionYears)
	}

	w = env.do(t, http.MethodPost, "/api/retention/policies", adminToken, createPolicyRequest{
		UserID:   "u1",
		DataType: "selfies",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown category: status %d", w.Code)
	}
}

func TestComplianceDashboard(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.registerAndLogin(t, "admin@example.com", models.RoleAdmin)

	w := env.do(t, http.MethodGet, "/api/compliance/dashboard", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d: %s", w.Code, w.Body.String())
	}
	var report services.ComplianceReport
	json.Unmarshal(w.Body.Bytes(), &report)
	if report.Degraded {
		t.Fatalf("unexpected degraded report: %+v", report.Sections)
	}
	if report.Score <= 0 {
		t.Fatalf("score = %d, want > 0", report.Score)
	}
	if len(report.Sections) != 6 {
		t.Fatalf("expected 6 sections, got %d", len(report.Sections))
	}
}

func TestComplianceDashboard_Degraded(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.registerAndLogin(t, "admin@example.com", models.RoleAdmin)
	env.breaches.statsErr = context.DeadlineExceeded

	w := env.do(t, http.MethodGet, "/api/compliance/dashboard", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d", w.Code)
	}
	var report services.ComplianceReport
	json.Unmarshal(w.Body.Bytes(), &report)
	if !report.Degraded {
		t.Fatal("report must be degraded when the breach store fails")
	}
	if report.Sections["breach"].Available {
		t.Fatal("breach section must be unavailable")
	}
}

func TestAuditMiddlewareRecordsRequests(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.registerAndLogin(t, "pat@example.com", "")

	before := len(env.audit.entries)
	env.do(t, http.MethodGet, "/api/consents/history", token, nil)
	if len(env.audit.entries) != before+1 {
		t.Fatalf("expected one audit entry, got %d new", len(env.audit.entries)-before)
	}

	entry := env.audit.entries[len(env.audit.entries)-1]
	if entry.UserID != userID {
		t.Fatalf("audit entry user = %q, want %q", entry.UserID, userID)
	}
	if entry.Action != "GET /api/consents/history" {
		t.Fatalf("audit action = %q", entry.Action)
	}
	if !entry.Success {
		t.Fatal("expected success entry for a 200 response")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	token, err := auth.GenerateToken("u1", models.RolePatient, testJWTSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w := env.do(t, http.MethodGet, "/api/profile", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: status = %d", w.Code)
	}
}
