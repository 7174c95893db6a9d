package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/medconnect-api/internal/services"
	"github.com/harentsoaR/medconnect-api/internal/store"
	"github.com/harentsoaR/medconnect-api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t *testing.T
	r *gin.Engine
}

type account struct {
	ID    string
	Token string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	svc := services.NewClinicService(store.NewMemory(), utils.NewPasswordHasher(bcrypt.MinCost))
	h := NewHandler(svc, utils.NewTokenIssuer("test-secret", time.Hour), zerolog.Nop())
	r := gin.New()
	h.RegisterRoutes(r)
	return &testAPI{t: t, r: r}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.r.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) expect(rec *httptest.ResponseRecorder, status int, out interface{}) {
	a.t.Helper()
	if rec.Code != status {
		a.t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			a.t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
}

func (a *testAPI) register(name, email, role string) account {
	a.t.Helper()
	a.expect(a.do(http.MethodPost, "/signup", "", gin.H{
		"name": name, "email": email, "password": "secret-pw", "role": role,
	}), http.StatusCreated, nil)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	a.expect(a.do(http.MethodPost, "/login", "", gin.H{"email": email, "password": "secret-pw"}), http.StatusOK, &resp)
	return account{ID: resp.User.ID, Token: resp.Token}
}

type appointmentBody struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Prescription *struct {
		Medications []struct {
			Name string `json:"name"`
		} `json:"medications"`
	} `json:"prescription"`
}

func TestAuthRoutes(t *testing.T) {
	api := newTestAPI(t)
	api.register("Ann", "ann@x.com", "patient")

	api.expect(api.do(http.MethodPost, "/signup", "", gin.H{
		"name": "Ann2", "email": "ANN@x.com", "password": "pw", "role": "patient",
	}), http.StatusConflict, nil)
	api.expect(api.do(http.MethodPost, "/signup", "", gin.H{
		"name": "Bad", "email": "not-an-email", "password": "pw",
	}), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodPost, "/signup", "", gin.H{
		"name": "Bad", "email": "bad@x.com", "password": "pw", "role": "nurse",
	}), http.StatusBadRequest, nil)

	var errBody struct {
		Error string `json:"error"`
	}
	api.expect(api.do(http.MethodPost, "/login", "", gin.H{"email": "ann@x.com", "password": "wrong"}), http.StatusUnauthorized, &errBody)
	if errBody.Error == "" {
		t.Error("expected an error message")
	}

	api.expect(api.do(http.MethodGet, "/me", "", nil), http.StatusUnauthorized, nil)
	api.expect(api.do(http.MethodGet, "/healthz", "", nil), http.StatusOK, nil)
}

func TestMe(t *testing.T) {
	api := newTestAPI(t)
	doc := api.register("House", "d@x.com", "doctor")

	var me struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
		Doctor *struct {
			MinFee float64 `json:"minFee"`
			MaxFee float64 `json:"maxFee"`
		} `json:"doctor"`
	}
	api.expect(api.do(http.MethodGet, "/me", doc.Token, nil), http.StatusOK, &me)
	if me.User.Role != "doctor" || me.Doctor == nil {
		t.Fatalf("unexpected /me body: %+v", me)
	}
	if me.Doctor.MinFee != 10 || me.Doctor.MaxFee != 30 {
		t.Errorf("expected default fee range, got %v-%v", me.Doctor.MinFee, me.Doctor.MaxFee)
	}
}

func TestAppointmentFlow(t *testing.T) {
	api := newTestAPI(t)
	patient := api.register("Pat", "p@x.com", "patient")
	doctor := api.register("House", "d@x.com", "doctor")
	other := api.register("Wilson", "w@x.com", "doctor")

	booking := gin.H{"doctorId": doctor.ID, "date": "2026-03-01T10:00:00Z", "proposedFee": 20}
	api.expect(api.do(http.MethodPost, "/appointments", doctor.Token, booking), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodPost, "/appointments", patient.Token, gin.H{
		"doctorId": doctor.ID, "date": "tomorrow",
	}), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodPost, "/appointments", patient.Token, gin.H{
		"doctorId": "ghost", "date": "2026-03-01T10:00:00Z",
	}), http.StatusNotFound, nil)

	var apt appointmentBody
	api.expect(api.do(http.MethodPost, "/appointments", patient.Token, booking), http.StatusCreated, &apt)
	if apt.Status != "pending" {
		t.Fatalf("expected pending, got %s", apt.Status)
	}
	path := "/appointments/" + apt.ID

	api.expect(api.do(http.MethodGet, path, other.Token, nil), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodPatch, path+"/respond", other.Token, gin.H{"decision": "accepted"}), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodPatch, path+"/complete", doctor.Token, gin.H{
		"medications": []gin.H{{"name": "Amoxicillin"}},
	}), http.StatusConflict, nil)

	api.expect(api.do(http.MethodPatch, path+"/respond", doctor.Token, gin.H{"decision": "accepted"}), http.StatusOK, &apt)
	if apt.Status != "accepted" {
		t.Fatalf("expected accepted, got %s", apt.Status)
	}
	api.expect(api.do(http.MethodPatch, path+"/respond", doctor.Token, gin.H{"decision": "rejected"}), http.StatusConflict, nil)

	api.expect(api.do(http.MethodPatch, path+"/complete", doctor.Token, gin.H{"medications": []gin.H{}}), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodPatch, path+"/complete", doctor.Token, gin.H{
		"medications":  []gin.H{{"name": "Amoxicillin", "dosage": "500mg", "frequency": "3x daily", "duration": "7 days"}},
		"instructions": "Take with food",
	}), http.StatusOK, &apt)
	if apt.Status != "completed" || apt.Prescription == nil || apt.Prescription.Medications[0].Name != "Amoxicillin" {
		t.Fatalf("unexpected completed appointment: %+v", apt)
	}

	var list []appointmentBody
	api.expect(api.do(http.MethodGet, "/appointments?status=completed", patient.Token, nil), http.StatusOK, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 completed appointment, got %d", len(list))
	}
	api.expect(api.do(http.MethodGet, "/appointments", other.Token, nil), http.StatusOK, &list)
	if len(list) != 0 {
		t.Errorf("expected other doctor to see nothing, got %d", len(list))
	}
	api.expect(api.do(http.MethodGet, "/appointments?status=bogus", patient.Token, nil), http.StatusBadRequest, nil)

	var prescriptions []struct {
		AppointmentID string `json:"appointmentId"`
	}
	api.expect(api.do(http.MethodGet, "/prescriptions", patient.Token, nil), http.StatusOK, &prescriptions)
	if len(prescriptions) != 1 || prescriptions[0].AppointmentID != apt.ID {
		t.Errorf("unexpected prescriptions: %+v", prescriptions)
	}

	var inbox struct {
		Notifications []struct {
			ID      string `json:"id"`
			Message string `json:"message"`
			Read    bool   `json:"read"`
		} `json:"notifications"`
		Unread int `json:"unread"`
	}
	api.expect(api.do(http.MethodGet, "/notifications", patient.Token, nil), http.StatusOK, &inbox)
	if len(inbox.Notifications) != 2 || inbox.Unread != 2 {
		t.Fatalf("expected 2 unread notifications, got %+v", inbox)
	}
	want := "Your appointment with Dr. House has been completed. A prescription has been issued."
	if inbox.Notifications[0].Message != want {
		t.Errorf("expected newest notification %q, got %q", want, inbox.Notifications[0].Message)
	}

	api.expect(api.do(http.MethodGet, "/notifications?userId="+patient.ID, doctor.Token, nil), http.StatusForbidden, nil)
	readPath := "/notifications/" + inbox.Notifications[0].ID + "/read"
	api.expect(api.do(http.MethodPatch, readPath, doctor.Token, nil), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodPatch, readPath, patient.Token, nil), http.StatusOK, nil)
	api.expect(api.do(http.MethodPatch, readPath, patient.Token, nil), http.StatusOK, nil)
	api.expect(api.do(http.MethodGet, "/notifications", patient.Token, nil), http.StatusOK, &inbox)
	if inbox.Unread != 1 {
		t.Errorf("expected 1 unread after marking, got %d", inbox.Unread)
	}
}

func TestMessages(t *testing.T) {
	api := newTestAPI(t)
	patient := api.register("Pat", "p@x.com", "patient")
	doctor := api.register("House", "d@x.com", "doctor")

	api.expect(api.do(http.MethodPost, "/messages", patient.Token, gin.H{
		"receiverId": doctor.ID, "content": "  hello  ",
	}), http.StatusCreated, nil)
	api.expect(api.do(http.MethodPost, "/messages", doctor.Token, gin.H{
		"receiverId": patient.ID, "type": "video-offer",
		"videoData": gin.H{"type": "offer", "sdp": "v=0"},
	}), http.StatusCreated, nil)
	api.expect(api.do(http.MethodPost, "/messages", patient.Token, gin.H{
		"receiverId": doctor.ID, "content": "   ",
	}), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodPost, "/messages", patient.Token, gin.H{
		"receiverId": "ghost", "content": "hi",
	}), http.StatusNotFound, nil)

	var convo []struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	}
	api.expect(api.do(http.MethodGet, "/messages?with="+patient.ID, doctor.Token, nil), http.StatusOK, &convo)
	if len(convo) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(convo))
	}
	if convo[0].Content != "hello" || convo[1].Content != services.DefaultVideoOfferContent || convo[1].Type != "video-offer" {
		t.Errorf("unexpected conversation: %+v", convo)
	}
	api.expect(api.do(http.MethodGet, "/messages", doctor.Token, nil), http.StatusBadRequest, nil)
}

func TestDoctorRoutes(t *testing.T) {
	api := newTestAPI(t)
	patient := api.register("Pat", "p@x.com", "patient")
	doctor := api.register("House", "d@x.com", "doctor")
	admin := api.register("Root", "admin@x.com", "admin")

	profile := "/doctors/" + doctor.ID + "/profile"
	api.expect(api.do(http.MethodPatch, profile, patient.Token, gin.H{"bio": "x"}), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodPatch, profile, doctor.Token, gin.H{"minFee": 50, "maxFee": 40}), http.StatusBadRequest, nil)

	var d struct {
		Speciality string  `json:"speciality"`
		MaxFee     float64 `json:"maxFee"`
		IsApproved bool    `json:"isApproved"`
	}
	api.expect(api.do(http.MethodPatch, profile, doctor.Token, gin.H{"speciality": "Diagnostics", "maxFee": 45}), http.StatusOK, &d)
	if d.Speciality != "Diagnostics" || d.MaxFee != 45 {
		t.Errorf("unexpected profile: %+v", d)
	}

	var list []struct {
		ID string `json:"id"`
	}
	api.expect(api.do(http.MethodGet, "/doctors?approved=true", patient.Token, nil), http.StatusOK, &list)
	if len(list) != 0 {
		t.Errorf("expected no approved doctors, got %d", len(list))
	}

	approve := "/doctors/" + doctor.ID + "/approve"
	api.expect(api.do(http.MethodPatch, approve, patient.Token, nil), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodPatch, approve, admin.Token, nil), http.StatusOK, &d)
	if !d.IsApproved {
		t.Error("expected doctor to be approved")
	}

	api.expect(api.do(http.MethodGet, "/doctors?approved=true", patient.Token, nil), http.StatusOK, &list)
	if len(list) != 1 || list[0].ID != doctor.ID {
		t.Errorf("expected the approved doctor, got %+v", list)
	}
	api.expect(api.do(http.MethodGet, "/doctors?approved=maybe", patient.Token, nil), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodGet, "/doctors/ghost", patient.Token, nil), http.StatusNotFound, nil)
}
