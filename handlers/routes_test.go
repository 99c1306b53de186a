package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"endotrack/services"
	"endotrack/store"
	"endotrack/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db := testutil.NewTestDB(t)
	local := testutil.NewTestStore(t)
	fs := afero.NewMemMapFs()

	data := services.NewReconciler(store.NewGormDocumentStore(db), local, local, fs)
	home := services.NewHomeService(data, services.NewRewardLedger(&store.CacheClaimStore{Cache: local}))
	profiles := services.NewProfileService(data)
	photos := services.NewPhotoService(data, nil, fs, "/photos")
	auth := services.NewAuthService(db, local, "test-secret", time.Hour)

	app := fiber.New()
	SetupAuthRoutes(app, auth, profiles)
	SetupDayRoutes(app, auth, home, services.NewLoadTracker())
	SetupProfileRoutes(app, auth, profiles)
	SetupPhotoRoutes(app, auth, photos)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decoding %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func signUp(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "password1"}
	if status, body := doJSON(t, app, http.MethodPost, "/auth/register", "", creds); status != fiber.StatusCreated {
		t.Fatalf("register: %d %v", status, body)
	}
	status, body := doJSON(t, app, http.MethodPost, "/auth/login", "", creds)
	if status != fiber.StatusOK {
		t.Fatalf("login: %d %v", status, body)
	}
	return body["token"].(string)
}

func TestAuthRoutes(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "ana@example.com")

	status, body := doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
	if status != fiber.StatusOK || body["email"] != "ana@example.com" {
		t.Fatalf("me: %d %v", status, body)
	}

	creds := map[string]string{"email": "ana@example.com", "password": "password1"}
	if status, body := doJSON(t, app, http.MethodPost, "/auth/register", "", creds); status != fiber.StatusConflict {
		t.Errorf("duplicate register: %d %v", status, body)
	}
	bad := map[string]string{"email": "ana@example.com", "password": "wrong-pass"}
	if status, body := doJSON(t, app, http.MethodPost, "/auth/login", "", bad); status != fiber.StatusUnauthorized || body["kind"] != "invalid_credentials" {
		t.Errorf("bad login: %d %v", status, body)
	}
	short := map[string]string{"email": "bob@example.com", "password": "short"}
	if status, _ := doJSON(t, app, http.MethodPost, "/auth/register", "", short); status != fiber.StatusBadRequest {
		t.Errorf("short password: %d", status)
	}

	if status, _ := doJSON(t, app, http.MethodPost, "/auth/logout", token, nil); status != fiber.StatusNoContent {
		t.Fatalf("logout: %d", status)
	}
	if status, _ := doJSON(t, app, http.MethodGet, "/auth/me", token, nil); status != fiber.StatusUnauthorized {
		t.Errorf("me after logout: %d", status)
	}
}

func TestDayRoutesClaimFlow(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "ana@example.com")

	if status, _ := doJSON(t, app, http.MethodGet, "/days/2024-07-10", "", nil); status != fiber.StatusUnauthorized {
		t.Errorf("day without token: %d", status)
	}

	record := map[string]interface{}{
		"meals":    map[string]string{"morning": "oatmeal"},
		"activity": []string{"yoga"},
		"period":   true,
		"symptoms": []string{"cramps"},
		"weight":   80,
	}
	status, view := doJSON(t, app, http.MethodPut, "/days/2024-07-10", token, record)
	if status != fiber.StatusOK {
		t.Fatalf("put day: %d %v", status, view)
	}
	summary := view["summary"].(map[string]interface{})
	if summary["total_percent"] != float64(80) || summary["required_completed"] != float64(3) {
		t.Errorf("summary = %v", summary)
	}
	if special := view["special_task"].(map[string]interface{}); special["completed"] != false {
		t.Errorf("weight from the day body was stored: %v", special)
	}

	status, result := doJSON(t, app, http.MethodPost, "/days/2024-07-10/tasks/2/claim", token, nil)
	if status != fiber.StatusOK || result["granted"] != true || result["endolots"] != float64(1) {
		t.Fatalf("claim: %d %v", status, result)
	}
	status, result = doJSON(t, app, http.MethodPost, "/days/2024-07-10/tasks/2/claim", token, nil)
	if status != fiber.StatusOK || result["granted"] != false || result["endolots"] != float64(1) {
		t.Fatalf("repeat claim: %d %v", status, result)
	}
	status, result = doJSON(t, app, http.MethodGet, "/days/2024-07-10/tasks/2/claim", token, nil)
	if status != fiber.StatusOK || result["can_claim"] != false {
		t.Errorf("can claim: %d %v", status, result)
	}

	if status, _ := doJSON(t, app, http.MethodPost, "/days/2024-07-10/tasks/1/claim", token, nil); status != fiber.StatusConflict {
		t.Errorf("incomplete task claim: %d", status)
	}
	if status, _ := doJSON(t, app, http.MethodPost, "/days/2024-07-10/tasks/9/claim", token, nil); status != fiber.StatusNotFound {
		t.Errorf("unknown task claim: %d", status)
	}

	status, view = doJSON(t, app, http.MethodGet, "/days/2024-07-10", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("get day: %d %v", status, view)
	}
	tasks := view["tasks"].([]interface{})
	if claimed := tasks[1].(map[string]interface{})["claimed"]; claimed != true {
		t.Errorf("meals task claimed = %v", claimed)
	}

	status, list := doJSON(t, app, http.MethodGet, "/days?from=2024-07-01&to=2024-07-31", token, nil)
	if status != fiber.StatusOK || len(list["records"].([]interface{})) != 1 {
		t.Errorf("list days: %d %v", status, list)
	}
}

func TestDayRoutesValidation(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "ana@example.com")

	if status, _ := doJSON(t, app, http.MethodGet, "/days/10-07-2024", token, nil); status != fiber.StatusBadRequest {
		t.Errorf("invalid date: %d", status)
	}
	if status, _ := doJSON(t, app, http.MethodPut, "/days/2024-07-10/weight", token, map[string]float64{"weight": 900}); status != fiber.StatusBadRequest {
		t.Errorf("out of range weight: %d", status)
	}
	if status, _ := doJSON(t, app, http.MethodGet, "/days?from=2024-07-10&to=2024-07-01", token, nil); status != fiber.StatusBadRequest {
		t.Errorf("reversed range: %d", status)
	}

	status, body := doJSON(t, app, http.MethodPut, "/days/2024-07-10/weight", token, map[string]float64{"weight": 61.5})
	if status != fiber.StatusOK || body["weight"] != 61.5 {
		t.Fatalf("weight: %d %v", status, body)
	}
	status, result := doJSON(t, app, http.MethodPost, "/days/2024-07-10/tasks/weight/claim", token, nil)
	if status != fiber.StatusOK || result["granted"] != true {
		t.Errorf("weight claim: %d %v", status, result)
	}
}

func TestProfileRoutes(t *testing.T) {
	app := newTestApp(t)
	token := signUp(t, app, "ana@example.com")

	status, body := doJSON(t, app, http.MethodPatch, "/profile", token, map[string]interface{}{
		"characterName": "Lumi",
		"avatar":        map[string]string{"hair": "curly"},
	})
	if status != fiber.StatusOK {
		t.Fatalf("patch profile: %d %v", status, body)
	}
	character := body["profile"].(map[string]interface{})["character"].(map[string]interface{})
	if character["name"] != "Lumi" || character["endolots"] != float64(0) {
		t.Errorf("character = %v", character)
	}

	status, _ = doJSON(t, app, http.MethodPatch, "/profile", token, map[string]interface{}{
		"avatar": map[string]string{"eyes": "laser"},
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("invalid avatar: %d", status)
	}

	status, body = doJSON(t, app, http.MethodGet, "/profile", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("get profile: %d %v", status, body)
	}
	if styles := body["styles"].(map[string]interface{}); styles["hair"] != "long16" {
		t.Errorf("styles = %v", styles)
	}
}
