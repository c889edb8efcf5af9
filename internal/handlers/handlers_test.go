package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/enrollment"
	"github.com/shrimpsizemoose/kardemumma/internal/grading"
	"github.com/shrimpsizemoose/kardemumma/internal/store/file"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	mux *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &app.Config{}
	cfg.Server.Port = ":0"
	cfg.API.ActorHeader = "X-Member-Id"
	cfg.API.RequiredHeaders = []app.HeaderConfig{{Name: "X-Client", Value: "test-suite"}}
	cfg.Scheduling.WithdrawLeadTimeMinutes = 120

	docStore, err := file.NewFileStore(filepath.Join(t.TempDir(), "document.json"))
	require.NoError(t, err)
	t.Cleanup(func() { docStore.Close() })

	auth, err := app.NewAuth(cfg)
	require.NoError(t, err)

	service := &app.Service{
		Config: cfg,
		Store:  docStore,
		Auth:   auth,
		Ledger: &enrollment.Ledger{WithdrawLeadTime: cfg.WithdrawLeadTime()},
		Grader: &grading.Engine{Limits: grading.DefaultLimits()},
	}

	h := New(service)
	h.now = func() time.Time { return testNow }

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/courses", h.HandleCreateCourse)
	mux.HandleFunc("GET /api/v1/courses", h.HandleListCourses)
	mux.HandleFunc("DELETE /api/v1/courses", h.HandleDeleteCourse)
	mux.HandleFunc("POST /api/v1/courses/members", h.HandleAddMembers)
	mux.HandleFunc("GET /api/v1/courses/members", h.HandleListMembers)
	mux.HandleFunc("POST /api/v1/sheets", h.HandleCreateSheet)
	mux.HandleFunc("GET /api/v1/sheets", h.HandleListSheets)
	mux.HandleFunc("POST /api/v1/sheets/{id}/slots", h.HandleCreateSlots)
	mux.HandleFunc("GET /api/v1/sheets/{id}/slots", h.HandleListSlots)
	mux.HandleFunc("PATCH /api/v1/slots/{slotId}", h.HandleUpdateSlot)
	mux.HandleFunc("DELETE /api/v1/courses/members", h.HandleDeleteMembers)
	mux.HandleFunc("POST /api/v1/signups", h.HandleSignUp)
	mux.HandleFunc("DELETE /api/v1/signups", h.HandleWithdraw)
	mux.HandleFunc("POST /api/v1/grades", h.HandleGrade)
	mux.HandleFunc("POST /api/v1/grades/update", h.HandleGradeUpdate)
	mux.HandleFunc("GET /api/v1/current", h.HandleActiveSlot)

	return &testServer{mux: mux}
}

func (ts *testServer) do(t *testing.T, method, target, body string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-Client", "test-suite")
	req.Header.Set("X-Member-Id", "GRADER01")

	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec.Code, payload
}

// seedSheet creates a course with two members, a sheet and three half-hour
// slots of capacity 1 starting an hour past testNow. Returns sheet and slot ids.
func seedSheet(t *testing.T, ts *testServer) (string, []string) {
	t.Helper()

	code, _ := ts.do(t, "POST", "/api/v1/courses", `{"term":1,"section":1,"course":"Databases"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := ts.do(t, "POST", "/api/v1/courses/members",
		`{"term":1,"section":1,"list":[{"id":"AAAA1111","first":"Anna","last":"Larsson","role":"student"},{"id":"BBBB2222","first":"Bjorn","last":"Nilsson","role":"student"}]}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(2), body["addedCount"])

	code, body = ts.do(t, "POST", "/api/v1/sheets", `{"term":1,"section":1,"assignment":"HW1"}`)
	require.Equal(t, http.StatusOK, code)
	sheetID := body["id"].(string)

	start := testNow.Add(time.Hour).UnixMilli()
	code, body = ts.do(t, "POST", "/api/v1/sheets/"+sheetID+"/slots",
		fmt.Sprintf(`{"start":%d,"duration":30,"numSlots":3,"maxMembers":1}`, start))
	require.Equal(t, http.StatusOK, code)

	raw := body["created"].([]interface{})
	slots := make([]string, 0, len(raw))
	for _, v := range raw {
		slots = append(slots, v.(string))
	}
	require.Len(t, slots, 3)
	return sheetID, slots
}

func TestRequiredHeaders(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/courses", nil)
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "droids")
}

func TestCourseEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, "POST", "/api/v1/courses", `{"term":1,"course":"Databases"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])

	t.Run("section defaulted to 1", func(t *testing.T) {
		code, body := ts.do(t, "GET", "/api/v1/courses", "")
		require.Equal(t, http.StatusOK, code)
		courses := body["courses"].([]interface{})
		require.Len(t, courses, 1)
		assert.Equal(t, float64(1), courses[0].(map[string]interface{})["section"])
	})

	t.Run("empty course name rejected", func(t *testing.T) {
		code, body := ts.do(t, "POST", "/api/v1/courses", `{"term":2,"course":"<b></b>"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, false, body["ok"])
	})

	t.Run("role filter", func(t *testing.T) {
		code, _ := ts.do(t, "POST", "/api/v1/courses/members",
			`{"term":1,"list":"AAAA1111, Anna, Larsson, student\nBBBB2222, Bjorn, Nilsson, grader"}`)
		require.Equal(t, http.StatusOK, code)

		code, body := ts.do(t, "GET", "/api/v1/courses/members?term=1&role=grader", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(1), body["count"])
	})
}

func TestSectionQueryParam(t *testing.T) {
	ts := newTestServer(t)
	seedSheet(t, ts)

	t.Run("out of range section never falls back to 1", func(t *testing.T) {
		code, body := ts.do(t, "DELETE", "/api/v1/courses?term=1&section=100", "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid term/section.", body["error"])

		code, body = ts.do(t, "GET", "/api/v1/courses", "")
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, body["courses"].([]interface{}), 1, "course (1,1) untouched")
	})

	t.Run("member delete with bad section", func(t *testing.T) {
		code, body := ts.do(t, "DELETE", "/api/v1/courses/members?term=1&section=100&memberIds=AAAA1111", "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid parameters.", body["error"])

		code, body = ts.do(t, "GET", "/api/v1/courses/members?term=1", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(2), body["count"], "roster of (1,1) untouched")
	})

	t.Run("listings reject it too", func(t *testing.T) {
		code, body := ts.do(t, "GET", "/api/v1/courses/members?term=1&section=0", "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid term/section.", body["error"])

		code, body = ts.do(t, "GET", "/api/v1/sheets?term=1&section=100", "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid term/section.", body["error"])
	})

	t.Run("absent section still means 1", func(t *testing.T) {
		code, body := ts.do(t, "GET", "/api/v1/sheets?term=1", "")
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, body["sheets"].([]interface{}), 1)
	})
}

func TestUpdateSlotValidation(t *testing.T) {
	ts := newTestServer(t)
	_, slots := seedSheet(t, ts)

	for _, payload := range []string{
		`{"duration":999}`,
		`{"duration":0}`,
		`{"capacity":500}`,
		`{"capacity":0}`,
	} {
		code, body := ts.do(t, "PATCH", "/api/v1/slots/"+slots[0], payload)
		assert.Equal(t, http.StatusBadRequest, code, payload)
		assert.Equal(t, "Invalid slot parameters.", body["error"], payload)
	}

	code, body := ts.do(t, "PATCH", "/api/v1/slots/"+slots[0], `{"capacity":5}`)
	require.Equal(t, http.StatusOK, code)
	slot := body["slot"].(map[string]interface{})
	assert.Equal(t, float64(5), slot["capacity"])
}

func TestSignupFlow(t *testing.T) {
	ts := newTestServer(t)
	sheetID, slots := seedSheet(t, ts)

	signup := func(slotID, memberID string) (int, map[string]interface{}) {
		return ts.do(t, "POST", "/api/v1/signups",
			fmt.Sprintf(`{"sheetId":%q,"slotId":%q,"memberId":%q}`, sheetID, slotID, memberID))
	}

	code, _ := signup(slots[0], "aaaa1111")
	require.Equal(t, http.StatusOK, code, "member id normalization happens at the boundary")

	t.Run("slot full", func(t *testing.T) {
		code, body := signup(slots[0], "BBBB2222")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Slot is full.", body["error"])
	})

	t.Run("second seat on the same sheet refused", func(t *testing.T) {
		code, body := signup(slots[1], "AAAA1111")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Member already signed up.", body["error"])
	})

	t.Run("withdraw blocked inside the lead window", func(t *testing.T) {
		// seeded slots start one hour out, inside the 2h window
		code, body := ts.do(t, "DELETE",
			"/api/v1/signups?sheetId="+sheetID+"&memberId=AAAA1111", "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Cannot leave. Slot starts in less than 2 hours.", body["error"])
	})

	t.Run("unknown sheet is a 404", func(t *testing.T) {
		code, body := ts.do(t, "POST", "/api/v1/signups",
			`{"sheetId":"nope","slotId":"x","memberId":"AAAA1111"}`)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "Sheet not found.", body["error"])
	})
}

func TestGradeEndpoints(t *testing.T) {
	ts := newTestServer(t)
	sheetID, slots := seedSheet(t, ts)

	code, _ := ts.do(t, "POST", "/api/v1/signups",
		fmt.Sprintf(`{"sheetId":%q,"slotId":%q,"memberId":"AAAA1111"}`, sheetID, slots[0]))
	require.Equal(t, http.StatusOK, code)

	t.Run("unified update writes the audit trail", func(t *testing.T) {
		code, body := ts.do(t, "POST", "/api/v1/grades/update",
			fmt.Sprintf(`{"sheetId":%q,"memberId":"AAAA1111","grade":80,"bonus":5,"comment":"solid"}`, sheetID))
		require.Equal(t, http.StatusOK, code)

		assert.Equal(t, float64(85), body["finalGrade"])
		assert.Equal(t, "solid", body["comment"])

		audit := body["audit"].(map[string]interface{})
		assert.Equal(t, "GRADER01", audit["changedBy"], "actor comes from the actor header")
		assert.Equal(t, float64(80), audit["newGrade"])
	})

	t.Run("material change without comment", func(t *testing.T) {
		code, body := ts.do(t, "POST", "/api/v1/grades/update",
			fmt.Sprintf(`{"sheetId":%q,"memberId":"AAAA1111","grade":90}`, sheetID))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "A comment is required when modifying a grade.", body["error"])
	})

	t.Run("legacy endpoint clamps and answers without audit", func(t *testing.T) {
		code, body := ts.do(t, "POST", "/api/v1/grades",
			fmt.Sprintf(`{"sheetId":%q,"memberId":"AAAA1111","grade":70,"bonus":200,"comment":"migrated"}`, sheetID))
		require.Equal(t, http.StatusOK, code)

		assert.Equal(t, float64(50), body["bonus"])
		assert.Equal(t, float64(120), body["finalGrade"])
		_, hasAudit := body["audit"]
		assert.False(t, hasAudit)
	})

	t.Run("grading an empty seat", func(t *testing.T) {
		code, body := ts.do(t, "POST", "/api/v1/grades/update",
			fmt.Sprintf(`{"sheetId":%q,"memberId":"BBBB2222","grade":80,"comment":"x"}`, sheetID))
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "Member not signed up.", body["error"])
	})
}

func TestActiveSlotEndpoint(t *testing.T) {
	ts := newTestServer(t)
	sheetID, slots := seedSheet(t, ts)

	code, _ := ts.do(t, "POST", "/api/v1/signups",
		fmt.Sprintf(`{"sheetId":%q,"slotId":%q,"memberId":"AAAA1111"}`, sheetID, slots[1]))
	require.Equal(t, http.StatusOK, code)

	t.Run("no slot running at testNow", func(t *testing.T) {
		code, body := ts.do(t, "GET", "/api/v1/current", "")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "No active slot at this time.", body["error"])
	})
}

func TestSlotListing(t *testing.T) {
	ts := newTestServer(t)
	sheetID, _ := seedSheet(t, ts)

	code, body := ts.do(t, "GET", "/api/v1/sheets/"+sheetID+"/slots", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["slots"].([]interface{}), 3)

	code, body = ts.do(t, "GET", "/api/v1/sheets/missing/slots", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Sheet not found.", body["error"])
}
