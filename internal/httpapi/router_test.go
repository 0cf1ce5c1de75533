package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gopherchat/gopherchat/internal/ai"
	"github.com/gopherchat/gopherchat/internal/chat"
	"github.com/gopherchat/gopherchat/internal/config"
	"github.com/gopherchat/gopherchat/internal/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type stubProvider struct {
	reply string
	err   error
	seen  []ai.Message
}

func (p *stubProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	p.seen = append([]ai.Message(nil), messages...)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func newTestApp(t *testing.T, prov ai.Provider) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &chat.Record{}))

	cfg := config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
	}
	svc := chat.NewService(chat.NewRepo(db), prov, nil, nil)
	return NewRouter(db, cfg, nil, svc, nil), db
}

func postForm(r *gin.Engine, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func postJSON(r *gin.Engine, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func get(r *gin.Engine, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func creds(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

// registerAndLogin creates the user through the API and returns the session
// cookie from a successful login.
func registerAndLogin(t *testing.T, r *gin.Engine, username, password string) *http.Cookie {
	t.Helper()

	rec := postForm(r, "/register", creds(username, password))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = postForm(r, "/login", creds(username, password))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "session_token" && ck.Value != "" {
			return ck
		}
	}
	t.Fatal("no session cookie set on login")
	return nil
}

func TestRegister_EmptyFields(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{})

	for _, form := range []url.Values{
		creds("", ""),
		creds("alice", ""),
		creds("", "pw"),
	} {
		rec := postForm(r, "/register", form)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "required")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	r, db := newTestApp(t, &stubProvider{})

	rec := postForm(r, "/register", creds("alice", "pw1"))
	require.Equal(t, http.StatusFound, rec.Code)

	rec = postForm(r, "/register", creds("alice", "pw2"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already taken")

	var cnt int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "alice").Count(&cnt).Error)
	assert.EqualValues(t, 1, cnt)
}

func TestLogin_UnknownUser(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{})

	rec := postForm(r, "/login", creds("nobody", "pw"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown username")
}

func TestLogin_WrongPassword(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{})

	rec := postForm(r, "/register", creds("alice", "correct"))
	require.Equal(t, http.StatusFound, rec.Code)

	rec = postForm(r, "/login", creds("alice", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	for _, ck := range rec.Result().Cookies() {
		assert.NotEqual(t, "session_token", ck.Name, "no session may be established")
	}
}

func TestLogin_SetsSessionForCorrectUser(t *testing.T) {
	r, db := newTestApp(t, &stubProvider{reply: "hi"})

	ck := registerAndLogin(t, r, "alice", "pw")

	// the session must belong to alice: a chat creates a record under her id
	rec := postJSON(r, "/chat", `{"message":"hello"}`, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	var record chat.Record
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, user.ID, record.UserID)
}

func TestChat_RequiresLogin(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{reply: "hi"})

	rec := postJSON(r, "/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not logged in")
}

func TestChat_EmptyMessage(t *testing.T) {
	r, db := newTestApp(t, &stubProvider{reply: "hi"})
	ck := registerAndLogin(t, r, "alice", "pw")

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `{}`} {
		rec := postJSON(r, "/chat", body, ck)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	var cnt int64
	require.NoError(t, db.Model(&chat.Record{}).Count(&cnt).Error)
	assert.EqualValues(t, 0, cnt)
}

func TestChat_Success(t *testing.T) {
	prov := &stubProvider{reply: " 42 "}
	r, db := newTestApp(t, prov)
	ck := registerAndLogin(t, r, "alice", "pw")

	rec := postJSON(r, "/chat", `{"message":"  meaning of life?  "}`, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reply string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp.Reply)

	require.Len(t, prov.seen, 1)
	assert.Equal(t, "user", prov.seen[0].Role)
	assert.Equal(t, "meaning of life?", prov.seen[0].Content)

	var record chat.Record
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, "meaning of life?", record.Question)
	assert.Equal(t, "42", record.Answer)
}

func TestChat_UpstreamFailure(t *testing.T) {
	prov := &stubProvider{err: &ai.APIError{Status: 502, Message: "model melted"}}
	r, db := newTestApp(t, prov)
	ck := registerAndLogin(t, r, "alice", "pw")

	rec := postJSON(r, "/chat", `{"message":"hello"}`, ck)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "model melted")

	var cnt int64
	require.NoError(t, db.Model(&chat.Record{}).Count(&cnt).Error)
	assert.EqualValues(t, 0, cnt)
}

func TestHistory_RequiresLogin(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{})

	rec := get(r, "/history")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHistory_RoundTrip(t *testing.T) {
	prov := &stubProvider{reply: "first answer"}
	r, _ := newTestApp(t, prov)
	ck := registerAndLogin(t, r, "alice", "pw")

	rec := postJSON(r, "/chat", `{"message":"first question"}`, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	prov.reply = "second answer"
	rec = postJSON(r, "/chat", `{"message":"second question"}`, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(r, "/history?page=1&size=10", ck)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chat.HistoryPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Total)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, 1, resp.CurrentPage)
	assert.Equal(t, 10, resp.PageSize)
	require.Len(t, resp.Records, 2)

	// newest first
	assert.Equal(t, "second question", resp.Records[0].Question)
	assert.Equal(t, "second answer", resp.Records[0].Answer)
	assert.Equal(t, "first question", resp.Records[1].Question)
	assert.Equal(t, "first answer", resp.Records[1].Answer)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, resp.Records[0].CreatedAt)
}

func TestHistory_IsolatedPerUser(t *testing.T) {
	prov := &stubProvider{reply: "ok"}
	r, _ := newTestApp(t, prov)

	ckAlice := registerAndLogin(t, r, "alice", "pw")
	ckBob := registerAndLogin(t, r, "bob", "pw")

	for i := 0; i < 3; i++ {
		rec := postJSON(r, "/chat", fmt.Sprintf(`{"message":"bob %d"}`, i), ckBob)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := postJSON(r, "/chat", `{"message":"alice only"}`, ckAlice)
	require.Equal(t, http.StatusOK, rec.Code)

	hist := get(r, "/history", ckAlice)
	require.Equal(t, http.StatusOK, hist.Code)

	var resp chat.HistoryPage
	require.NoError(t, json.Unmarshal(hist.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Total)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "alice only", resp.Records[0].Question)
}

func TestIndexPage_ReflectsLoginState(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{})

	rec := get(r, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Log in")

	ck := registerAndLogin(t, r, "alice", "pw")
	rec = get(r, "/", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}

func TestLoginPage_RedirectsWhenLoggedIn(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{})
	ck := registerAndLogin(t, r, "alice", "pw")

	rec := get(r, "/login", ck)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogout_ClearsCookie(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{})
	ck := registerAndLogin(t, r, "alice", "pw")

	rec := get(r, "/logout", ck)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must clear the session cookie")
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestApp(t, &stubProvider{})

	rec := get(r, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "route not found")
}
