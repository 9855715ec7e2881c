package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radcool22/meditrack/ai"
	"github.com/radcool22/meditrack/database"
	"github.com/radcool22/meditrack/middleware"
	"github.com/radcool22/meditrack/repositories"
)

type fakeSender struct {
	mu       sync.Mutex
	lastCode string
	fail     bool
}

func (f *fakeSender) SendOTP(phone, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCode = code
	if f.fail {
		return fmt.Errorf("sms gateway unreachable")
	}
	return nil
}

func (f *fakeSender) code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCode
}

type fakeCompleter struct {
	calls  int
	answer string
	err    error
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ai.Message, maxTokens int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type testEnv struct {
	app       *fiber.App
	sender    *fakeSender
	completer *fakeCompleter
	uploadDir string
}

// newTestEnv wires the full route table against an in-memory database,
// a captured SMS sender and a fake completion service.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	logger := zap.NewNop()
	env := &testEnv{
		sender:    &fakeSender{},
		completer: &fakeCompleter{answer: "This report shows normal values."},
		uploadDir: t.TempDir(),
	}

	userRepo := repositories.NewUserRepository(db)
	otpRepo := repositories.NewOtpRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	authHandlers := NewAuthHandlers(userRepo, otpRepo, env.sender, false, logger)
	reportHandlers := NewReportHandlers(reportRepo, env.uploadDir, logger)
	aiHandlers := NewAIHandlers(reportRepo, ai.NewOrchestrator(env.completer), logger)

	app := fiber.New(fiber.Config{BodyLimit: 11 * 1024 * 1024})

	api := app.Group("/api")
	auth := api.Group("/auth")
	auth.Post("/send-otp", authHandlers.SendOTP)
	auth.Post("/verify-otp", authHandlers.VerifyOTP)
	auth.Get("/me", middleware.RequireAuth, authHandlers.Me)
	auth.Post("/logout", middleware.RequireAuth, authHandlers.Logout)

	reports := api.Group("/reports", middleware.RequireAuth)
	reports.Post("/upload", reportHandlers.Upload)
	reports.Get("/", reportHandlers.List)
	reports.Get("/categories", reportHandlers.Categories)
	reports.Get("/:id", reportHandlers.Get)
	reports.Get("/:id/file", reportHandlers.File)
	reports.Get("/:id/text", reportHandlers.Text)
	reports.Delete("/:id", reportHandlers.Delete)

	aiGroup := api.Group("/ai", middleware.RequireAuth)
	aiGroup.Post("/explain", aiHandlers.Explain)
	aiGroup.Post("/chat", aiHandlers.Chat)

	env.app = app
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// postJSON sends a JSON body, attaching the session cookie when non-empty.
func (e *testEnv) postJSON(t *testing.T, path string, payload any, session string) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	attachSession(req, session)
	return e.do(t, req)
}

func (e *testEnv) get(t *testing.T, path, session string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	attachSession(req, session)
	return e.do(t, req)
}

func (e *testEnv) delete(t *testing.T, path, session string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	attachSession(req, session)
	return e.do(t, req)
}

func attachSession(req *http.Request, session string) {
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session})
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

// login runs the full send/verify flow and returns the session token.
func (e *testEnv) login(t *testing.T, phone string) string {
	t.Helper()

	resp := e.postJSON(t, "/api/auth/send-otp", map[string]string{"phone": phone}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.postJSON(t, "/api/auth/verify-otp", map[string]string{"phone": phone, "otp": e.sender.code()}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("verify-otp response did not set a session cookie")
	return ""
}

// upload posts a multipart report and returns the created report id.
func (e *testEnv) upload(t *testing.T, session, title, filename, mimeType string, data []byte, fields map[string]string) (*http.Response, uint) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if title != "" {
		require.NoError(t, w.WriteField("title", title))
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		header.Set("Content-Type", mimeType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reports/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	attachSession(req, session)

	resp := e.do(t, req)
	if resp.StatusCode != http.StatusCreated {
		return resp, 0
	}

	body := decodeBody(t, resp)
	report, ok := body["report"].(map[string]any)
	require.True(t, ok, "upload response missing report")
	id, ok := report["id"].(float64)
	require.True(t, ok, "upload response missing report id")
	return resp, uint(id)
}

// pdfFixture assembles a minimal single-page PDF containing one text run.
func pdfFixture(text string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 6)

	buf.WriteString("%PDF-1.4\n")
	writeObj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>")

	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	offsets[4] = buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream)

	writeObj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xref := buf.Len()
	buf.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)

	return buf.Bytes()
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}
