package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/router"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/config"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/llmtest"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/metrics"
	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
)

func newTestApp(t *testing.T, p ai.ChatProvider, configure ...func(*config.Config)) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "finops.db")
	cfg.Agent.AttachmentsDir = t.TempDir()
	for _, fn := range configure {
		fn(&cfg)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := openStore(context.Background(), cfg, logger)
	require.NoError(t, err)
	a := newApp(cfg, logger, p, store, metrics.New())
	t.Cleanup(func() { a.Close() })
	return a
}

func guideScript() *llmtest.Provider {
	return llmtest.New().
		JSON("dispatch", map[string]string{"next": "guide_provider"}).
		JSON("guide_topic", map[string]string{"label": "official_seal_change"}).
		JSON("reply_email", map[string]string{"title": "인감 변경 안내", "body": "첨부 서류를 확인해 주세요."})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReplyEndpoint(t *testing.T) {
	h := newServer(newTestApp(t, guideScript())).routes()

	rec := do(t, h, http.MethodPost, "/api/agent/reply", `{"subject":"인감 변경","body":"인감을 바꾸려면 어떻게 하나요?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply router.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "첨부 서류를 확인해 주세요.", reply.MailBody)
	assert.Equal(t, []string{"official_seal_change.docx"}, reply.Attachments)
}

func TestReplyEndpointApology(t *testing.T) {
	h := newServer(newTestApp(t, llmtest.New().Fail("", assert.AnError).Fail("dispatch", assert.AnError))).routes()

	rec := do(t, h, http.MethodPost, "/api/agent/reply", `{"body":"안녕하세요"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "죄송합니다")
	assert.Contains(t, rec.Body.String(), `"attachments":[]`)
}

func TestReplyEndpointRejectsBadInput(t *testing.T) {
	h := newServer(newTestApp(t, llmtest.New())).routes()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/agent/reply", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/agent/reply", `{"body":"  "}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/agent/reply", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, h, http.MethodPost, "/api/agent/reply", `{"body":"첨부 확인","filepaths":["/etc/hosts"]}`).Code)
}

func TestReplyEndpointConfinesFilepaths(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "docs")
	require.NoError(t, os.MkdirAll(root, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("API_KEY=sk-123"), 0o600))

	p := llmtest.New()
	h := newServer(newTestApp(t, p, func(c *config.Config) { c.Agent.DocumentsRoot = root })).routes()

	rec := do(t, h, http.MethodPost, "/api/agent/reply", `{"body":"첨부 확인","filepaths":["../secret.txt"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-123")
	for _, call := range p.Calls() {
		for _, m := range call.Messages {
			assert.NotContains(t, m.Content, "sk-123")
		}
	}
}

func TestChatEndpoint(t *testing.T) {
	h := newServer(newTestApp(t, llmtest.New().Text("등록된 메일이 없습니다."))).routes()

	rec := do(t, h, http.MethodPost, "/api/chat", `{"message":"최근 메일 보여줘"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var answer struct {
		Session string `json:"session_id"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.NotEmpty(t, answer.Session)
	assert.Equal(t, "등록된 메일이 없습니다.", answer.Content)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/chat", `{"message":""}`).Code)
}

func TestChatEndpointProviderFailures(t *testing.T) {
	busy := llmtest.New().Fail("", ai.NewStatusError("rate limited", 429, 2*time.Second, nil))
	rec := do(t, newServer(newTestApp(t, busy)).routes(), http.MethodPost, "/api/chat", `{"message":"최근 메일"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	denied := llmtest.New().Fail("", ai.NewStatusError("bad key", 401, 0, nil))
	rec = do(t, newServer(newTestApp(t, denied)).routes(), http.MethodPost, "/api/chat", `{"message":"최근 메일"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestBatchEndpoints(t *testing.T) {
	a := newTestApp(t, guideScript())
	h := newServer(a).routes()
	mail := &mailbox.Mail{ID: "m1", Sender: "cs@example.com", Subject: "인감 변경", Body: "절차를 알려주세요", Unread: true}
	require.NoError(t, a.store.InsertMail(context.Background(), mail))

	rec := do(t, h, http.MethodPost, "/api/replies/generate", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return !a.batch.Progress().Running
	}, 5*time.Second, 10*time.Millisecond)

	rec = do(t, h, http.MethodGet, "/api/replies/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var progress mailbox.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.SuccessCount)
	assert.False(t, progress.Running)

	rec = do(t, h, http.MethodGet, "/api/mails/m1/replies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var replies []mailbox.ReplyMail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replies))
	require.Len(t, replies, 1)
	assert.Equal(t, "RE: 인감 변경", replies[0].Subject)

	rec = do(t, h, http.MethodDelete, "/api/replies/generate", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDrainBatchWaitsForLoop(t *testing.T) {
	a := newTestApp(t, guideScript())
	s := newServer(a)
	batchCtx, cancelBatch := context.WithCancel(context.Background())
	defer cancelBatch()
	s.batchCtx = batchCtx
	mail := &mailbox.Mail{ID: "m1", Sender: "cs@example.com", Subject: "인감 변경", Body: "절차를 알려주세요", Unread: true}
	require.NoError(t, a.store.InsertMail(context.Background(), mail))

	require.Equal(t, http.StatusAccepted, do(t, s.routes(), http.MethodPost, "/api/replies/generate", "").Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.drainBatch(ctx, cancelBatch)

	progress := a.batch.Progress()
	assert.False(t, progress.Running)
	assert.Equal(t, 1, progress.ProcessedEmails)
	assert.False(t, progress.FinishedAt.IsZero())
	assert.NoError(t, batchCtx.Err())
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t, guideScript())
	h := newServer(a).routes()
	do(t, h, http.MethodPost, "/api/agent/reply", `{"body":"인감 변경 절차"}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `finops_routes_total{graph="router",label="guide_provider",node="dispatch"} 1`)
	assert.Contains(t, rec.Body.String(), "finops_node_runs_total")
}

func TestHealthAndCORS(t *testing.T) {
	h := newServer(newTestApp(t, llmtest.New())).routes()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodOptions, "/api/chat", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReplyFlags(t *testing.T) {
	cmd := &ReplyCmd{}
	parser := flags.NewParser(cmd, flags.HelpFlag|flags.PassDoubleDash)

	_, err := parser.ParseArgs([]string{"-s", "문의", "-b", "본문", "-f", "a.pdf", "-f", "b.docx"})
	require.NoError(t, err)
	assert.Equal(t, "문의", cmd.Subject)
	assert.Equal(t, "본문", cmd.Body)
	assert.Equal(t, []string{"a.pdf", "b.docx"}, cmd.Files)
}

func TestServeFlags(t *testing.T) {
	cmd := &ServeCmd{}
	parser := flags.NewParser(cmd, flags.HelpFlag|flags.PassDoubleDash)

	_, err := parser.ParseArgs([]string{"--addr", ":9090"})
	require.NoError(t, err)
	assert.Equal(t, ":9090", cmd.Addr)
}

func TestWriteReply(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReply(&buf, router.Reply{MailBody: "<안내>", Attachments: []string{}}))
	assert.Contains(t, buf.String(), `"mail_body": "<안내>"`)
}
