package router

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/filereader"
	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/llmtest"
	"github.com/good-jinu/finance-operating-automation-sub000/mailbox"
	"github.com/good-jinu/finance-operating-automation-sub000/records"
	"github.com/good-jinu/finance-operating-automation-sub000/records/memstore"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

type routeSpy struct {
	routes []string
}

func (r *routeSpy) StepFinished(string, string, time.Duration, error) {}

func (r *routeSpy) RouteSelected(graph, step, label string) {
	r.routes = append(r.routes, graph+"."+step+"="+label)
}

func newAgent(p ai.ChatProvider, repo records.Repository, opts ...Option) *Agent {
	if repo == nil {
		repo = memstore.New()
	}
	return New(nodes.Env{Model: p}, repo, opts...)
}

// Scenario A.
func TestGuideProviderPath(t *testing.T) {
	p := llmtest.New().
		JSON("dispatch", map[string]string{"next": "guide_provider"}).
		JSON("guide_topic", map[string]string{"label": "payment_account_change"}).
		JSON("reply_email", map[string]string{"title": "결제 계좌 변경 안내", "body": "첨부한 신청서를 작성해 회신해 주세요."})
	spy := &routeSpy{}
	a := newAgent(p, nil, WithGraphOptions(workflow.WithObserver(spy)))

	reply, err := a.Run(context.Background(), "결제 계좌를 어떻게 바꾸나요?")
	require.NoError(t, err)
	assert.Equal(t, []string{"payment_account_change.docx"}, reply.Attachments)
	assert.Equal(t, "첨부한 신청서를 작성해 회신해 주세요.", reply.MailBody)
	assert.Equal(t, []string{"router.dispatch=guide_provider"}, spy.routes)

	composerPrompt := p.Calls()[len(p.Calls())-1].Messages[1].Content
	assert.Contains(t, composerPrompt, "통장 사본")
}

func TestDataUpdaterPath(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	c := &records.Company{Name: "한국상사"}
	require.NoError(t, store.CreateCompany(ctx, c))
	person := &records.AuthorizedPerson{CompanyID: c.ID, Name: "김철수"}
	require.NoError(t, store.CreatePerson(ctx, person))

	p := llmtest.New().
		JSON("dispatch", map[string]string{"next": "data_updater"}).
		JSON("update_type", map[string]string{"label": "authorized_person"}).
		JSON("authorized_person_update", map[string]any{"company_name": "한국상사", "person_name": "김철수", "phone_number": "010-1234-5678"}).
		Fail("reply_email", errors.New("down"))

	reply := newAgent(p, store).Reply(ctx, "한국상사 김철수 수권자 전화번호를 010-1234-5678로 변경해 주세요")
	assert.Contains(t, reply.MailBody, "성공적으로 변경되었습니다")
	assert.Empty(t, reply.Attachments)
	assert.Equal(t, []memstore.UpdateCall{{Kind: records.KindAuthorizedPerson, ID: person.ID}}, store.Updates())
}

// Scenario B through the full graph.
func TestUnknownCompanyReply(t *testing.T) {
	store := memstore.New()
	p := llmtest.New().
		JSON("dispatch", map[string]string{"next": "data_updater"}).
		JSON("update_type", map[string]string{"label": "authorized_person"}).
		JSON("authorized_person_update", map[string]any{"company_name": "유령상사", "person_name": "김철수", "position": "대표"}).
		Fail("reply_email", errors.New("down"))

	reply := newAgent(p, store).Reply(context.Background(), "유령상사 김철수 직위를 대표로 바꿔주세요")
	assert.Contains(t, reply.MailBody, "유령상사")
	assert.Contains(t, reply.MailBody, "찾을 수 없습니다")
	assert.Empty(t, store.Updates())
}

func TestFileShortCircuit(t *testing.T) {
	p := llmtest.New().
		Text("첨부 문서는 결제 계좌 변경 신청서입니다.").
		JSON("reply_email", map[string]string{"title": "확인", "body": "문서를 확인했습니다."})
	read := func(path string) ([]byte, error) {
		if path == "request.txt" {
			return []byte("계좌 변경 요청"), nil
		}
		return nil, os.ErrNotExist
	}
	spy := &routeSpy{}
	a := newAgent(p, nil,
		WithFileOptions(filereader.WithReadFile(read)),
		WithGraphOptions(workflow.WithObserver(spy)),
	)

	reply, err := a.Run(context.Background(), "첨부 확인 부탁드립니다", "request.txt")
	require.NoError(t, err)
	assert.Equal(t, "문서를 확인했습니다.", reply.MailBody)
	assert.Zero(t, p.CallCount("dispatch"))
	assert.Equal(t, []string{"router.dispatch=file_reader"}, spy.routes)
}

func TestDispatchDefaultsToCreateMail(t *testing.T) {
	tests := []struct {
		name   string
		script func(p *llmtest.Provider)
	}{
		{"unknown worker", func(p *llmtest.Provider) { p.JSON("dispatch", map[string]string{"next": "accounting_bot"}) }},
		{"terminal sentinel", func(p *llmtest.Provider) { p.JSON("dispatch", map[string]string{"next": "FINISH"}) }},
		{"model failure", func(p *llmtest.Provider) { p.Fail("dispatch", errors.New("down")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.New().
				Text("정중히 거절한다.").
				JSON("mail_route", map[string]string{"label": "end"}).
				JSON("reply_email", map[string]string{"title": "안내", "body": "도움을 드리기 어렵습니다."})
			tt.script(p)
			spy := &routeSpy{}

			reply, err := newAgent(p, nil, WithGraphOptions(workflow.WithObserver(spy))).Run(context.Background(), "주식 추천해 주세요")
			require.NoError(t, err)
			assert.Equal(t, "도움을 드리기 어렵습니다.", reply.MailBody)
			assert.Equal(t, "router.dispatch=create_mail", spy.routes[0])
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, RouteGuideProvider, resolve(" Guide_Provider. "))
	assert.Equal(t, RouteDataUpdater, resolve(`"data_updater"`))
	assert.Equal(t, RouteCreateMail, resolve(""))
	assert.Equal(t, RouteCreateMail, resolve("FINISH"))
}

// P1 and P2.
func TestReplyIsTotal(t *testing.T) {
	inputs := []string{"", "결제 계좌를 어떻게 바꾸나요?", "아무 말", "\x00\n\t"}

	t.Run("every model call fails", func(t *testing.T) {
		for _, in := range inputs {
			reply := newAgent(llmtest.New(), nil).Reply(context.Background(), in)
			assert.Equal(t, ApologyBody, reply.MailBody)
			assert.NotNil(t, reply.Attachments)
			assert.Empty(t, reply.Attachments)
		}
	})

	t.Run("panicking model", func(t *testing.T) {
		boom := ai.ChatFunc(func(context.Context, []ai.Message, ...ai.Option) (*ai.Response, error) {
			panic("provider bug")
		})
		reply := newAgent(boom, nil).Reply(context.Background(), "x")
		assert.Equal(t, ApologyBody, reply.MailBody)
		assert.Empty(t, reply.Attachments)
	})

	t.Run("hop limit", func(t *testing.T) {
		p := llmtest.New().
			JSON("dispatch", map[string]string{"next": "guide_provider"}).
			JSON("guide_topic", map[string]string{"label": "payment_account_change"}).
			JSON("reply_email", map[string]string{"title": "t", "body": "b"})
		a := newAgent(p, nil, WithGraphOptions(workflow.WithMaxHops(2)))

		_, err := a.Run(context.Background(), "결제 계좌를 어떻게 바꾸나요?")
		require.ErrorIs(t, err, workflow.ErrHopLimit)
		assert.Equal(t, ApologyBody, a.Reply(context.Background(), "결제 계좌를 어떻게 바꾸나요?").MailBody)
	})

	t.Run("unknown guide topic", func(t *testing.T) {
		p := llmtest.New().
			JSON("dispatch", map[string]string{"next": "guide_provider"}).
			JSON("guide_topic", map[string]string{"label": "unknown"})
		reply := newAgent(p, nil).Reply(context.Background(), "점심 뭐 먹죠")
		assert.Equal(t, ApologyBody, reply.MailBody)
		assert.Zero(t, p.CallCount("reply_email"))
	})
}

func TestDrafterFeedsBatch(t *testing.T) {
	p := llmtest.New().
		JSON("dispatch", map[string]string{"next": "guide_provider"}).
		JSON("guide_topic", map[string]string{"label": "official_seal_change"}).
		JSON("reply_email", map[string]string{"title": "인감 변경 안내", "body": "신고서를 첨부합니다."})
	a := newAgent(p, nil)

	reply, err := a.Drafter().Draft(context.Background(), mailbox.Mail{ID: "m1", Subject: "인감 변경", Body: "인감을 바꾸려면 어떻게 하나요?", Sender: "kim@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "RE: 인감 변경", reply.Subject)
	assert.Equal(t, "신고서를 첨부합니다.", reply.Body)
	assert.Equal(t, []string{"official_seal_change.docx"}, reply.Attachments)

	prompt := p.Calls()[0].Messages[1].Content
	assert.Contains(t, prompt, "제목: 인감 변경")
	assert.Contains(t, prompt, "kim@example.com")

	_, err = newAgent(llmtest.New(), nil).Drafter().Draft(context.Background(), mailbox.Mail{ID: "m2", Body: "x"})
	assert.Error(t, err)
}

func TestDrafterRecoversPanics(t *testing.T) {
	boom := ai.ChatFunc(func(context.Context, []ai.Message, ...ai.Option) (*ai.Response, error) {
		panic("provider bug")
	})
	draft, err := newAgent(boom, nil).Drafter().Draft(context.Background(), mailbox.Mail{ID: "m1", Body: "인감 변경"})
	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "provider bug")
	assert.Nil(t, draft)
}
