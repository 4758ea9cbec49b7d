package nodes

import (
	"fmt"
	"strings"
)

const plannerPrompt = `당신은 금융 백오피스 고객 지원 담당자입니다.
고객 메시지를 읽고 처리 계획을 한국어 한 문장으로 작성하세요.
계획은 반드시 다음 두 가지 중 하나입니다.
1. 고객이 요청한 변경 업무(수권자, 결제 계좌, 인감 변경 등)에 대한 구체적인 변경 안내를 제공한다.
2. 처리할 수 없는 요청이므로 정중하게 도움을 드릴 수 없음을 안내한다.
계획 문장 외의 내용은 출력하지 마세요.`

const analyzerPrompt = `당신은 고객 요청에서 데이터 변경 정보를 추출하는 분석가입니다.
변경 대상: %s
고객 메시지에서 (1) 기존 레코드를 찾기 위한 식별 정보와 (2) 변경할 값을 추출하세요.
메시지에 없는 필드는 생략하고, 값을 추측하지 마세요.`

const composerPrompt = `당신은 금융 백오피스 고객 지원 담당자입니다.
고객 메시지와 처리 결과를 바탕으로 정중한 한국어 답장 이메일의 제목(title)과 본문(body)을 작성하세요.
처리 결과에 담긴 사실만 전달하고, 첨부 파일이 있으면 본문에서 첨부를 안내하세요.`

const (
	fallbackTitle = "문의하신 내용에 대한 안내"

	fallbackBody = `안녕하세요, 고객님.

문의하신 내용에 대해 아래와 같이 안내드립니다.

%s

추가로 궁금하신 사항이 있으시면 언제든지 회신 부탁드립니다.

감사합니다.`
)

// FallbackBody is the templated reply used when composition fails.
func FallbackBody(guidance string) string {
	return fmt.Sprintf(fallbackBody, strings.TrimSpace(guidance))
}

func composerInput(inbound, guidance string, attachments []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[고객 메시지]\n%s\n\n[처리 결과]\n%s\n", inbound, guidance)
	if len(attachments) > 0 {
		fmt.Fprintf(&b, "\n[첨부 파일]\n%s\n", strings.Join(attachments, "\n"))
	}
	return b.String()
}
