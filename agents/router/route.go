package router

import "strings"

// Route selects the sub-agent that handles a request.
type Route string

const (
	RouteFileReader    Route = "file_reader"
	RouteGuideProvider Route = "guide_provider"
	RouteDataUpdater   Route = "data_updater"
	RouteCreateMail    Route = "create_mail"
)

// Routes returns every route in dispatch order.
func Routes() []Route {
	return []Route{RouteFileReader, RouteGuideProvider, RouteDataUpdater, RouteCreateMail}
}

// terminal is the sentinel the dispatcher may answer with. It resolves to
// RouteCreateMail like any other unmatched name.
const terminal = "FINISH"

// resolve maps the model's free-form answer onto a configured route,
// defaulting to RouteCreateMail.
func resolve(answer string) Route {
	answer = strings.ToLower(strings.Trim(strings.TrimSpace(answer), `"'.`))
	for _, r := range Routes() {
		if answer == string(r) {
			return r
		}
	}
	return RouteCreateMail
}

var descriptions = map[Route]string{
	RouteFileReader:    "첨부 파일의 내용을 읽고 요약합니다.",
	RouteGuideProvider: "수권자, 결제 계좌, 인감 변경 절차를 묻는 경우 안내문과 신청서를 제공합니다.",
	RouteDataUpdater:   "고객이 구체적인 변경 값(새 이메일, 새 계좌번호 등)을 제시하며 등록 정보 변경을 요청하는 경우 데이터를 변경합니다.",
	RouteCreateMail:    "그 밖의 일반 문의에 대한 답장을 작성합니다.",
}
