package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pitwall-go/pkg/llm"

	"github.com/gin-gonic/gin"
)

// fakeAgentService 返回预设的回答或错误，并记录调用次数。
type fakeAgentService struct {
	answer string
	err    error
	calls  int
}

func (f *fakeAgentService) Ask(ctx context.Context, query string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func (f *fakeAgentService) AskStream(ctx context.Context, query string, writer llm.MessageWriter) (string, error) {
	f.calls++
	return f.answer, f.err
}

func newAskRouter(svc *fakeAgentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ask", NewAgentHandler(svc).Ask)
	return r
}

func postAsk(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAskInvalidBody(t *testing.T) {
	svc := &fakeAgentService{}
	w := postAsk(newAskRouter(svc), `{"query":`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if svc.calls != 0 {
		t.Errorf("非法请求体不应调用服务, calls=%d", svc.calls)
	}
}

func TestAskBlankQuery(t *testing.T) {
	svc := &fakeAgentService{}
	w := postAsk(newAskRouter(svc), `{"query":"   "}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if svc.calls != 0 {
		t.Errorf("空白查询应在进入服务前被拒绝, calls=%d", svc.calls)
	}
	if !strings.Contains(w.Body.String(), "query 不能为空") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAskPlainAnswer(t *testing.T) {
	svc := &fakeAgentService{answer: "维斯塔潘拿积分的概率约为 92%。"}
	w := postAsk(newAskRouter(svc), `{"query":"维斯塔潘在英国站能拿积分吗？"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if body.Message != "success" || body.Data != svc.answer {
		t.Errorf("body = %+v", body)
	}
}

func TestAskStructuredAnswer(t *testing.T) {
	svc := &fakeAgentService{answer: `{"driverId":"VER","probability":0.92}`}
	w := postAsk(newAskRouter(svc), `{"query":"结构化预测"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if body.Data["driverId"] != "VER" {
		t.Errorf("JSON 回答应作为结构化数据返回: %v", body.Data)
	}
}

func TestAskServiceError(t *testing.T) {
	svc := &fakeAgentService{err: errors.New("模型调用失败: 超时")}
	w := postAsk(newAskRouter(svc), `{"query":"英国站预测"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "AI服务暂时不可用") {
		t.Errorf("body = %s", w.Body.String())
	}
}
