package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pitwall-go/internal/model"

	"github.com/gin-gonic/gin"
)

// fakeScoringService 返回预设的预测结果。
type fakeScoringService struct {
	driverResult *model.Prediction
	raceResults  []model.Prediction
	err          error
	fallback     bool
}

func (f *fakeScoringService) PredictRace(raceID string) ([]model.Prediction, error) {
	return f.raceResults, f.err
}

func (f *fakeScoringService) PredictDriver(raceID, driverID string) (*model.Prediction, error) {
	return f.driverResult, f.err
}

func (f *fakeScoringService) UsingFallback() bool { return f.fallback }

func newPredictRouter(svc *fakeScoringService, audited *[]string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPredictHandler(svc, func(raceID, driverID string, probability float64) {
		if audited != nil {
			*audited = append(*audited, raceID+"/"+driverID)
		}
	})
	r.GET("/predict", h.Predict)
	return r
}

func getPredict(r *gin.Engine, query string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/predict"+query, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestPredictMissingRaceID(t *testing.T) {
	w := getPredict(newPredictRouter(&fakeScoringService{}, nil), "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "缺少 race_id 参数") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestPredictDriverSuccess(t *testing.T) {
	svc := &fakeScoringService{driverResult: &model.Prediction{
		DriverID: "VER", RaceID: "2024_gbr", Probability: 0.92,
	}}
	var audited []string
	w := getPredict(newPredictRouter(svc, &audited), "?race_id=2024_gbr&driver_id=VER")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Message string           `json:"message"`
		Data    model.Prediction `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if body.Message != "success" || body.Data.DriverID != "VER" || body.Data.Probability != 0.92 {
		t.Errorf("body = %+v", body)
	}
	if len(audited) != 1 || audited[0] != "2024_gbr/VER" {
		t.Errorf("审计事件参数错误: %v", audited)
	}
}

func TestPredictDriverNoData(t *testing.T) {
	var audited []string
	w := getPredict(newPredictRouter(&fakeScoringService{}, &audited), "?race_id=2024_gbr&driver_id=VER")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no data") {
		t.Errorf("body = %s", w.Body.String())
	}
	if len(audited) != 0 {
		t.Errorf("无结果时不应发送审计事件: %v", audited)
	}
}

func TestPredictRaceSuccess(t *testing.T) {
	svc := &fakeScoringService{raceResults: []model.Prediction{
		{DriverID: "VER", RaceID: "2024_gbr", Probability: 0.92},
		{DriverID: "NOR", RaceID: "2024_gbr", Probability: 0.88},
	}}
	w := getPredict(newPredictRouter(svc, nil), "?race_id=2024_gbr")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Data []model.Prediction `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if len(body.Data) != 2 || body.Data[0].DriverID != "VER" {
		t.Errorf("body = %+v", body)
	}
}

func TestPredictStorageError(t *testing.T) {
	svc := &fakeScoringService{err: errors.New("连接被拒绝")}
	w := getPredict(newPredictRouter(svc, nil), "?race_id=2024_gbr")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "预测服务异常") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHealthReportsScoringMode(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tc := range []struct {
		fallback bool
		want     string
	}{
		{false, "configured"},
		{true, "fallback"},
	} {
		r := gin.New()
		r.GET("/health", NewHealthHandler(&fakeScoringService{fallback: tc.fallback}).Health)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var body struct {
			Status      string `json:"status"`
			ScoringMode string `json:"scoring_mode"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("响应不是合法 JSON: %v", err)
		}
		if body.Status != "ok" || body.ScoringMode != tc.want {
			t.Errorf("fallback=%v: body = %+v", tc.fallback, body)
		}
	}
}
