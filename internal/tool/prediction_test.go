package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"pitwall-go/internal/model"
)

type fakeNormalizer struct{}

func (fakeNormalizer) NormalizeDriver(input string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "VER", "VERSTAPPEN":
		return "VER", true
	}
	return "", false
}

func (fakeNormalizer) NormalizeRace(input string) (string, bool) {
	switch strings.TrimSpace(input) {
	case "2024_gbr", "British GP":
		return "2024_gbr", true
	}
	return "", false
}

func (fakeNormalizer) KnownDriverCodes() []string { return []string{"NOR", "VER"} }
func (fakeNormalizer) KnownRaceIDs() []string     { return []string{"2024_bhr", "2024_gbr"} }

type fakeScorer struct {
	driverResult *model.Prediction
	raceResults  []model.Prediction
	err          error
}

func (f *fakeScorer) PredictRace(raceID string) ([]model.Prediction, error) {
	return f.raceResults, f.err
}

func (f *fakeScorer) PredictDriver(raceID, driverID string) (*model.Prediction, error) {
	return f.driverResult, f.err
}

func TestPredictionToolRaceMissListsOptions(t *testing.T) {
	pt := NewPredictionTool(fakeNormalizer{}, &fakeScorer{}, nil)

	out, err := pt.Execute(context.Background(), map[string]interface{}{"race_id": "2024 GP"})
	if err != nil {
		t.Fatalf("归一化未命中不应返回 error: %v", err)
	}
	if !strings.Contains(out, "无法识别分站") || !strings.Contains(out, "2024_bhr, 2024_gbr") {
		t.Errorf("未命中提示应列出有效分站 ID: %q", out)
	}
}

func TestPredictionToolDriverMissListsOptions(t *testing.T) {
	pt := NewPredictionTool(fakeNormalizer{}, &fakeScorer{}, nil)

	out, err := pt.Execute(context.Background(), map[string]interface{}{
		"race_id":   "2024_gbr",
		"driver_id": "Schumacher",
	})
	if err != nil {
		t.Fatalf("归一化未命中不应返回 error: %v", err)
	}
	if !strings.Contains(out, "无法识别车手") || !strings.Contains(out, "NOR, VER") {
		t.Errorf("未命中提示应列出有效车手缩写: %q", out)
	}
}

func TestPredictionToolDriverHit(t *testing.T) {
	scorer := &fakeScorer{driverResult: &model.Prediction{
		DriverID:    "VER",
		RaceID:      "2024_gbr",
		Probability: 0.92,
		RawScore:    2.44,
		RankedFactors: []model.Factor{
			{FeatureName: model.FeatureLongRunPaceDelta, Contribution: 0.96},
		},
	}}
	var auditRace, auditDriver string
	audit := func(raceID, driverID string, probability float64) {
		auditRace, auditDriver = raceID, driverID
	}
	pt := NewPredictionTool(fakeNormalizer{}, scorer, audit)

	out, err := pt.Execute(context.Background(), map[string]interface{}{
		"race_id":   "British GP",
		"driver_id": "Verstappen",
	})
	if err != nil {
		t.Fatalf("Execute 失败: %v", err)
	}

	var got model.Prediction
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("结果不是合法 JSON: %v\n%s", err, out)
	}
	if got.DriverID != "VER" || got.Probability != 0.92 {
		t.Errorf("结果内容错误: %+v", got)
	}
	if auditRace != "2024_gbr" || auditDriver != "VER" {
		t.Errorf("审计事件参数错误: race=%q driver=%q", auditRace, auditDriver)
	}
}

func TestPredictionToolNoFeatureData(t *testing.T) {
	pt := NewPredictionTool(fakeNormalizer{}, &fakeScorer{}, nil)

	out, err := pt.Execute(context.Background(), map[string]interface{}{
		"race_id":   "2024_gbr",
		"driver_id": "VER",
	})
	if err != nil {
		t.Fatalf("数据缺失不应返回 error: %v", err)
	}
	if !strings.Contains(out, "暂无") {
		t.Errorf("数据缺失应返回说明文字: %q", out)
	}
}

func TestPredictionToolRaceRankingCapped(t *testing.T) {
	var results []model.Prediction
	for i := 0; i < 14; i++ {
		results = append(results, model.Prediction{
			DriverID:    fmt.Sprintf("D%02d", i),
			RaceID:      "2024_gbr",
			Probability: 1.0 - float64(i)*0.05,
		})
	}
	pt := NewPredictionTool(fakeNormalizer{}, &fakeScorer{raceResults: results}, nil)

	out, err := pt.Execute(context.Background(), map[string]interface{}{"race_id": "2024_gbr"})
	if err != nil {
		t.Fatalf("Execute 失败: %v", err)
	}

	var payload struct {
		RaceID  string `json:"race_id"`
		Ranking []struct {
			DriverID    string  `json:"driver_id"`
			Probability float64 `json:"probability"`
		} `json:"ranking"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("结果不是合法 JSON: %v\n%s", err, out)
	}
	if payload.RaceID != "2024_gbr" {
		t.Errorf("race_id = %q", payload.RaceID)
	}
	if len(payload.Ranking) != 10 {
		t.Errorf("排名应截断到 10 条, got %d", len(payload.Ranking))
	}
	if payload.Ranking[0].DriverID != "D00" {
		t.Errorf("排名顺序应保持评分引擎给出的顺序, got %q", payload.Ranking[0].DriverID)
	}
}

func TestPredictionToolAuditPanicRecovered(t *testing.T) {
	scorer := &fakeScorer{driverResult: &model.Prediction{DriverID: "VER", RaceID: "2024_gbr", Probability: 0.5}}
	audit := func(raceID, driverID string, probability float64) {
		panic("kafka writer closed")
	}
	pt := NewPredictionTool(fakeNormalizer{}, scorer, audit)

	out, err := pt.Execute(context.Background(), map[string]interface{}{
		"race_id":   "2024_gbr",
		"driver_id": "VER",
	})
	if err != nil {
		t.Fatalf("审计失败不应影响预测结果: %v", err)
	}
	if !strings.Contains(out, `"driverId":"VER"`) {
		t.Errorf("预测结果应正常返回: %q", out)
	}
}
