package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pitwall-go/internal/model"
	"pitwall-go/pkg/log"
)

// Normalizer 是预测工具需要的实体归一化能力（由 service.EntityService 实现）。
type Normalizer interface {
	NormalizeDriver(input string) (string, bool)
	NormalizeRace(input string) (string, bool)
	KnownDriverCodes() []string
	KnownRaceIDs() []string
}

// Scorer 是预测工具需要的评分能力（由 service.ScoringService 实现）。
type Scorer interface {
	PredictRace(raceID string) ([]model.Prediction, error)
	PredictDriver(raceID, driverID string) (*model.Prediction, error)
}

// AuditFunc 在一次成功预测后被调用，用于发送尽力而为的审计事件。
type AuditFunc func(raceID, driverID string, probability float64)

// PredictionTool 实现 get_prediction：先归一化两个入参（已是规范 ID 的原样通过），
// 再调用评分引擎，把结果整理成给模型看的 JSON 摘要。
type PredictionTool struct {
	normalizer Normalizer
	scorer     Scorer
	audit      AuditFunc
}

// NewPredictionTool 创建 get_prediction 工具。audit 允许为 nil。
func NewPredictionTool(normalizer Normalizer, scorer Scorer, audit AuditFunc) *PredictionTool {
	return &PredictionTool{normalizer: normalizer, scorer: scorer, audit: audit}
}

// Schema 返回工具定义。
func (t *PredictionTool) Schema() Schema {
	return Schema{
		Name: "get_prediction",
		Description: "计算车手在某个分站拿到积分（前十完赛）的概率，并给出影响最大的特征解释。" +
			"race_id 支持分站名称或规范 ID（如 2024_gbr），driver_id 支持车手姓名或三字母缩写，" +
			"省略 driver_id 时返回该分站全部车手的概率排名。",
		Properties: map[string]ParameterSpec{
			"race_id":   {Type: "string", Description: "分站名称或规范分站 ID"},
			"driver_id": {Type: "string", Description: "车手姓名或三字母缩写，可省略"},
		},
	}
}

// predictionSummary 是返回给模型的列表摘要项。
type predictionSummary struct {
	DriverID    string        `json:"driver_id"`
	Probability float64       `json:"probability"`
	TopFactor   *model.Factor `json:"top_factor,omitempty"`
}

// Execute 运行预测。归一化未命中与数据缺失以说明文字返回，不作为 error。
func (t *PredictionTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	rawRace, _ := args["race_id"].(string)
	rawDriver, _ := args["driver_id"].(string)

	raceID, ok := t.normalizer.NormalizeRace(rawRace)
	if !ok {
		// 未命中时列出有效分站 ID，方便模型向用户澄清
		return fmt.Sprintf("无法识别分站 %q。有效的分站 ID: %s",
			rawRace, strings.Join(t.normalizer.KnownRaceIDs(), ", ")), nil
	}

	if rawDriver != "" {
		driverID, ok := t.normalizer.NormalizeDriver(rawDriver)
		if !ok {
			return fmt.Sprintf("无法识别车手 %q。有效的车手缩写: %s",
				rawDriver, strings.Join(t.normalizer.KnownDriverCodes(), ", ")), nil
		}

		prediction, err := t.scorer.PredictDriver(raceID, driverID)
		if err != nil {
			return "", err
		}
		if prediction == nil {
			return fmt.Sprintf("分站 %s 暂无车手 %s 的特征数据。", raceID, driverID), nil
		}
		t.emitAudit(raceID, driverID, prediction.Probability)

		out, err := json.Marshal(prediction)
		if err != nil {
			return "", fmt.Errorf("序列化预测结果失败: %w", err)
		}
		return string(out), nil
	}

	predictions, err := t.scorer.PredictRace(raceID)
	if err != nil {
		return "", err
	}
	if len(predictions) == 0 {
		return fmt.Sprintf("分站 %s 暂无特征数据。", raceID), nil
	}
	t.emitAudit(raceID, "", 0)

	// 全场排名只回传前十，避免撑大对话上下文
	if len(predictions) > 10 {
		predictions = predictions[:10]
	}
	summaries := make([]predictionSummary, 0, len(predictions))
	for i := range predictions {
		s := predictionSummary{DriverID: predictions[i].DriverID, Probability: predictions[i].Probability}
		if len(predictions[i].RankedFactors) > 0 {
			s.TopFactor = &predictions[i].RankedFactors[0]
		}
		summaries = append(summaries, s)
	}
	out, err := json.Marshal(map[string]interface{}{"race_id": raceID, "ranking": summaries})
	if err != nil {
		return "", fmt.Errorf("序列化预测结果失败: %w", err)
	}
	return string(out), nil
}

func (t *PredictionTool) emitAudit(raceID, driverID string, probability float64) {
	if t.audit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("[PredictionTool] 审计事件发送失败: %v", r)
		}
	}()
	t.audit(raceID, driverID, probability)
}
