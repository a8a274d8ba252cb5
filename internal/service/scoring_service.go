// Package service 包含了应用的业务逻辑层。
package service

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"pitwall-go/internal/model"
	"pitwall-go/internal/repository"
	"pitwall-go/pkg/log"
)

// ScoringService 计算指定车手在指定分站拿到积分的校准概率，
// 并给出按贡献绝对值排序的特征解释。
// 相同输入必然产生相同输出：此路径没有任何随机性。
type ScoringService interface {
	// PredictRace 返回某分站全部车手的预测，按概率降序。
	// 分站没有特征数据时返回空切片（软失败），error 只表示存储层故障。
	PredictRace(raceID string) ([]model.Prediction, error)
	// PredictDriver 返回单个车手的预测，没有对应特征行时返回 (nil, nil)。
	PredictDriver(raceID, driverID string) (*model.Prediction, error)
	// UsingFallback 报告引擎当前是否在使用内置回退系数（健康信号）。
	UsingFallback() bool
}

type scoringService struct {
	featureRepo  repository.FeatureRepository
	modelVersion string
	fallback     atomic.Bool
}

// NewScoringService 创建一个新的 ScoringService 实例。
func NewScoringService(featureRepo repository.FeatureRepository, modelVersion string) ScoringService {
	return &scoringService{featureRepo: featureRepo, modelVersion: modelVersion}
}

// defaultCoefficients 是存储中没有配置系数集时的内置回退。
// 引擎降级运行而不是直接失败，回退事件记入日志并反映在健康接口上。
var defaultCoefficients = []model.Coefficient{
	{FeatureName: model.FeatureQualifyingPosition, Weight: -0.15},
	{FeatureName: model.FeatureLongRunPaceDelta, Weight: -1.2},
	{FeatureName: model.FeatureConstructorForm, Weight: 0.9},
	{FeatureName: model.FeatureDriverForm, Weight: 0.7},
	{FeatureName: model.FeatureCircuitEffect, Weight: 0.5},
	{FeatureName: model.FeatureWeatherRisk, Weight: -0.4},
}

// Sigmoid 标准 logistic 函数，把线性得分映射到 (0,1) 概率。
// 特征取值下得分不超过 ±20 量级，数值上安全。
func Sigmoid(score float64) float64 {
	return 1.0 / (1.0 + math.Exp(-score))
}

func (s *scoringService) loadCoefficients() []model.Coefficient {
	coeffs, err := s.featureRepo.FindCoefficients(s.modelVersion)
	if err != nil {
		log.Errorf("[ScoringService] 读取系数集失败，回退到内置系数: version=%s, err=%v", s.modelVersion, err)
		s.fallback.Store(true)
		return defaultCoefficients
	}
	if len(coeffs) == 0 {
		log.Warnf("[ScoringService] 模型版本 '%s' 没有配置系数，降级使用内置系数", s.modelVersion)
		s.fallback.Store(true)
		return defaultCoefficients
	}
	s.fallback.Store(false)
	return coeffs
}

// score 对一行特征做线性打分：raw = Σ(weight × feature)。
// 名称对不上任何已知特征的系数贡献为零（兼容引用未来特征的系数集）。
func score(row *model.FeatureRow, coeffs []model.Coefficient) model.Prediction {
	var raw float64
	factors := make([]model.Factor, 0, len(coeffs))
	for _, c := range coeffs {
		value, ok := row.FeatureValue(c.FeatureName)
		if !ok {
			continue
		}
		contribution := c.Weight * value
		raw += contribution
		factors = append(factors, model.Factor{FeatureName: c.FeatureName, Contribution: contribution})
	}

	// 贡献绝对值降序，同值时按名称保证确定性
	sort.Slice(factors, func(i, j int) bool {
		ai, aj := math.Abs(factors[i].Contribution), math.Abs(factors[j].Contribution)
		if ai != aj {
			return ai > aj
		}
		return factors[i].FeatureName < factors[j].FeatureName
	})
	if len(factors) > 5 {
		factors = factors[:5]
	}

	return model.Prediction{
		DriverID:      row.DriverID,
		RaceID:        row.RaceID,
		Probability:   Sigmoid(raw),
		RawScore:      raw,
		RankedFactors: factors,
	}
}

func (s *scoringService) PredictRace(raceID string) ([]model.Prediction, error) {
	rows, err := s.featureRepo.FindByRace(raceID)
	if err != nil {
		return nil, fmt.Errorf("读取分站特征失败: %w", err)
	}
	if len(rows) == 0 {
		return []model.Prediction{}, nil
	}

	coeffs := s.loadCoefficients()
	predictions := make([]model.Prediction, 0, len(rows))
	for i := range rows {
		predictions = append(predictions, score(&rows[i], coeffs))
	}

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].Probability != predictions[j].Probability {
			return predictions[i].Probability > predictions[j].Probability
		}
		return predictions[i].DriverID < predictions[j].DriverID
	})
	return predictions, nil
}

func (s *scoringService) PredictDriver(raceID, driverID string) (*model.Prediction, error) {
	row, err := s.featureRepo.FindByRaceAndDriver(raceID, driverID)
	if err != nil {
		return nil, fmt.Errorf("读取车手特征失败: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	prediction := score(row, s.loadCoefficients())
	return &prediction, nil
}

func (s *scoringService) UsingFallback() bool {
	return s.fallback.Load()
}
