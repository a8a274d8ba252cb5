// Package model 包含了应用的数据模型定义。
package model

// Factor 表示单个特征对最终得分的带符号贡献。
type Factor struct {
	FeatureName  string  `json:"featureName"`
	Contribution float64 `json:"contribution"`
}

// Prediction 是评分引擎的输出：某车手在某分站拿到积分的概率及其解释。
// 它是纯派生数据，每次请求重新计算，从不落库。
type Prediction struct {
	DriverID      string   `json:"driverId"`
	RaceID        string   `json:"raceId"`
	Probability   float64  `json:"probability"`
	RawScore      float64  `json:"rawScore"`
	RankedFactors []Factor `json:"rankedFactors"`
}
