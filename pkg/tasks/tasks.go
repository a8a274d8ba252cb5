// Package tasks defines the structures for messages exchanged over Kafka.
package tasks

// FeatureRowTask 是上游采集作业发布的一条 (分站, 车手) 特征快照。
// 消费端校验后写入 feature_rows 表，作为评分引擎的只读输入。
type FeatureRowTask struct {
	RaceID             string  `json:"race_id"`
	DriverID           string  `json:"driver_id"`
	QualifyingPosition float64 `json:"qualifying_position"`
	LongRunPaceDelta   float64 `json:"long_run_pace_delta"`
	ConstructorForm    float64 `json:"constructor_form"`
	DriverForm         float64 `json:"driver_form"`
	CircuitEffect      float64 `json:"circuit_effect"`
	WeatherRisk        float64 `json:"weather_risk"`
}

// PredictionAuditTask 是一次预测请求的尽力而为审计事件。
// DriverID 为空表示整场排名查询。
type PredictionAuditTask struct {
	RaceID      string  `json:"race_id"`
	DriverID    string  `json:"driver_id,omitempty"`
	Probability float64 `json:"probability,omitempty"`
	Source      string  `json:"source"`
	Timestamp   int64   `json:"timestamp"`
}
