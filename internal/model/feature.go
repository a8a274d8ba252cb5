// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 评分引擎识别的特征名称。系数表中的 feature_name 与此对应，
// 未知名称的系数在计算时贡献为零（向前兼容尚未落库的特征）。
const (
	FeatureQualifyingPosition = "qualifying_position"
	FeatureLongRunPaceDelta   = "long_run_pace_delta"
	FeatureConstructorForm    = "constructor_form"
	FeatureDriverForm         = "driver_form"
	FeatureCircuitEffect      = "circuit_effect"
	FeatureWeatherRisk        = "weather_risk"
)

// FeatureRow 对应于数据库中的 'feature_rows' 表。
// 每行是一个 (分站, 车手) 的赛前特征快照，上游重发修正快照时按唯一键覆盖。
type FeatureRow struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RaceID             string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_race_driver" json:"raceId"`
	DriverID           string    `gorm:"type:varchar(3);not null;uniqueIndex:idx_race_driver" json:"driverId"`
	QualifyingPosition float64   `gorm:"not null" json:"qualifyingPosition"`
	LongRunPaceDelta   float64   `gorm:"not null" json:"longRunPaceDelta"`
	ConstructorForm    float64   `gorm:"not null" json:"constructorForm"`
	DriverForm         float64   `gorm:"not null" json:"driverForm"`
	CircuitEffect      float64   `gorm:"not null" json:"circuitEffect"`
	WeatherRisk        float64   `gorm:"not null" json:"weatherRisk"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (FeatureRow) TableName() string {
	return "feature_rows"
}

// FeatureValue 按特征名取出本行对应的数值，未知名称返回 (0, false)。
func (f *FeatureRow) FeatureValue(name string) (float64, bool) {
	switch name {
	case FeatureQualifyingPosition:
		return f.QualifyingPosition, true
	case FeatureLongRunPaceDelta:
		return f.LongRunPaceDelta, true
	case FeatureConstructorForm:
		return f.ConstructorForm, true
	case FeatureDriverForm:
		return f.DriverForm, true
	case FeatureCircuitEffect:
		return f.CircuitEffect, true
	case FeatureWeatherRisk:
		return f.WeatherRisk, true
	}
	return 0, false
}

// Coefficient 对应于数据库中的 'coefficients' 表。
// 同一 ModelVersion 下的全部行构成一个评分系数集。
type Coefficient struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	ModelVersion string  `gorm:"type:varchar(64);not null;index" json:"modelVersion"`
	FeatureName  string  `gorm:"type:varchar(64);not null" json:"featureName"`
	Weight       float64 `gorm:"not null" json:"weight"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Coefficient) TableName() string {
	return "coefficients"
}
