// Package repository 提供了数据访问层的实现。
package repository

import (
	"pitwall-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeatureRepository 接口定义了特征行与评分系数的数据操作方法。
// 评分引擎只读；写入仅发生在 Kafka 摄入管道与启动种子流程中。
type FeatureRepository interface {
	FindByRace(raceID string) ([]model.FeatureRow, error)
	FindByRaceAndDriver(raceID, driverID string) (*model.FeatureRow, error)
	FindCoefficients(modelVersion string) ([]model.Coefficient, error)
	CountCoefficients(modelVersion string) (int64, error)
	UpsertFeatureRow(row *model.FeatureRow) error
	CreateFeatureRows(rows []model.FeatureRow) error
	CreateCoefficients(coeffs []model.Coefficient) error
}

type featureRepository struct {
	db *gorm.DB
}

// NewFeatureRepository 创建一个新的 FeatureRepository 实例。
func NewFeatureRepository(db *gorm.DB) FeatureRepository {
	return &featureRepository{db: db}
}

// FindByRace 检索某分站全部车手的特征行。分站不存在时返回空切片而非错误。
func (r *featureRepository) FindByRace(raceID string) ([]model.FeatureRow, error) {
	var rows []model.FeatureRow
	err := r.db.Where("race_id = ?", raceID).Order("driver_id").Find(&rows).Error
	return rows, err
}

// FindByRaceAndDriver 检索单个 (分站, 车手) 的特征行，未找到时返回 (nil, nil)。
func (r *featureRepository) FindByRaceAndDriver(raceID, driverID string) (*model.FeatureRow, error) {
	var row model.FeatureRow
	err := r.db.Where("race_id = ? AND driver_id = ?", raceID, driverID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindCoefficients 检索指定模型版本的全部系数行。
func (r *featureRepository) FindCoefficients(modelVersion string) ([]model.Coefficient, error) {
	var coeffs []model.Coefficient
	err := r.db.Where("model_version = ?", modelVersion).Find(&coeffs).Error
	return coeffs, err
}

// CountCoefficients 返回指定模型版本的系数行数，用于幂等种子判断。
func (r *featureRepository) CountCoefficients(modelVersion string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Coefficient{}).Where("model_version = ?", modelVersion).Count(&count).Error
	return count, err
}

// UpsertFeatureRow 按 (race_id, driver_id) 唯一键插入或更新一条特征行。
// 供 Kafka 摄入管道使用：上游可能重发同一分站的修正快照。
func (r *featureRepository) UpsertFeatureRow(row *model.FeatureRow) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "race_id"}, {Name: "driver_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"qualifying_position", "long_run_pace_delta", "constructor_form",
			"driver_form", "circuit_effect", "weather_risk",
		}),
	}).Create(row).Error
}

// CreateFeatureRows 批量插入特征行（种子流程）。
func (r *featureRepository) CreateFeatureRows(rows []model.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}

// CreateCoefficients 批量插入系数行（种子流程）。
func (r *featureRepository) CreateCoefficients(coeffs []model.Coefficient) error {
	if len(coeffs) == 0 {
		return nil
	}
	return r.db.Create(&coeffs).Error
}
