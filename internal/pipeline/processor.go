// Package pipeline 实现特征行的摄入处理管道。
package pipeline

import (
	"context"
	"fmt"
	"regexp"

	"pitwall-go/internal/model"
	"pitwall-go/internal/repository"
	"pitwall-go/pkg/log"
	"pitwall-go/pkg/tasks"
)

var driverCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// FeatureProcessor 消费上游发布的特征行任务：校验后按
// (race_id, driver_id) 幂等写入 feature_rows 表。
// 评分核心只读这些行，写入只发生在这里和启动种子流程。
type FeatureProcessor struct {
	catalogRepo repository.CatalogRepository
	featureRepo repository.FeatureRepository
}

// NewFeatureProcessor 创建一个新的 FeatureProcessor。
func NewFeatureProcessor(catalogRepo repository.CatalogRepository, featureRepo repository.FeatureRepository) *FeatureProcessor {
	return &FeatureProcessor{
		catalogRepo: catalogRepo,
		featureRepo: featureRepo,
	}
}

// Process 处理一条特征行任务。校验失败返回错误交由消费端的重试计数处理。
func (p *FeatureProcessor) Process(ctx context.Context, task tasks.FeatureRowTask) error {
	if !driverCodePattern.MatchString(task.DriverID) {
		return fmt.Errorf("非法的车手缩写: %q", task.DriverID)
	}

	race, err := p.catalogRepo.FindRaceByID(task.RaceID)
	if err != nil {
		return fmt.Errorf("查询分站目录失败: %w", err)
	}
	if race == nil {
		return fmt.Errorf("分站 %q 不在目录中", task.RaceID)
	}

	if task.QualifyingPosition < 1 || task.QualifyingPosition > 20 {
		return fmt.Errorf("排位赛名次超出范围: %v", task.QualifyingPosition)
	}

	row := &model.FeatureRow{
		RaceID:             task.RaceID,
		DriverID:           task.DriverID,
		QualifyingPosition: task.QualifyingPosition,
		LongRunPaceDelta:   task.LongRunPaceDelta,
		ConstructorForm:    task.ConstructorForm,
		DriverForm:         task.DriverForm,
		CircuitEffect:      task.CircuitEffect,
		WeatherRisk:        task.WeatherRisk,
	}
	if err := p.featureRepo.UpsertFeatureRow(row); err != nil {
		return fmt.Errorf("写入特征行失败: %w", err)
	}

	log.Infof("特征行已落库: race=%s, driver=%s", task.RaceID, task.DriverID)
	return nil
}
