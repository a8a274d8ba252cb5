// Package repository 提供了数据访问层的实现。
package repository

import (
	"pitwall-go/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository 接口定义了车手与分站参照目录的数据操作方法。
type CatalogRepository interface {
	FindAllDrivers() ([]model.Driver, error)
	FindAllRaces() ([]model.Race, error)
	FindRaceByID(raceID string) (*model.Race, error)
	CountDrivers() (int64, error)
	CreateDrivers(drivers []model.Driver) error
	CreateRaces(races []model.Race) error
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建一个新的 CatalogRepository 实例。
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// FindAllDrivers 检索全部车手记录，按建档顺序返回。
// 归一化的“目录序优先匹配”依赖此顺序稳定。
func (r *catalogRepository) FindAllDrivers() ([]model.Driver, error) {
	var drivers []model.Driver
	err := r.db.Order("created_at, code").Find(&drivers).Error
	return drivers, err
}

// FindAllRaces 检索全部分站记录，按赛季和轮次排序。
func (r *catalogRepository) FindAllRaces() ([]model.Race, error) {
	var races []model.Race
	err := r.db.Order("season, round").Find(&races).Error
	return races, err
}

// FindRaceByID 根据规范分站 ID 查找一条记录，未找到时返回 (nil, nil)。
func (r *catalogRepository) FindRaceByID(raceID string) (*model.Race, error) {
	var race model.Race
	err := r.db.Where("race_id = ?", raceID).First(&race).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &race, nil
}

// CountDrivers 返回车手表的行数，用于启动时的幂等种子判断。
func (r *catalogRepository) CountDrivers() (int64, error) {
	var count int64
	err := r.db.Model(&model.Driver{}).Count(&count).Error
	return count, err
}

// CreateDrivers 批量插入车手记录。
func (r *catalogRepository) CreateDrivers(drivers []model.Driver) error {
	if len(drivers) == 0 {
		return nil
	}
	return r.db.Create(&drivers).Error
}

// CreateRaces 批量插入分站记录。
func (r *catalogRepository) CreateRaces(races []model.Race) error {
	if len(races) == 0 {
		return nil
	}
	return r.db.Create(&races).Error
}
