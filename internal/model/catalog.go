// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Driver 对应于数据库中的 'drivers' 表。
// Code 是车手的三字母缩写（如 VER、NOR），也是系统内部的规范标识符。
type Driver struct {
	Code      string    `gorm:"type:varchar(3);primaryKey" json:"code"`
	FullName  string    `gorm:"type:varchar(100);not null" json:"fullName"`
	Team      string    `gorm:"type:varchar(100)" json:"team"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Driver) TableName() string {
	return "drivers"
}

// Race 对应于数据库中的 'races' 表。
// RaceID 形如 "2024_gbr"（年份_赛道缩写），是分站的规范标识符。
type Race struct {
	RaceID    string    `gorm:"type:varchar(32);primaryKey" json:"raceId"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Season    int       `gorm:"not null;index" json:"season"`
	Round     int       `gorm:"not null" json:"round"`
	Circuit   string    `gorm:"type:varchar(100)" json:"circuit"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Race) TableName() string {
	return "races"
}
