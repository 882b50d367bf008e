package models

import "time"

// LessonStat carries aggregated per-lesson view counts. Lessons themselves
// live in the headless CMS; this table only keys on the CMS document id.
type LessonStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LessonID  string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_lesson_stats_lesson_id" json:"lesson_id"`
	ViewCount uint64    `gorm:"not null;default:0" json:"view_count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
