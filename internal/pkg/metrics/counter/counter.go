package counter

import (
	"context"
	"errors"
	"log"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NicolasMarrai/healthmed/app/models"
	"github.com/NicolasMarrai/healthmed/internal/pkg/cache"
	"github.com/NicolasMarrai/healthmed/internal/pkg/database"
)

const lessonViewsKey = "lesson:counters:views"

// AddLessonView increments the pending view counter for a lesson in Redis
func AddLessonView(lessonID string) error {
	client := cache.GetClient()
	if client == nil {
		return errors.New("cache is not initialized")
	}
	return client.HIncrBy(context.Background(), lessonViewsKey, lessonID, 1).Err()
}

// FlushLessonViews moves the pending Redis counters into lesson_stats.
// Counters are read-and-deleted per field so a crash loses at most the
// increments of one flush window.
func FlushLessonViews() error {
	ctx := context.Background()
	client := cache.GetClient()
	if client == nil {
		return errors.New("cache is not initialized")
	}

	fields, err := client.HGetAll(ctx, lessonViewsKey).Result()
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	db := database.GetDB()
	for lessonID, raw := range fields {
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || delta <= 0 {
			client.HDel(ctx, lessonViewsKey, lessonID)
			continue
		}

		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"view_count": gorm.Expr("view_count + ?", delta)}),
		}).Create(&models.LessonStat{LessonID: lessonID, ViewCount: uint64(delta)}).Error
		if err != nil {
			log.Printf("Error flushing view counter for lesson %s: %v", lessonID, err)
			continue
		}

		client.HDel(ctx, lessonViewsKey, lessonID)
	}
	return nil
}
