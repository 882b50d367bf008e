package statistics

import (
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/NicolasMarrai/healthmed/app/models"
	"github.com/NicolasMarrai/healthmed/internal/pkg/cache"
	"github.com/NicolasMarrai/healthmed/internal/pkg/database"
)

const (
	CacheKeyUsers       = "statistics:users:total"
	CacheKeySubscribers = "statistics:users:active"
	CacheKeyPayments    = "statistics:payments:approved"
	CacheExpiration     = 30 * time.Minute
)

// StatisticsData holds the aggregate numbers shown on the landing page.
type StatisticsData struct {
	TotalUsers        int
	ActiveSubscribers int
	ApprovedPayments  int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache checks whether the cache refresh interval has elapsed.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has elapsed.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Println("Updating statistics cache...")
		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded to refresh.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()
	if db == nil {
		return errors.New("database is not initialized")
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	var activeSubscribers int64
	if err := db.Model(&models.User{}).
		Where("subscription_status = ?", models.SUBSCRIPTION_ACTIVE).
		Count(&activeSubscribers).Error; err != nil {
		log.Printf("Error counting active subscribers: %v", err)
		return err
	}

	var approvedPayments int64
	if err := db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusApproved).
		Count(&approvedPayments).Error; err != nil {
		log.Printf("Error counting approved payments: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
		return err
	}
	if err := cache.Set(CacheKeySubscribers, strconv.FormatInt(activeSubscribers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching active subscribers: %v", err)
		return err
	}
	if err := cache.Set(CacheKeyPayments, strconv.FormatInt(approvedPayments, 10), CacheExpiration); err != nil {
		log.Printf("Error caching approved payments: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: Users: %d, Subscribers: %d, Approved payments: %d",
		totalUsers, activeSubscribers, approvedPayments)

	return nil
}

// GetStatistics returns the cached aggregates, refreshing lazily on miss.
func GetStatistics() StatisticsData {
	return StatisticsData{
		TotalUsers:        getCachedCount(CacheKeyUsers),
		ActiveSubscribers: getCachedCount(CacheKeySubscribers),
		ApprovedPayments:  getCachedCount(CacheKeyPayments),
	}
}

func getCachedCount(key string) int {
	val, err := cache.GetInt(key)
	if err == nil {
		return val
	}

	// Not cached yet: refresh everything once, then read again.
	if err := UpdateStatisticsCache(); err != nil {
		return 0
	}
	val, _ = cache.GetInt(key)
	return val
}
