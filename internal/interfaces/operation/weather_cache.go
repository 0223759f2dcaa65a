// Package operation
package operation

import (
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
)

// WeatherCacheOperationInterface 天气缓存操作接口定义
type WeatherCacheOperationInterface interface {
	weather.CacheInterface
	// PurgeExpired 删除在before之前过期的缓存, 返回删除的行数
	PurgeExpired(before time.Time) (rows int64, err error)
}
