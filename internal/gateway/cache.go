package gateway

import (
	"crypto/md5"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jacl-coder/PixelStorm-Arena/internal/dependencies/clock"
)

// CacheEntry 缓存条目
type CacheEntry struct {
	Data        []byte
	ContentType string
	ExpiresAt   time.Time
	ETag        string
}

// CacheMiddleware 对只读GET接口的响应做短时内存缓存
type CacheMiddleware struct {
	entries map[string]*CacheEntry
	mutex   sync.Mutex
	clock   clock.Clock

	// 可缓存的路径及缓存时间
	CacheTTL   map[string]time.Duration
	MaxEntries int
}

// NewCacheMiddleware 创建缓存中间件
func NewCacheMiddleware() *CacheMiddleware {
	return &CacheMiddleware{
		entries: make(map[string]*CacheEntry),
		clock:   clock.New(),
		CacheTTL: map[string]time.Duration{
			"/stats/leaderboard": 10 * time.Second,
		},
		MaxEntries: 256,
	}
}

// WithClock 替换时钟
func (cm *CacheMiddleware) WithClock(c clock.Clock) *CacheMiddleware {
	cm.clock = c
	return cm
}

// Invalidate 清空所有缓存
func (cm *CacheMiddleware) Invalidate() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	clear(cm.entries)
}

// Middleware 缓存中间件，非GET请求会清空缓存
func (cm *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			if r.Method == http.MethodPost {
				cm.Invalidate()
			}
			return
		}

		ttl, ok := cm.ttlFor(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.RequestURI()
		if entry := cm.get(key); entry != nil {
			if r.Header.Get("If-None-Match") == entry.ETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			cm.writeCached(w, entry)
			return
		}

		recorder := &cacheResponseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		// 只缓存成功响应
		if recorder.statusCode == http.StatusOK && len(recorder.body) > 0 {
			cm.set(key, &CacheEntry{
				Data:        recorder.body,
				ContentType: recorder.Header().Get("Content-Type"),
				ExpiresAt:   cm.clock.Now().Add(ttl),
				ETag:        fmt.Sprintf(`"%x"`, md5.Sum(recorder.body)),
			})
		}
	})
}

// ttlFor 获取路径的缓存时间
func (cm *CacheMiddleware) ttlFor(path string) (time.Duration, bool) {
	ttl, ok := cm.CacheTTL[path]
	return ttl, ok
}

func (cm *CacheMiddleware) get(key string) *CacheEntry {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entry, ok := cm.entries[key]
	if !ok {
		return nil
	}
	if cm.clock.Now().After(entry.ExpiresAt) {
		delete(cm.entries, key)
		return nil
	}
	return entry
}

func (cm *CacheMiddleware) set(key string, entry *CacheEntry) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if len(cm.entries) >= cm.MaxEntries {
		cm.evict()
	}
	cm.entries[key] = entry
}

// evict 删除过期条目，仍然超限时删除最早过期的条目
func (cm *CacheMiddleware) evict() {
	now := cm.clock.Now()
	var oldestKey string
	var oldest time.Time
	for key, entry := range cm.entries {
		if now.After(entry.ExpiresAt) {
			delete(cm.entries, key)
			continue
		}
		if oldestKey == "" || entry.ExpiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.ExpiresAt
		}
	}
	if len(cm.entries) >= cm.MaxEntries && oldestKey != "" {
		delete(cm.entries, oldestKey)
	}
}

// writeCached 写入缓存的响应
func (cm *CacheMiddleware) writeCached(w http.ResponseWriter, entry *CacheEntry) {
	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set("ETag", entry.ETag)
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(http.StatusOK)
	w.Write(entry.Data)
}

// cacheResponseRecorder 缓存响应记录器
type cacheResponseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

// WriteHeader 记录状态码
func (crr *cacheResponseRecorder) WriteHeader(code int) {
	crr.statusCode = code
	crr.ResponseWriter.WriteHeader(code)
}

// Write 记录响应体
func (crr *cacheResponseRecorder) Write(data []byte) (int, error) {
	crr.body = append(crr.body, data...)
	return crr.ResponseWriter.Write(data)
}
