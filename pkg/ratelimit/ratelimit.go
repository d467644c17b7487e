// Package ratelimit — IP bazlı sliding-window rate limiting.
//
// Login brute-force koruması için kullanılır:
// - Her IP için pencere başına istek sayısı takip edilir.
// - Pencere içinde maxAttempts aşılırsa istek reddedilir.
// - Başarılı login sonrası Reset() ile sayaç sıfırlanır.
// - Arka plan goroutine'i süresi dolan bucket'ları temizler (memory leak engeli).
//
// Tek instance deploy için in-memory yeterli — harici bir store bağımlılığı
// eklemeye gerek yok. pkg/ratelimit hiçbir proje içi pakete bağımlı değildir
// (leaf dependency), böylece handlers ↔ middleware arasında import cycle oluşmaz.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucket, bir IP için sayaç + pencere başlangıcı tutar.
type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter, IP bazlı sliding-window rate limiter.
//
// Kullanım:
//
//	limiter := ratelimit.New(5, 2*time.Minute)
//	if !limiter.Allow(ip) { /* 429 */ }
//	limiter.Reset(ip) // başarılı login'de
type Limiter struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	stopCleanup chan struct{}
}

// New, yeni bir Limiter oluşturur ve temizleme goroutine'ini başlatır.
func New(maxAttempts int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow, verilen anahtarın (IP) bu pencere içinde istek hakkı olup olmadığını
// kontrol eder ve sayacı artırır.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) >= l.window {
		// Yeni pencere başlat
		l.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	if b.count >= l.maxAttempts {
		return false
	}
	b.count++
	return true
}

// Reset, anahtarın sayacını sıfırlar. Başarılı login sonrası çağrılır —
// meşru kullanıcı sonraki oturumlarında limite takılmaz.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// RetryAfterSeconds, anahtarın tekrar deneyebileceği süreyi saniye olarak döner.
func (l *Limiter) RetryAfterSeconds(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, ok := l.buckets[key]
	if !ok {
		return 0
	}
	remaining := l.window - time.Since(b.windowStart)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close, temizleme goroutine'ini durdurur.
func (l *Limiter) Close() {
	close(l.stopCleanup)
}

// cleanupLoop, her dakika süresi dolmuş bucket'ları siler.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, b := range l.buckets {
				if now.Sub(b.windowStart) >= l.window {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}

// ExtractIP, request'ten client IP'sini çıkarır.
// Reverse proxy arkasında X-Forwarded-For'un ilk değeri kullanılır.
func ExtractIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage, saniyeyi insan okunur hale çevirir ("45 seconds", "2 minutes").
func FormatRetryMessage(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d seconds", seconds)
	}
	minutes := (seconds + 59) / 60
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
