package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiters untouched for this long are forgotten
const idleLimiterTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	ips       map[string]*visitor
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
	lastPrune time.Time
	now       func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:       make(map[string]*visitor),
		rateLimit: r,
		burstRate: b,
		now:       time.Now,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastPrune) > idleLimiterTTL {
		i.prune(now)
	}

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.rateLimit, i.burstRate)}
		i.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (i *IPRateLimiter) prune(now time.Time) {
	for ip, v := range i.ips {
		if now.Sub(v.lastSeen) > idleLimiterTTL {
			delete(i.ips, ip)
		}
	}
	i.lastPrune = now
}

// Len is the number of tracked addresses.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

//TODO: move the per-IP limiters into redis once more than one instance serves /chat
