package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/index"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Callback completes a provider sign-in for a browser session.
type Callback interface {
	ExchangeCode(ctx context.Context, sid, code string) error
}

// HealthChecker reports whether the backend answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to access the server
	AllowedCIDRS []string // networks allowed to reach probes and admin endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy
	CookieSecure bool     // session cookie is sent over https only

	AuthRateBurst  int     // burst allowed on /auth/*
	AuthRatePerMin float64 // steady refill on /auth/*

	Pages    *index.PageIndex // one dashboard per browser session
	NewPage  index.Factory    // builds a page on first visit
	Callback Callback         // OAuth callback handling
	Backend  HealthChecker    // backend-as-a-service health

	RedisClient    redis.UniversalClient // nil when sessions live in memory
	CollectTrigger chan struct{}         // manual idle-page collection
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
