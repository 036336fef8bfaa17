package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/scout/internal/aggregator"
	"github.com/MrSnakeDoc/scout/internal/keypool"
	"github.com/MrSnakeDoc/scout/internal/logger"
	redisstore "github.com/MrSnakeDoc/scout/internal/store/redis"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time       // for testing, defaults to time.Now
	AllowedCIDRS []string               // IPs allowed to access admin endpoints
	TrustProxy   bool                   // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RedisClient  *redis.Client          // Redis client connection
	Store        *redisstore.Store      // exclusions + search history
	Aggregator   *aggregator.Aggregator // the search engine
	KeyPool      *keypool.Manager       // credential management
	DefaultCount int                    // result count when the caller does not specify one

	RateLimitBurst  int
	RateLimitPerMin int
}
