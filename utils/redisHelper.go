package utils

import (
	"os"
	"strconv"
	"time"
)

// GetCacheLifespan returns the resolver cache TTL.
// CACHE_LIFESPAN is in seconds; defaults to 300.
func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 300
	}
	return time.Duration(lifespan) * time.Second
}
