package bus

import (
	"fmt"
	"strings"

	"interbot/pkg/config"
	"interbot/pkg/logger"
)

// Backend names accepted in bus.type.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Open builds the bus selected by cfg. The redis backend reuses the shared
// redis connection settings.
func Open(log *logger.Logger, cfg config.BusConfig, rc config.RedisConfig) (Bus, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case BackendLocal, "":
		return NewLocalBus(log, cfg.BufferSize), nil
	case BackendRedis:
		if rc.Addr == "" {
			return nil, fmt.Errorf("redis bus: redis.addr is empty")
		}
		return NewRedisBus(log, &RedisBusConfig{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			Prefix:   cfg.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown bus type %q", cfg.Type)
	}
}
