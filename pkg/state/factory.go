package state

import (
	"fmt"
	"strings"
	"time"

	"interbot/pkg/config"
	"interbot/pkg/logger"
)

// Backend names accepted in state.backend.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Open builds the store selected by cfg. The file backend saves on an
// interval; Close flushes the last writes.
func Open(log *logger.Logger, cfg config.StateConfig, rc config.RedisConfig) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendFile, "":
		return NewFileStore(log, &FileStoreConfig{
			FilePath:     cfg.FilePath,
			AutoSave:     true,
			SaveInterval: time.Duration(cfg.SaveIntervalSeconds) * time.Second,
		})
	case BackendRedis:
		if rc.Addr == "" {
			return nil, fmt.Errorf("redis state: redis.addr is empty")
		}
		return NewRedisStore(log, &RedisStoreConfig{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			Prefix:   cfg.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
