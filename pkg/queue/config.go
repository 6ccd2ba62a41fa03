package queue

import "time"

// Config holds queue and broker configuration.
type Config struct {
	RedisURL           string        `env:"QUEUE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	PollInterval       time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"2s"`
	LockTimeout        time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	MaxConcurrentTasks int           `env:"QUEUE_MAX_CONCURRENT_TASKS" envDefault:"10"`
	ProbeInterval      time.Duration `env:"QUEUE_PROBE_INTERVAL" envDefault:"15s"`
	ProbeRetryDelay    time.Duration `env:"QUEUE_PROBE_RETRY_DELAY" envDefault:"5s"`
	ErrorLogInterval   time.Duration `env:"QUEUE_ERROR_LOG_INTERVAL" envDefault:"30s"`
}
