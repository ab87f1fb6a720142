package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Matching policy
	MatchRadiusKm            float64 `envconfig:"MATCH_RADIUS_KM" default:"0"` // 0 = unbounded
	CriticalRadiusMultiplier float64 `envconfig:"CRITICAL_RADIUS_MULTIPLIER" default:"2"`
	LocationMaxAgeMin        uint    `envconfig:"LOCATION_MAX_AGE_MIN" default:"0"` // 0 = never stale

	// Lifecycle
	RequestIdleExpiryMin uint `envconfig:"REQUEST_IDLE_EXPIRY_MIN" default:"4320"` // 3 days, 0 disables
	ExpirySweepSec       uint `envconfig:"EXPIRY_SWEEP_SEC" default:"60"`

	// Notifications
	DispatchBuffer  int      `envconfig:"DISPATCH_BUFFER" default:"1024"`
	DispatchWorkers int      `envconfig:"DISPATCH_WORKERS" default:"4"`
	InboxSize       int      `envconfig:"INBOX_SIZE" default:"50"`
	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic      string   `envconfig:"KAFKA_TOPIC" default:"bloodlink.notifications"`
}
