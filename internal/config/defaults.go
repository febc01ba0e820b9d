package config

// Assignment modes accepted by matcher.assignment_mode.
const (
	AssignmentModeBestEffort = "best_effort"
	AssignmentModeCurated    = "curated"
)

const (
	defaultDataDir               = "~/.local/share/soundleaf"
	defaultLogDir                = "~/.local/share/soundleaf/logs"
	defaultCatalogDir            = "~/.local/share/soundleaf/catalog"
	defaultClassifierBaseURL     = "https://openrouter.ai/api/v1"
	defaultClassifierModel       = "google/gemini-3-flash-preview"
	defaultClassifierTimeout     = 60
	defaultSpreadPages           = 1
	defaultMinPageChars          = 50
	defaultClassifierConcurrency = 5
	defaultUnitTimeoutSeconds    = 60
	defaultRetryAttempts         = 3
	defaultRetryBaseSeconds      = 1
	defaultKeepaliveInterval     = 15
	defaultMaxFailureRate        = 0.30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifyRequestTimeout  = 10
	bestEffortThreshold          = 0.25
	curatedThreshold             = 0.35
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			CatalogDir: defaultCatalogDir,
		},
		Classifier: Classifier{
			BaseURL:            defaultClassifierBaseURL,
			Model:              defaultClassifierModel,
			TimeoutSeconds:     defaultClassifierTimeout,
			SpreadPages:        defaultSpreadPages,
			MinPageChars:       defaultMinPageChars,
			Concurrency:        defaultClassifierConcurrency,
			UnitTimeoutSeconds: defaultUnitTimeoutSeconds,
			RetryAttempts:      defaultRetryAttempts,
			RetryBaseSeconds:   defaultRetryBaseSeconds,
		},
		Matcher: Matcher{
			AssignmentMode: AssignmentModeBestEffort,
		},
		Workflow: Workflow{
			KeepaliveInterval: defaultKeepaliveInterval,
			MaxFailureRate:    defaultMaxFailureRate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
