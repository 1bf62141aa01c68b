package app

import (
	"time"

	"github.com/kierolabs/dealdesk-backend/internal/platform/envutil"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	Port        string
	MetricsAddr string

	// Diagnostics unlocks the debug/raw graph query toggles.
	Diagnostics bool

	// PromoteRunNow makes the promote endpoint run synchronously instead
	// of enqueueing for the worker. Development only.
	PromoteRunNow bool

	// WorkerEnabled starts the in-process job worker.
	WorkerEnabled  bool
	WorkerInterval time.Duration

	// RulesetPath optionally points at a YAML ruleset; empty means the
	// built-in v1 rules.
	RulesetPath string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		ServiceName:    envutil.GetEnv("SERVICE_NAME", "dealdesk", log),
		Environment:    envutil.GetEnv("ENVIRONMENT", "development", log),
		Version:        envutil.GetEnv("SERVICE_VERSION", "dev", log),
		Port:           envutil.GetEnv("PORT", "8080", log),
		MetricsAddr:    envutil.GetEnv("METRICS_ADDR", "", log),
		Diagnostics:    envutil.GetEnvAsBool("DIAGNOSTICS_ENABLED", false, log),
		PromoteRunNow:  envutil.GetEnvAsBool("PROMOTE_RUN_NOW", false, log),
		WorkerEnabled:  envutil.GetEnvAsBool("WORKER_ENABLED", true, log),
		WorkerInterval: time.Duration(envutil.GetEnvAsInt("WORKER_POLL_INTERVAL_MS", 1000, log)) * time.Millisecond,
		RulesetPath:    envutil.GetEnv("SEGMENT_RULESET_PATH", "", log),
	}
}
