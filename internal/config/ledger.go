package config

import (
	"os"
	"strconv"
	"strings"
)

type LedgerConfig struct {
	CommissionDivisor int64
	AdminSeeds        []string
	PauserSeeds       []string
	GigOwnerSeeds     []string
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		CommissionDivisor: getEnvAsInt64("LEDGER_COMMISSION_DIVISOR", 20),
		AdminSeeds:        getEnvAsList("LEDGER_ADMIN_SEEDS", ""),
		PauserSeeds:       getEnvAsList("LEDGER_PAUSER_SEEDS", ""),
		GigOwnerSeeds:     getEnvAsList("LEDGER_GIG_OWNER_SEEDS", ""),
	}
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsList(key, defaultVal string) []string {
	val := os.Getenv(key)
	if val == "" {
		val = defaultVal
	}
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
