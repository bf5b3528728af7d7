package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName     string
	HTTPPort        string
	PostgresDSN     string
	KafkaBrokers    []string
	TokenServiceURL string

	EnableDepositConsumer bool

	// Seed policy applied when the engine is not yet initialized.
	GovOwner            string
	GovPoolAddress      string
	GovQuorum           float64
	GovThreshold        float64
	GovVotingPeriod     uint64
	GovTimelockPeriod   uint64
	GovExpirationPeriod uint64
	GovProposalDeposit  uint64
	GovSnapshotPeriod   uint64
}

func Load() (Config, error) {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "stakegov"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:     service,
		HTTPPort:        port,
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		KafkaBrokers:    brokers,
		TokenServiceURL: os.Getenv("TOKEN_SERVICE_URL"),

		EnableDepositConsumer: envBool("ENABLE_DEPOSIT_CONSUMER", true),

		GovOwner:            os.Getenv("GOV_OWNER"),
		GovPoolAddress:      os.Getenv("GOV_POOL_ADDRESS"),
		GovQuorum:           envFloat("GOV_QUORUM", 0.3),
		GovThreshold:        envFloat("GOV_THRESHOLD", 0.5),
		GovVotingPeriod:     envUint("GOV_VOTING_PERIOD", 10000),
		GovTimelockPeriod:   envUint("GOV_TIMELOCK_PERIOD", 10000),
		GovExpirationPeriod: envUint("GOV_EXPIRATION_PERIOD", 20000),
		GovProposalDeposit:  envUint("GOV_PROPOSAL_DEPOSIT", 10000000),
		GovSnapshotPeriod:   envUint("GOV_SNAPSHOT_PERIOD", 10),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envUint(name string, fallback uint64) uint64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
