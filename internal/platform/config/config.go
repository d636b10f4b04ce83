package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"atomsi"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	RedisURL    string `env:"REDIS_URL"`
	RedisStream string `env:"REDIS_STREAM" envDefault:"atomsi.events"`
	JWTSecret   string `env:"JWT_SECRET"`

	Governance Governance `envPrefix:"GOVERNANCE_"`
	Treasury   Treasury   `envPrefix:"TREASURY_"`
	Reputation Reputation `envPrefix:"REPUTATION_DELTA_"`
	EventBus   EventBus   `envPrefix:"EVENT_BUS_"`

	FinalizeInterval time.Duration `env:"FINALIZE_INTERVAL" envDefault:"30s"`
	ReputationRetry  time.Duration `env:"REPUTATION_RETRY_INTERVAL" envDefault:"1m"`
	AuthzPolicyFile  string        `env:"AUTHZ_POLICY_FILE"`

	// AuthzPolicy is populated from AuthzPolicyFile when set.
	AuthzPolicy Policy
}

type Governance struct {
	Quorum              int64         `env:"QUORUM" envDefault:"1"`
	QuorumCountsAbstain bool          `env:"QUORUM_COUNTS_ABSTAIN" envDefault:"false"`
	VotingPeriod        time.Duration `env:"VOTING_PERIOD" envDefault:"72h"`
}

type Treasury struct {
	Address string `env:"ADDRESS" envDefault:"0xTreasury"`
}

// Reputation holds the per-activity reputation deltas.
type Reputation struct {
	ProposalCreated     int64 `env:"PROPOSAL_CREATED" envDefault:"5"`
	ProposalVoted       int64 `env:"PROPOSAL_VOTED" envDefault:"1"`
	TransactionApproved int64 `env:"TRANSACTION_APPROVED" envDefault:"2"`
	TransactionExecuted int64 `env:"TRANSACTION_EXECUTED" envDefault:"3"`
}

type EventBus struct {
	QueueSize      int    `env:"QUEUE_SIZE" envDefault:"256"`
	OverflowPolicy string `env:"OVERFLOW_POLICY" envDefault:"drop_oldest"`
}

// Policy maps role -> resource -> allowed actions.
type Policy map[string]map[string][]string

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.AuthzPolicyFile) != "" {
		policy, err := LoadPolicyFile(cfg.AuthzPolicyFile)
		if err != nil {
			return Config{}, err
		}
		cfg.AuthzPolicy = policy
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Governance.Quorum < 0 {
		return errors.New("GOVERNANCE_QUORUM must not be negative")
	}
	if c.Governance.VotingPeriod <= 0 {
		return errors.New("GOVERNANCE_VOTING_PERIOD must be positive")
	}
	if strings.TrimSpace(c.Treasury.Address) == "" {
		return errors.New("TREASURY_ADDRESS is required")
	}
	if c.EventBus.QueueSize <= 0 {
		return errors.New("EVENT_BUS_QUEUE_SIZE must be positive")
	}
	switch c.EventBus.OverflowPolicy {
	case "drop_oldest", "disconnect":
	default:
		return fmt.Errorf("unsupported EVENT_BUS_OVERFLOW_POLICY %q", c.EventBus.OverflowPolicy)
	}
	if c.FinalizeInterval <= 0 {
		return errors.New("FINALIZE_INTERVAL must be positive")
	}
	return nil
}

// LoadPolicyFile reads a YAML role -> resource -> actions matrix, e.g.
//
//	council:
//	  treasury: [read, create, approve, reject]
func LoadPolicyFile(path string) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authz policy: %w", err)
	}
	return ParsePolicy(raw)
}

func ParsePolicy(raw []byte) (Policy, error) {
	var policy Policy
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return nil, fmt.Errorf("decode authz policy: %w", err)
	}
	normalized := make(Policy, len(policy))
	for role, resources := range policy {
		roleKey := strings.ToLower(strings.TrimSpace(role))
		if roleKey == "" {
			return nil, errors.New("authz policy has an empty role name")
		}
		normalized[roleKey] = make(map[string][]string, len(resources))
		for resource, actions := range resources {
			resourceKey := strings.ToLower(strings.TrimSpace(resource))
			for _, action := range actions {
				action = strings.ToLower(strings.TrimSpace(action))
				if action != "" {
					normalized[roleKey][resourceKey] = append(normalized[roleKey][resourceKey], action)
				}
			}
		}
	}
	return normalized, nil
}
