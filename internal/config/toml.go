// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Pointer fields
// distinguish "unset" from explicit zero values so CLI flags can win.
type FileConfig struct {
	Battle    BattleConfig    `toml:"battle"`
	AntiCheat AntiCheatConfig `toml:"anticheat"`
	State     StateConfig     `toml:"state"`
}

// BattleConfig maps battle-related settings.
type BattleConfig struct {
	Lang             *string `toml:"lang"`
	Difficulty       *string `toml:"difficulty"`
	PlayerLevel      *int    `toml:"player-level"`
	TimeLimit        *int    `toml:"time-limit"`
	EnemyAttackEvery *int    `toml:"enemy-attack-every"`
	GuardWindow      *int    `toml:"guard-window"`
	EnemyBaseDamage  *int    `toml:"enemy-base-damage"`
}

// AntiCheatConfig maps typing-validator thresholds.
type AntiCheatConfig struct {
	MaxWPM                *float64 `toml:"max-wpm"`
	MinCharTimeMs         *int64   `toml:"min-char-time-ms"`
	MaxConsecutivePerfect *int     `toml:"max-consecutive-perfect"`
	MinVarianceMs         *float64 `toml:"min-variance-ms"`
	StreakResetPerRound   *bool    `toml:"streak-reset-per-round"`
}

// StateConfig maps state-manager settings.
type StateConfig struct {
	History    *bool `toml:"history"`
	MaxHistory *int  `toml:"max-history"`
	Validate   *bool `toml:"validate"`
	Logging    *bool `toml:"logging"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
