package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"wormfall/server/protocol"
)

// Load reads wormfall.cfg.json from configDir on top of the defaults. A
// missing file is fine; every key has a default. A malformed file is an
// error so a typo does not silently boot a misconfigured server.
func Load(configDir string) error {
	viper.SetDefault("listenAddr", ":8080")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logPretty", false)
	viper.SetDefault("dataDir", "data")
	viper.SetDefault("tokenTTL", "24h")

	viper.SetDefault("match.unitsPerTeam", 4)
	viper.SetDefault("match.unitHp", 100)
	viper.SetDefault("match.turnSeconds", 45)
	viper.SetDefault("match.theme", "grass")
	viper.SetDefault("match.width", 0)
	viper.SetDefault("match.height", 0)

	viper.SetConfigName("wormfall.cfg.json")
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("config: read: %w", err)
	}
	return nil
}

// Server bundles the process-level settings main() wires together.
type Server struct {
	ListenAddr string
	LogLevel   string
	LogPretty  bool
	DataDir    string
	TokenTTL   time.Duration
}

func GetServer() Server {
	return Server{
		ListenAddr: viper.GetString("listenAddr"),
		LogLevel:   viper.GetString("logLevel"),
		LogPretty:  viper.GetBool("logPretty"),
		DataDir:    viper.GetString("dataDir"),
		TokenTTL:   viper.GetDuration("tokenTTL"),
	}
}

// GetMatchDefaults returns the match settings a new lobby starts from.
// Hosts override them per game when creating a lobby.
func GetMatchDefaults() protocol.MatchConfig {
	return protocol.MatchConfig{
		UnitsPerTeam: viper.GetInt("match.unitsPerTeam"),
		UnitHP:       viper.GetInt("match.unitHp"),
		TurnSeconds:  viper.GetInt("match.turnSeconds"),
		Theme:        viper.GetString("match.theme"),
		Width:        viper.GetInt("match.width"),
		Height:       viper.GetInt("match.height"),
	}
}
