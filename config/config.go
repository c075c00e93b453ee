package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Game    GameConfig    `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress string `mapstructure:"http_address"`
	RPCAddress  string `mapstructure:"rpc_address"`
	Environment string `mapstructure:"environment"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// GameConfig holds the defaults applied when a host creates a game
// without explicit options.
type GameConfig struct {
	MaxRounds   int `mapstructure:"max_rounds"`
	DrawingTime int `mapstructure:"drawing_time"`
	VotingTime  int `mapstructure:"voting_time"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":3001")
	viper.SetDefault("server.rpc_address", ":3002")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("metrics.address", ":9090")
	viper.SetDefault("game.max_rounds", 5)
	viper.SetDefault("game.drawing_time", 60)
	viper.SetDefault("game.voting_time", 30)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		// Defaults cover every key, so a missing file is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
