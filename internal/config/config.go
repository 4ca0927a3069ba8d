package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	// Room platform credentials.
	LiveKitURL       string `mapstructure:"livekit_url"`
	LiveKitAPIKey    string `mapstructure:"livekit_api_key"`
	LiveKitAPISecret string `mapstructure:"livekit_api_secret"`
	RoomPrefix       string `mapstructure:"room_prefix"`

	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	AgentTimeout time.Duration `mapstructure:"agent_timeout"`
	RPCTimeout   time.Duration `mapstructure:"rpc_timeout"`

	// Optional; when empty the word game falls back to built-in lists.
	DatabaseURL string `mapstructure:"database_url"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("room_prefix", "wordpan")
	v.SetDefault("token_ttl", "15m")
	v.SetDefault("agent_timeout", "20s")
	v.SetDefault("rpc_timeout", "10s")

	// Credentials come from the environment, never from the yaml file.
	v.SetDefault("livekit_url", os.Getenv("LIVEKIT_URL"))
	v.SetDefault("livekit_api_key", os.Getenv("LIVEKIT_API_KEY"))
	v.SetDefault("livekit_api_secret", os.Getenv("LIVEKIT_API_SECRET"))
	v.SetDefault("database_url", os.Getenv("DATABASE_URL"))
	v.SetDefault("secret", os.Getenv("COOKIE_SECRET"))

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}

// Validate checks the credentials needed to mint room tokens.
// The database URL is deliberately optional.
func (c *Config) Validate() error {
	if c.LiveKitURL == "" {
		return fmt.Errorf("LIVEKIT_URL is required")
	}
	if c.LiveKitAPIKey == "" || c.LiveKitAPISecret == "" {
		return fmt.Errorf("LIVEKIT_API_KEY and LIVEKIT_API_SECRET are required")
	}
	return nil
}
