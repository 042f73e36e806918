package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Registry RegistryConfig `mapstructure:"registry"`
	Support  SupportConfig  `mapstructure:"support"`
	Hours    HoursConfig    `mapstructure:"hours"`
	Server   ServerConfig   `mapstructure:"server"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type RegistryConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	DBName      string        `mapstructure:"dbname"`
	SSLMode     string        `mapstructure:"sslmode"`
	UseInMemory bool          `mapstructure:"use_in_memory"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type SupportConfig struct {
	StaffIDs      []int64       `mapstructure:"staff_ids"`
	SpamKeywords  []string      `mapstructure:"spam_keywords"`
	IdleReclaim   time.Duration `mapstructure:"idle_reclaim"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	RosterTTL     time.Duration `mapstructure:"roster_ttl"`
}

type HoursConfig struct {
	Timezone string   `mapstructure:"timezone"`
	Open     string   `mapstructure:"open"`
	Close    string   `mapstructure:"close"`
	Workdays []string `mapstructure:"workdays"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Weekdays maps the configured workday names to time.Weekday values.
func (h HoursConfig) Weekdays() ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	days := make([]time.Weekday, 0, len(h.Workdays))
	for _, name := range h.Workdays {
		d, ok := names[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown workday %q", name)
		}
		days = append(days, d)
	}
	return days, nil
}

func parseDatabaseURL(dbURL string) (RegistryConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return RegistryConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return RegistryConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("registry.port", 5432)
	v.SetDefault("registry.host", "localhost")
	v.SetDefault("registry.user", "postgres")
	v.SetDefault("registry.sslmode", "disable")
	v.SetDefault("registry.use_in_memory", false)
	v.SetDefault("registry.cache_ttl", "300s")
	v.SetDefault("support.idle_reclaim", "300s")
	v.SetDefault("support.sweep_interval", "30s")
	v.SetDefault("support.roster_ttl", "300s")
	v.SetDefault("hours.timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("hours.open", "08:30")
	v.SetDefault("hours.close", "17:00")
	v.SetDefault("hours.workdays", []string{
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
	})
	v.SetDefault("server.port", 8080)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		regConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		regConfig.UseInMemory = config.Registry.UseInMemory
		regConfig.CacheTTL = config.Registry.CacheTTL
		config.Registry = regConfig
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	// The bot token is the one setting the process cannot start without.
	if config.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is not configured")
	}

	return &config, nil
}
