package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/irfndi/gruforecast/internal/search"
)

const dateLayout = "2006-01-02"

// Config is the full configuration surface, validated before a search run
// starts.
type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Forecast    ForecastConfig `mapstructure:"forecast"`
	Grid        search.Grid    `mapstructure:"grid"`
	Data        DataConfig     `mapstructure:"data"`

	startDate time.Time
	endDate   time.Time
}

type ForecastConfig struct {
	Ticker         string `mapstructure:"ticker"`
	StartDate      string `mapstructure:"start_date"`
	EndDate        string `mapstructure:"end_date"`
	Cycles         int    `mapstructure:"cycles"`
	Epochs         int    `mapstructure:"epochs"`
	CheckpointPath string `mapstructure:"checkpoint_path"`
	Seed           int64  `mapstructure:"seed"`
}

type DataConfig struct {
	CandlesCSV string `mapstructure:"candles_csv"`
}

// Load reads config.yaml (./configs or .) with environment-variable
// overrides, applies defaults, and validates the result.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks every input constraint and parses the date range. It must
// pass before any training starts.
func (c *Config) Validate() error {
	if c.Forecast.Ticker == "" {
		return errors.New("config: ticker is required")
	}

	start, err := time.Parse(dateLayout, c.Forecast.StartDate)
	if err != nil {
		return fmt.Errorf("config: invalid start_date: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Forecast.EndDate)
	if err != nil {
		return fmt.Errorf("config: invalid end_date: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("config: end_date %s must be after start_date %s", c.Forecast.EndDate, c.Forecast.StartDate)
	}
	c.startDate, c.endDate = start, end

	if c.Forecast.Cycles < 1 {
		return fmt.Errorf("config: cycles must be positive, got %d", c.Forecast.Cycles)
	}
	if c.Forecast.Epochs < 0 {
		return fmt.Errorf("config: epochs must be non-negative, got %d", c.Forecast.Epochs)
	}

	return validateGrid(&c.Grid)
}

func validateGrid(grid *search.Grid) error {
	if len(grid.HiddenDims) == 0 || len(grid.NumLayers) == 0 || len(grid.LearningRates) == 0 ||
		len(grid.SeqLengths) == 0 || len(grid.DropoutRates) == 0 {
		return errors.New("config: every grid axis needs at least one candidate value")
	}
	for _, v := range grid.HiddenDims {
		if v < 1 {
			return fmt.Errorf("config: hidden dim must be positive, got %d", v)
		}
	}
	for _, v := range grid.NumLayers {
		if v < 1 {
			return fmt.Errorf("config: layer count must be positive, got %d", v)
		}
	}
	for _, v := range grid.LearningRates {
		if v <= 0 {
			return fmt.Errorf("config: learning rate must be positive, got %g", v)
		}
	}
	for _, v := range grid.SeqLengths {
		if v < 1 {
			return fmt.Errorf("config: sequence length must be positive, got %d", v)
		}
	}
	for _, v := range grid.DropoutRates {
		if v < 0 || v >= 1 {
			return fmt.Errorf("config: dropout rate must be in [0, 1), got %g", v)
		}
	}
	return nil
}

// StartDate returns the parsed training-window start. Valid after Validate.
func (c *Config) StartDate() time.Time { return c.startDate }

// EndDate returns the parsed training-window end. Valid after Validate.
func (c *Config) EndDate() time.Time { return c.endDate }

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("forecast.ticker", "SPY")
	viper.SetDefault("forecast.cycles", 1)
	viper.SetDefault("forecast.epochs", 150)
	viper.SetDefault("forecast.checkpoint_path", "best_model.json")
	viper.SetDefault("forecast.seed", 42)

	viper.SetDefault("grid.hidden_dims", []int{32, 64, 128})
	viper.SetDefault("grid.num_layers", []int{2, 3, 4})
	viper.SetDefault("grid.learning_rates", []float64{0.001, 0.0005, 0.0001})
	viper.SetDefault("grid.seq_lengths", []int{60, 80, 100})
	viper.SetDefault("grid.dropout_rates", []float64{0.1, 0.2, 0.3})

	viper.SetDefault("data.candles_csv", "data/candles.csv")
}
