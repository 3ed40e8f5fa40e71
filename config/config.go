package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	}
	Providers struct {
		NominatimBaseURL    string        `mapstructure:"nominatimBaseURL"`
		OpenTripMapBaseURL  string        `mapstructure:"opentripmapBaseURL"`
		OverpassEndpoints   []string      `mapstructure:"overpassEndpoints"`
		OpenRouteServiceURL string        `mapstructure:"openrouteserviceURL"`
		GooglePlacesBaseURL string        `mapstructure:"googlePlacesBaseURL"`
		Timeout             time.Duration `mapstructure:"timeout"`
	} `mapstructure:"providers"`
	Planner struct {
		DefaultCurrency        string        `mapstructure:"defaultCurrency"`
		OccupancyPerRoom       int           `mapstructure:"occupancyPerRoom"`
		RouteCacheTTL          time.Duration `mapstructure:"routeCacheTTL"`
		MaxAttractions         int           `mapstructure:"maxAttractions"`
		MaxHotels              int           `mapstructure:"maxHotels"`
		TrainMaxDistanceKm     float64       `mapstructure:"trainMaxDistanceKm"`
		GroundRouteThresholdKm float64       `mapstructure:"groundRouteThresholdKm"`
		RegionCountryCode      string        `mapstructure:"regionCountryCode"`
		Region                 struct {
			MinLat float64 `mapstructure:"minLat"`
			MaxLat float64 `mapstructure:"maxLat"`
			MinLon float64 `mapstructure:"minLon"`
			MaxLon float64 `mapstructure:"maxLon"`
		} `mapstructure:"region"`
	} `mapstructure:"planner"`
	JWT JWTConfig `mapstructure:"jwt"`
}

type JWTConfig struct {
	SecretKey       string        `mapstructure:"secretKey"`
	AccessTokenTTL  time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL time.Duration `mapstructure:"refreshTokenTTL"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
