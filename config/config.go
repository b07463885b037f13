package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"jwt"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	OTP struct {
		TTLMinutes      int `mapstructure:"ttl_minutes"`
		CooldownSeconds int `mapstructure:"cooldown_seconds"`
	} `mapstructure:"otp"`
	SMS struct {
		Provider string `mapstructure:"provider"`
	} `mapstructure:"sms"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	// Sensible fallbacks for the verification flow so a missing section
	// does not silently produce zero TTLs.
	viper.SetDefault("otp.ttl_minutes", 5)
	viper.SetDefault("otp.cooldown_seconds", 60)
	viper.SetDefault("sms.provider", "log")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
