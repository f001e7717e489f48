package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	MqttCfg       *MqttConfig
	DatabaseURL   string
	MigrationsDir string
	ListenAddr    string
	APITokenHash  string
	LogLevel      string
}

type MqttConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Tuning   BrokerTuning
}

// BrokerTuning carries the broker settings that rarely change per
// deployment. They are read straight from the environment.
type BrokerTuning struct {
	ClientID        string        `env:"MQTT_CLIENT_ID" envDefault:"homie-adapter"`
	QoS             byte          `env:"MQTT_QOS" envDefault:"1"`
	KeepAlive       time.Duration `env:"MQTT_KEEP_ALIVE" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"MQTT_WRITE_TIMEOUT" envDefault:"10s"`
	CleanSession    bool          `env:"MQTT_CLEAN_SESSION" envDefault:"true"`
	OrderedDelivery bool          `env:"MQTT_ORDERED_DELIVERY" envDefault:"true"`
}

// TuningFromEnv parses the broker tuning settings from the environment.
func TuningFromEnv() (BrokerTuning, error) {
	var tuning BrokerTuning
	if err := env.Parse(&tuning); err != nil {
		return BrokerTuning{}, err
	}
	return tuning, nil
}
