package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Service Service `yaml:"service"`
	Server  Server  `yaml:"server"`
}

type Service struct {
	FQDN       string `yaml:"fqdn"`
	ListenAddr string `yaml:"listenAddr"`
}

type Server struct {
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Service.ListenAddr == "" {
		config.Service.ListenAddr = ":8000"
	}

	return config, nil
}
