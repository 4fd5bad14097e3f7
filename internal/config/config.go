package config

import (
	"log"

	"opsboard/pkg/config"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB       config.DBConfig       `yaml:"db"`
	MQ       config.MQConfig       `yaml:"mq"`
	Redis    config.RedisConfig    `yaml:"redis"`
	Server   config.ServerConfig   `yaml:"server"`
	Otel     config.OtelConfig     `yaml:"otel"`
	Upstream config.UpstreamConfig `yaml:"upstream"`
	Timeline config.TimelineConfig `yaml:"timeline"`
}

func Load() *Config {
	// 使用统一配置中心
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 转换为 Config 结构
	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// 环境变量覆盖（优先级最高）
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideOtelFromEnv(&cfg.Otel)
	config.OverrideUpstreamFromEnv(&cfg.Upstream)

	return &cfg
}
