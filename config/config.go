// Package config 加载服务配置
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config 服务配置
type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		RateLimit      int           `yaml:"rate_limit"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Console    bool   `yaml:"console"`
	} `yaml:"log"`
	Artifacts struct {
		ModelPath       string `yaml:"model_path"`
		ScalerPath      string `yaml:"scaler_path"`
		ONNXRuntimePath string `yaml:"onnx_runtime_path"`
		Watch           bool   `yaml:"watch"`
	} `yaml:"artifacts"`
}

// Default 默认配置
func Default() *Config {
	var config Config
	config.Http.Port = 8501
	config.Http.Timeout = 30 * time.Second
	config.Http.AllowedOrigins = []string{"*"}
	config.Http.MaxBodyBytes = 1 << 16
	config.Log.Level = "info"
	config.Log.MaxSizeMB = 100
	config.Log.MaxBackups = 3
	config.Log.MaxAgeDays = 28
	config.Log.Console = true
	config.Artifacts.ModelPath = "trained_model.json"
	config.Artifacts.ScalerPath = "scaler.json"
	config.Artifacts.Watch = true
	return &config
}

// Load 读取配置文件，未设置的字段保留默认值。文件不存在时返回默认配置。
func Load(path string) (*Config, error) {
	config := Default()
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Http.RateLimit < 0 {
		return errors.New("http.rate_limit must not be negative")
	}
	if c.Http.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	if c.Artifacts.ModelPath == "" || c.Artifacts.ScalerPath == "" {
		return errors.New("artifacts.model_path and artifacts.scaler_path are required")
	}
	return nil
}
