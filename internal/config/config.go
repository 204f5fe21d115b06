package config

import (
	"os"
	"path/filepath"

	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/glog"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config 消息核心配置
type Config struct {
	// Glog 日志配置
	Glog glog.Config `json:"glog" yaml:"glog" mapstructure:"glog"`
	// Registry 类型注册表配置
	Registry RegistryConfig `json:"registry" yaml:"registry" mapstructure:"registry"`
}

type RegistryConfig struct {
	// Builtins 是否按固定顺序注册内置类型
	Builtins bool `json:"builtins" yaml:"builtins" mapstructure:"builtins"`
	// Seal 初始化完成后封存注册表，之后的注册返回错误
	Seal bool `json:"seal" yaml:"seal" mapstructure:"seal"`
}

// Default 生成默认配置
func Default() *Config {
	return &Config{
		Glog: *glog.DefaultConfig(),
		Registry: RegistryConfig{
			Builtins: true,
		},
	}
}

// Load 读取配置文件（按扩展名识别 yaml/json，无扩展名按 yaml），文件中缺省的字段保留默认值
func Load(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		vp.SetConfigType("yaml")
	}
	if err := vp.ReadInConfig(); err != nil {
		return nil, errs.ErrReadConfigFileFailed(err)
	}
	cfg := Default()
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, errs.ErrUnmarshalConfigFailed(err)
	}
	return cfg, nil
}

// Save 以 yaml 格式写出配置
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errs.ErrWriteConfigFileFailed(err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return errs.ErrWriteConfigFileFailed(err)
	}
	return nil
}
