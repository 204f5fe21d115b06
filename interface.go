package gasmsg

import (
	"github.com/dzm2020/gasmsg/internal/config"
	"github.com/dzm2020/gasmsg/pkg/glog"
	"github.com/dzm2020/gasmsg/pkg/rtti"

	"go.uber.org/zap"
)

// RegisterFunc 启动阶段的类型注册函数
type RegisterFunc func(r *rtti.Registry) error

// Setup 读取配置文件并初始化日志和类型注册表
func Setup(path string, regs ...RegisterFunc) (*rtti.Registry, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return SetupWithConfig(cfg, regs...)
}

// SetupWithConfig 按配置初始化，cfg 为 nil 时使用默认配置
// 内置类型先于 regs 注册，配置要求封存时在 regs 全部完成后封存
func SetupWithConfig(cfg *config.Config, regs ...RegisterFunc) (*rtti.Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	glog.Init(&cfg.Glog)

	r := rtti.New()
	if cfg.Registry.Builtins {
		if err := rtti.RegisterBuiltins(r); err != nil {
			return nil, err
		}
	}
	for _, reg := range regs {
		if err := reg(r); err != nil {
			glog.Error("gasmsg: 注册类型失败", zap.Error(err))
			return nil, err
		}
	}
	if cfg.Registry.Seal {
		r.Seal()
	}
	glog.Info("gasmsg: 初始化完成", zap.Int("types", r.Len()), zap.Bool("sealed", r.Sealed()))
	return r, nil
}
