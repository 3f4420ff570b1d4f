package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "REGNUM"

var (
	hooksMu sync.Mutex
	hooks   []func(Config)
)

// OnChange 注册热更新回调（例如调整日志级别）。回调在 viper 的 watch goroutine 里执行。
func OnChange(fn func(Config)) {
	if fn == nil {
		return
	}
	hooksMu.Lock()
	hooks = append(hooks, fn)
	hooksMu.Unlock()
}

func load(configPath string) (Config, error) {
	if !fileExist(configPath) {
		return Config{}, fmt.Errorf("config file not exist, configPath=%v", configPath)
	}

	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}
	c, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	set(c)

	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			// 变更后的文件解析失败时保留旧配置
			fmt.Fprintf(os.Stderr, "config reload failed, file=%s, err=%v\n", e.Name, err)
			return
		}
		set(next)
		hooksMu.Lock()
		fns := append([]func(Config){}, hooks...)
		hooksMu.Unlock()
		for _, fn := range fns {
			fn(next)
		}
	})
	v.WatchConfig()
	return c, nil
}

// newViper 带默认值和 REGNUM_* 环境变量覆盖，例如 REGNUM_STORE_DRIVER=mongodb。
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("gameserver.host", "0.0.0.0")
	v.SetDefault("gameserver.port", 8080)
	v.SetDefault("grpcserver.host", "0.0.0.0")
	v.SetDefault("grpcserver.port", 9090)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.flush_every_ms", 1000)
	v.SetDefault("mongodb.connect_timeout_s", 3)
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("production.period_s", 60)
	v.SetDefault("production.cap", 10000)
	v.SetDefault("ratelimit.per_second", 10)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("node_id", 1)
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("viper unmarshal config: %w", err)
	}
	return c, nil
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
