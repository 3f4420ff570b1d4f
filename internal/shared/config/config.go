package config

import (
	"os"
	"path/filepath"
	"sync"
)

const defaultConfigRelPath = "configs/conf.yml"

var (
	mu   sync.RWMutex
	conf Config
)

// Load 加载配置并开启热更新，返回首次加载的结果。
// 约定：
// 1) 传入 cfgName（相对/绝对路径）则优先使用；
// 2) 否则从当前目录开始向上查找 `configs/conf.yml`。
func Load(cfgName string) (Config, error) {
	path, err := resolve(cfgName)
	if err != nil {
		return Config{}, err
	}
	return load(path)
}

// Current 返回当前生效的配置副本（热更新后会变化）。
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return conf
}

func set(c Config) {
	mu.Lock()
	conf = c
	mu.Unlock()
}

func resolve(cfgName string) (string, error) {
	if cfgName != "" {
		if filepath.IsAbs(cfgName) {
			return cfgName, nil
		}
		curDir, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(curDir, cfgName), nil
	}
	curDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findConfigUpward(curDir)
}

func findConfigUpward(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, defaultConfigRelPath)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &NotFoundError{From: startDir}
		}
		dir = parent
	}
}

type NotFoundError struct {
	From string
}

func (e *NotFoundError) Error() string {
	return "config file not exist, searched " + defaultConfigRelPath + " from: " + e.From
}
