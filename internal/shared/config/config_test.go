package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
log:
  level: debug
store:
  driver: mongodb
  flush_every_ms: 250
mongodb:
  uri: mongodb://127.0.0.1:27017
  database: regnum
production:
  period_s: 30
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "configs"), 0o755); err != nil {
		t.Fatalf("mkdir err=%v", err)
	}
	path := filepath.Join(dir, defaultConfigRelPath)
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write err=%v", err)
	}
	return dir
}

func TestLoad_读取文件并补默认值(t *testing.T) {
	dir := writeSample(t)

	c, err := Load(filepath.Join(dir, defaultConfigRelPath))
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if c.Store.Driver != "mongodb" || c.Store.FlushEveryMS != 250 {
		t.Fatalf("期望读取 store 配置, got=%+v", c.Store)
	}
	if c.Production.PeriodS != 30 || c.Production.Cap != 10000 {
		t.Fatalf("期望 period_s=30 且 cap 默认 10000, got=%+v", c.Production)
	}
	if c.GameServer.Port != 8080 {
		t.Fatalf("期望 gameserver.port 默认 8080, got=%d", c.GameServer.Port)
	}
	if Current().Store.Driver != "mongodb" {
		t.Fatalf("期望 Current 返回最近一次加载的配置")
	}
}

func TestLoad_环境变量覆盖(t *testing.T) {
	dir := writeSample(t)
	t.Setenv("REGNUM_STORE_DRIVER", "mysql")

	c, err := Load(filepath.Join(dir, defaultConfigRelPath))
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if c.Store.Driver != "mysql" {
		t.Fatalf("期望 REGNUM_STORE_DRIVER 覆盖文件配置, got=%q", c.Store.Driver)
	}
}

func TestFindConfigUpward_向上查找(t *testing.T) {
	dir := writeSample(t)
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir err=%v", err)
	}

	got, err := findConfigUpward(nested)
	if err != nil {
		t.Fatalf("findConfigUpward err=%v", err)
	}
	if got != filepath.Join(dir, defaultConfigRelPath) {
		t.Fatalf("期望找到上层 configs/conf.yml, got=%q", got)
	}
}

func TestFindConfigUpward_找不到返回错误(t *testing.T) {
	if _, err := findConfigUpward(t.TempDir()); err == nil {
		t.Fatalf("期望找不到配置时返回错误")
	}
}
