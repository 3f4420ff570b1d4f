package db

import (
	"testing"

	"Regnum/internal/shared/config"
)

func TestDSN_默认字符集(t *testing.T) {
	got := DSN(config.MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Password: "pw", DBName: "regnum"})
	want := "root:pw@tcp(127.0.0.1:3306)/regnum?charset=utf8mb4&parseTime=True&loc=Local"
	if got != want {
		t.Fatalf("期望 DSN=%q, got=%q", want, got)
	}
}
