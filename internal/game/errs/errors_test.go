package errs

import (
	"errors"
	"testing"

	"Regnum/modules/kit/errx"
)

func TestWrap_nil不包装(t *testing.T) {
	if Wrap("op", KindInfra, nil, nil) != nil {
		t.Fatalf("期望 nil")
	}
}

func TestWrap_保留根因与分类(t *testing.T) {
	root := errors.New("dial tcp: timeout")
	err := Wrap("repo.mongo.Save", KindInfra, root, map[string]any{"collection": "players"})
	if !errors.Is(err, root) {
		t.Fatalf("期望可以 errors.Is 到根因")
	}
	if KindOf(err) != KindInfra {
		t.Fatalf("期望 KindInfra, got=%s", KindOf(err))
	}
	if err.Error() != "repo.mongo.Save: dial tcp: timeout" {
		t.Fatalf("期望带 op 前缀, got=%s", err.Error())
	}
}

func TestToSys_转换为系统错误(t *testing.T) {
	err := ToSys(Wrap("repo.mysql.Load", KindInfra, errors.New("boom"), map[string]any{"table": "players"}))
	if !errors.Is(err, ErrStorage) || errx.IsBiz(err) {
		t.Fatalf("期望系统错误 %s, got=%v", CodeStorage, err)
	}
	var xe *errx.Error
	if !errors.As(err, &xe) || xe.Data()["op"] != "repo.mysql.Load" || xe.Data()["table"] != "players" {
		t.Fatalf("期望 data 带上 op/meta, got=%v", xe.Data())
	}
	biz := errx.NewBiz("X", "x")
	if ToSys(biz) != error(biz) {
		t.Fatalf("期望 errx 错误原样返回")
	}
}
