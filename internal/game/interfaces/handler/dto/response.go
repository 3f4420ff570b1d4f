package dto

import "Regnum/internal/shared/transport"

func Success(code int, data any) transport.Response {
	return transport.Response{Code: code, Msg: "ok", Data: data}
}

func Error(code int, msg string) transport.Response {
	return transport.Response{Code: code, Msg: msg}
}
