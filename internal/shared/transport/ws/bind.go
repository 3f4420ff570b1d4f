package ws

import (
	"errors"

	"github.com/go-viper/mapstructure/v2"
)

// BindMsg 将 WsMsgReq.Body.Msg（json 解出的 map）解码到目标结构体，按 json tag 匹配字段。
// 数字在 json 里是 float64，开启 WeaklyTypedInput 以便落到 int64 字段。
func BindMsg(req *WsMsgReq, dst any) error {
	if req == nil || req.Body == nil {
		return errors.New("ws request body is nil")
	}
	if req.Body.Msg == nil {
		return errors.New("ws request msg is empty")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(req.Body.Msg)
}
