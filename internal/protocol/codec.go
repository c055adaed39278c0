// codec.go

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnknownType 未知消息类型
	ErrUnknownType = errors.New("未知消息类型")
	// ErrUnsupportedVersion 不支持的消息版本
	ErrUnsupportedVersion = errors.New("不支持的消息版本")
	// ErrInvalidPayload 消息内容不合法
	ErrInvalidPayload = errors.New("消息内容不合法")
)

// MaxNameLength 玩家名最大字符数
const MaxNameLength = 20

// Envelope 消息外壳
type Envelope struct {
	Type    Type            `json:"type"`
	Version int             `json:"v"`
	Payload json.RawMessage `json:"payload"`
}

// Encode 将出站消息编码为JSON外壳
func Encode(msg Outbound) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("编码消息: %w", ErrInvalidPayload)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("编码 %s: %w", msg.OutboundType(), err)
	}
	return json.Marshal(Envelope{
		Type:    msg.OutboundType(),
		Version: Version,
		Payload: payload,
	})
}

// DecodeEnvelope 解析消息外壳，缺省版本号视为当前版本
func DecodeEnvelope(data []byte) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, fmt.Errorf("空消息: %w", ErrInvalidPayload)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("解析外壳: %w", ErrInvalidPayload)
	}
	if env.Version == 0 {
		env.Version = Version
	}
	if env.Version != Version {
		return Envelope{}, fmt.Errorf("版本 %d: %w", env.Version, ErrUnsupportedVersion)
	}
	return env, nil
}

// DecodePayload 按类型解析消息内容，不允许未知字段
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 || bytes.Equal(env.Payload, []byte("null")) {
		return out, fmt.Errorf("%s 缺少payload: %w", env.Type, ErrInvalidPayload)
	}
	dec := json.NewDecoder(bytes.NewReader(env.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("%s: %v: %w", env.Type, err, ErrInvalidPayload)
	}
	return out, nil
}

// DecodeInbound 解析并校验客户端消息
func DecodeInbound(data []byte) (Inbound, error) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeJoin:
		// join 的 payload 可以省略
		if len(env.Payload) == 0 || bytes.Equal(env.Payload, []byte("null")) {
			return Join{}, nil
		}
		msg, err := DecodePayload[Join](env)
		if err != nil {
			return nil, err
		}
		msg.Name = sanitizeName(msg.Name)
		return msg, nil
	case TypeMove:
		raw, err := DecodePayload[struct {
			X     *float64 `json:"x"`
			Y     *float64 `json:"y"`
			Speed *float64 `json:"speed"`
		}](env)
		if err != nil {
			return nil, err
		}
		if raw.X == nil || raw.Y == nil {
			return nil, fmt.Errorf("move 缺少坐标: %w", ErrInvalidPayload)
		}
		msg := Move{X: *raw.X, Y: *raw.Y}
		if raw.Speed != nil {
			msg.Speed = *raw.Speed
		}
		if !finite(msg.X, msg.Y, msg.Speed) {
			return nil, fmt.Errorf("move 数值非法: %w", ErrInvalidPayload)
		}
		return msg, nil
	case TypeShoot:
		raw, err := DecodePayload[struct {
			X    *float64 `json:"x"`
			Y    *float64 `json:"y"`
			DirX *float64 `json:"dirX"`
			DirY *float64 `json:"dirY"`
		}](env)
		if err != nil {
			return nil, err
		}
		if raw.DirX == nil || raw.DirY == nil {
			return nil, fmt.Errorf("shoot 缺少方向: %w", ErrInvalidPayload)
		}
		msg := Shoot{DirX: *raw.DirX, DirY: *raw.DirY}
		if raw.X != nil {
			msg.X = *raw.X
		}
		if raw.Y != nil {
			msg.Y = *raw.Y
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%q: %w", env.Type, ErrUnknownType)
	}
}

// sanitizeName 去除首尾空白与控制字符并截断
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
