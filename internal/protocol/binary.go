// binary.go

package protocol

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// 二进制帧使用protobuf线格式，字段号固定：
//
//	Frame      { 1: type string, 2: version varint, 3: repeated Projectile }
//	Projectile { 1: id, 2: owner_id, 3: x, 4: y, 5: dx, 6: dy, 7: speed (double), 8: created_at varint }
const (
	frameType       protowire.Number = 1
	frameVersion    protowire.Number = 2
	frameProjectile protowire.Number = 3

	projID        protowire.Number = 1
	projOwnerID   protowire.Number = 2
	projX         protowire.Number = 3
	projY         protowire.Number = 4
	projDX        protowire.Number = 5
	projDY        protowire.Number = 6
	projSpeed     protowire.Number = 7
	projCreatedAt protowire.Number = 8
)

// EncodeProjectilesBinary 将 projectilesUpdate 编码为二进制帧
func EncodeProjectilesBinary(msg ProjectilesUpdate) []byte {
	b := make([]byte, 0, 32+len(msg.Projectiles)*96)
	b = protowire.AppendTag(b, frameType, protowire.BytesType)
	b = protowire.AppendString(b, string(TypeProjectilesUpdate))
	b = protowire.AppendTag(b, frameVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, Version)

	for i := range msg.Projectiles {
		b = protowire.AppendTag(b, frameProjectile, protowire.BytesType)
		b = protowire.AppendBytes(b, appendProjectile(nil, &msg.Projectiles[i]))
	}
	return b
}

func appendProjectile(b []byte, p *ProjectileInfo) []byte {
	b = protowire.AppendTag(b, projID, protowire.BytesType)
	b = protowire.AppendString(b, p.ID)
	b = protowire.AppendTag(b, projOwnerID, protowire.BytesType)
	b = protowire.AppendString(b, p.OwnerID)
	for _, f := range []struct {
		num protowire.Number
		v   float64
	}{
		{projX, p.X}, {projY, p.Y}, {projDX, p.DX}, {projDY, p.DY}, {projSpeed, p.Speed},
	} {
		b = protowire.AppendTag(b, f.num, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(f.v))
	}
	b = protowire.AppendTag(b, projCreatedAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.CreatedAt))
	return b
}

// DecodeProjectilesBinary 解析二进制 projectilesUpdate 帧，未知字段跳过
func DecodeProjectilesBinary(b []byte) (ProjectilesUpdate, error) {
	msg := ProjectilesUpdate{Projectiles: make([]ProjectileInfo, 0)}
	var msgType string
	version := uint64(0)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return msg, fmt.Errorf("帧标签: %v: %w", protowire.ParseError(n), ErrInvalidPayload)
		}
		b = b[n:]

		switch {
		case num == frameType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return msg, fmt.Errorf("帧类型: %v: %w", protowire.ParseError(n), ErrInvalidPayload)
			}
			msgType = v
			b = b[n:]
		case num == frameVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return msg, fmt.Errorf("帧版本: %v: %w", protowire.ParseError(n), ErrInvalidPayload)
			}
			version = v
			b = b[n:]
		case num == frameProjectile && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return msg, fmt.Errorf("投射物: %v: %w", protowire.ParseError(n), ErrInvalidPayload)
			}
			p, err := consumeProjectile(v)
			if err != nil {
				return msg, err
			}
			msg.Projectiles = append(msg.Projectiles, p)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return msg, fmt.Errorf("未知字段 %d: %v: %w", num, protowire.ParseError(n), ErrInvalidPayload)
			}
			b = b[n:]
		}
	}

	if Type(msgType) != TypeProjectilesUpdate {
		return msg, fmt.Errorf("%q: %w", msgType, ErrUnknownType)
	}
	if version != Version {
		return msg, fmt.Errorf("版本 %d: %w", version, ErrUnsupportedVersion)
	}
	return msg, nil
}

func consumeProjectile(b []byte) (ProjectileInfo, error) {
	var p ProjectileInfo
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, fmt.Errorf("投射物标签: %v: %w", protowire.ParseError(n), ErrInvalidPayload)
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return p, fmt.Errorf("投射物字段 %d: %w", num, ErrInvalidPayload)
			}
			switch num {
			case projID:
				p.ID = v
			case projOwnerID:
				p.OwnerID = v
			}
			b = b[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return p, fmt.Errorf("投射物字段 %d: %w", num, ErrInvalidPayload)
			}
			f := math.Float64frombits(v)
			switch num {
			case projX:
				p.X = f
			case projY:
				p.Y = f
			case projDX:
				p.DX = f
			case projDY:
				p.DY = f
			case projSpeed:
				p.Speed = f
			}
			b = b[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return p, fmt.Errorf("投射物字段 %d: %w", num, ErrInvalidPayload)
			}
			if num == projCreatedAt {
				p.CreatedAt = int64(v)
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return p, fmt.Errorf("投射物字段 %d: %w", num, ErrInvalidPayload)
			}
			b = b[n:]
		}
	}
	return p, nil
}
