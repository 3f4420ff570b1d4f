package domain

import "math"

// Resource 资源种类。
type Resource string

const (
	Food  Resource = "food"
	Stone Resource = "stone"
	Iron  Resource = "iron"
	Coal  Resource = "coal"
	Pizza Resource = "pizza"
)

// Resources 固定遍历顺序：余额不足时按这个顺序报告第一个短缺的资源。
var Resources = []Resource{Food, Stone, Iron, Coal, Pizza}

func (r Resource) Valid() bool {
	switch r {
	case Food, Stone, Iron, Coal, Pizza:
		return true
	default:
		return false
	}
}

// Balance 玩家的五种资源余额，任何时刻每一项都 >= 0。
type Balance struct {
	Food  int64 `json:"food" bson:"food"`
	Stone int64 `json:"stone" bson:"stone"`
	Iron  int64 `json:"iron" bson:"iron"`
	Coal  int64 `json:"coal" bson:"coal"`
	Pizza int64 `json:"pizza" bson:"pizza"`
}

func (b Balance) Get(r Resource) int64 {
	switch r {
	case Food:
		return b.Food
	case Stone:
		return b.Stone
	case Iron:
		return b.Iron
	case Coal:
		return b.Coal
	case Pizza:
		return b.Pizza
	default:
		return 0
	}
}

func (b *Balance) set(r Resource, v int64) {
	switch r {
	case Food:
		b.Food = v
	case Stone:
		b.Stone = v
	case Iron:
		b.Iron = v
	case Coal:
		b.Coal = v
	case Pizza:
		b.Pizza = v
	}
}

// Apply 计算叠加 delta 后的余额，不修改接收者。
// 若任一资源会变成负数，返回 ok=false 和第一个短缺的资源。
func (b Balance) Apply(d Delta) (next Balance, short Resource, ok bool) {
	next = b
	for _, r := range Resources {
		v, has := d[r]
		if !has {
			continue
		}
		nv := b.Get(r) + v
		if nv < 0 {
			return b, r, false
		}
		next.set(r, nv)
	}
	return next, "", true
}

// ApplyCapped 只叠加正数部分，每项最多到 limit；已经超过 limit 的项保持不变。
func (b Balance) ApplyCapped(d Delta, limit int64) Balance {
	next := b
	for _, r := range Resources {
		v := d[r]
		if v <= 0 {
			continue
		}
		cur := b.Get(r)
		if cur >= limit {
			continue
		}
		nv := cur + v
		if nv > limit {
			nv = limit
		}
		next.set(r, nv)
	}
	return next
}

// Delta 带符号的资源变化量，负数表示扣除。
type Delta map[Resource]int64

// Cost 把“价格”转换成扣除用的 delta（全部取负）。
type Cost map[Resource]int64

func (c Cost) Debit() Delta {
	d := make(Delta, len(c))
	for r, v := range c {
		d[r] = -v
	}
	return d
}

// Times 按数量放大价格（训练 quantity 个单位）。n < 0 或任一项溢出 int64 时 ok=false。
func (c Cost) Times(n int64) (out Cost, ok bool) {
	if n < 0 {
		return nil, false
	}
	out = make(Cost, len(c))
	for r, v := range c {
		if v != 0 && n > math.MaxInt64/v {
			return nil, false
		}
		out[r] = v * n
	}
	return out, true
}

func (c Cost) clone() Cost {
	out := make(Cost, len(c))
	for r, v := range c {
		out[r] = v
	}
	return out
}

// Refund 把价格转换成返还用的 delta（全部取正）。
func (c Cost) Refund() Delta {
	d := make(Delta, len(c))
	for r, v := range c {
		d[r] = v
	}
	return d
}
