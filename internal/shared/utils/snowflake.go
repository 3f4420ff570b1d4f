package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// 2024-01-01 00:00:00 UTC
	snowflakeEpochMilli int64 = 1704067200000

	nodeBits uint8 = 10
	seqBits  uint8 = 12

	maxNodeID int64 = -1 ^ (-1 << nodeBits)
	maxSeq    int64 = -1 ^ (-1 << seqBits)

	nodeShift uint8 = seqBits
	timeShift uint8 = nodeBits + seqBits
)

// Snowflake 41 位毫秒 | 10 位节点 | 12 位序号。建筑/军队/结盟/战争的 id 都由它分配。
type Snowflake struct {
	mu     sync.Mutex
	nodeID int64
	lastTS int64
	seq    int64
	now    func() time.Time
}

func NewSnowflake(nodeID int64) (*Snowflake, error) {
	return newSnowflake(nodeID, time.Now)
}

func newSnowflake(nodeID int64, now func() time.Time) (*Snowflake, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, fmt.Errorf("snowflake node id out of range: %d", nodeID)
	}
	return &Snowflake{nodeID: nodeID, now: now}, nil
}

// NextID 时钟回拨时沿用上一次的毫秒，序号用完则等到下一毫秒。
func (s *Snowflake) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli()
	if ts < s.lastTS {
		ts = s.lastTS
	}
	if ts == s.lastTS {
		s.seq = (s.seq + 1) & maxSeq
		if s.seq == 0 {
			for ts <= s.lastTS {
				ts = s.now().UnixMilli()
			}
		}
	} else {
		s.seq = 0
	}
	s.lastTS = ts
	return ((ts - snowflakeEpochMilli) << timeShift) | (s.nodeID << nodeShift) | s.seq
}

// SnowflakeTime 取出 id 里的生成时间（毫秒精度）。
func SnowflakeTime(id int64) time.Time {
	return time.UnixMilli((id >> timeShift) + snowflakeEpochMilli)
}

// SnowflakeNode 取出 id 里的节点号。
func SnowflakeNode(id int64) int64 {
	return (id >> nodeShift) & maxNodeID
}

var defaultSnowflake = sync.OnceValues(func() (*Snowflake, error) {
	nodeID := int64(1)
	if raw := strings.TrimSpace(os.Getenv("REGNUM_NODE_ID")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid REGNUM_NODE_ID: %w", err)
		}
		nodeID = parsed
	}
	return NewSnowflake(nodeID)
})

// DefaultSnowflake 进程级生成器，节点号取 REGNUM_NODE_ID（默认 1）。
func DefaultSnowflake() (*Snowflake, error) {
	return defaultSnowflake()
}
