package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ============================================================================
// 雪花算法 ID 生成器
// ============================================================================
//
// 发放流水号、消息 key 都需要全局唯一且趋势递增，多实例部署时每个实例配置不同的 node_id。
//
// 底层为 bwmarrin/snowflake：41位时间戳 - 10位节点ID - 12位序列号
//
// ============================================================================

var (
	node *snowflake.Node
	mu   sync.Mutex
)

func init() {
	// 2024-01-01 00:00:00 UTC
	snowflake.Epoch = 1704067200000
}

// Init 初始化节点，nodeID 必须在 0-1023 之间
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("初始化 ID 生成器失败: %w", err)
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// NextID 生成下一个ID，未初始化时使用节点 1
func NextID() int64 {
	mu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	n := node
	mu.Unlock()
	return n.Generate().Int64()
}

// GeneratePayoutNo 生成佣金发放流水号
// 格式：CMP + 年月日时分秒 + 雪花ID后8位
func GeneratePayoutNo() string {
	id := NextID()
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("CMP%s%08d", timestamp, id%100000000)
}

// GenerateEventKey 生成消息 key，同一业务对象的事件带上对象编号便于分区有序
func GenerateEventKey(subject string) string {
	return fmt.Sprintf("%s-%d", subject, NextID())
}
