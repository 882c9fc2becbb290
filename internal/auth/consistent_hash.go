package auth

import (
	"hash/crc32"
	"sort"
	"strconv"
	"sync"
)

// ConsistentHashRing 把令牌分散到一组缓存节点前缀上。
// 节点增减时只有环上相邻区间的键需要迁移，避免缓存整体失效。
type ConsistentHashRing struct {
	mu       sync.RWMutex
	replicas int
	ring     []uint32          // 已排序的虚拟节点位置
	owners   map[uint32]string // 虚拟节点位置 -> 节点名
	nodes    map[string]struct{}
}

// NewConsistentHashRing 创建哈希环。nodes 为空时退化为单节点，replicas 非法时取 50。
func NewConsistentHashRing(nodes []string, replicas int) *ConsistentHashRing {
	if replicas <= 0 {
		replicas = 50
	}
	if len(nodes) == 0 {
		nodes = []string{"auth-node-default"}
	}
	r := &ConsistentHashRing{
		replicas: replicas,
		owners:   make(map[uint32]string),
		nodes:    make(map[string]struct{}),
	}
	r.Add(nodes...)
	return r
}

// Add 添加节点，重复添加同名节点是空操作
func (r *ConsistentHashRing) Add(nodes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range nodes {
		if _, ok := r.nodes[node]; ok {
			continue
		}
		r.nodes[node] = struct{}{}
		for i := 0; i < r.replicas; i++ {
			pos := crc32.ChecksumIEEE([]byte(node + "#" + strconv.Itoa(i)))
			r.ring = append(r.ring, pos)
			r.owners[pos] = node
		}
	}
	sort.Slice(r.ring, func(i, j int) bool { return r.ring[i] < r.ring[j] })
}

// GetNode 返回 key 顺时针方向遇到的第一个节点
func (r *ConsistentHashRing) GetNode(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.ring) == 0 {
		return ""
	}
	pos := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(r.ring), func(i int) bool { return r.ring[i] >= pos })
	if idx == len(r.ring) {
		idx = 0
	}
	return r.owners[r.ring[idx]]
}

// NodeCount 当前真实节点数
func (r *ConsistentHashRing) NodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}
