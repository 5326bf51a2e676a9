package naming

import (
	"encoding/binary"
	"hash/fnv"
	"sync"

	"github.com/John-Robertt/imgren/internal/domain"
)

// ComputePlan 为每个条目生成目标名，保持输入顺序。
//
// 纯函数：任何配置变化都整体重算，不做增量 diff。
func ComputePlan(entries []domain.SourceEntry, cfg domain.NamingConfig) []domain.PlanEntry {
	plan := make([]domain.PlanEntry, len(entries))
	for i, e := range entries {
		plan[i] = domain.PlanEntry{
			Source:        e,
			SequenceIndex: cfg.StartIndex + i,
			GeneratedName: GenerateName(e, i, cfg),
		}
	}
	return plan
}

// Planner 是 ComputePlan 的单槽缓存，key 为 (entries 指纹, config)。
// 除此之外不保存任何状态；返回值总是副本，调用方可随意修改。
type Planner struct {
	mu   sync.Mutex
	key  planKey
	plan []domain.PlanEntry
	ok   bool
}

type planKey struct {
	n   int
	fp  uint64
	cfg domain.NamingConfig
}

func NewPlanner() *Planner {
	return &Planner{}
}

func (p *Planner) Plan(entries []domain.SourceEntry, cfg domain.NamingConfig) []domain.PlanEntry {
	k := planKey{n: len(entries), fp: fingerprint(entries), cfg: cfg}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ok || p.key != k {
		p.plan = ComputePlan(entries, cfg)
		p.key = k
		p.ok = true
	}
	return append([]domain.PlanEntry(nil), p.plan...)
}

func fingerprint(entries []domain.SourceEntry) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, e := range entries {
		_, _ = h.Write([]byte(e.OriginalName))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(e.Extension))
		_, _ = h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(e.LastModified))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
