package commission

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownSalesCode = errors.New("unknown sales code")

// Resolution 销售码的层级解析结果
type Resolution struct {
	Role   Role
	Agent  Agent
	Parent *Agent
	// DanglingParent 二级销售配置了上级，但上级不在一级销售表中
	DanglingParent string
}

// Resolver 只支持一级 -> 二级两层结构
type Resolver struct {
	primaries   map[string]Agent
	secondaries map[string]Agent
}

func NewResolver(agents []Agent) *Resolver {
	r := &Resolver{
		primaries:   make(map[string]Agent),
		secondaries: make(map[string]Agent),
	}
	for _, a := range agents {
		code := strings.TrimSpace(a.SalesCode)
		if code == "" {
			continue
		}
		a.SalesCode = code
		a.ParentCode = strings.TrimSpace(a.ParentCode)

		target := r.secondaries
		if a.Tier == TierPrimary {
			target = r.primaries
		}
		// 同表内重复的销售码以先出现的为准
		if _, exists := target[code]; !exists {
			target[code] = a
		}
	}
	return r
}

// Resolve 先查一级销售表，再查二级销售表
func (r *Resolver) Resolve(salesCode string) (Resolution, error) {
	code := strings.TrimSpace(salesCode)

	if a, ok := r.primaries[code]; ok {
		return Resolution{Role: RolePrimary, Agent: a}, nil
	}

	a, ok := r.secondaries[code]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownSalesCode, salesCode)
	}

	if a.ParentCode == "" {
		return Resolution{Role: RoleSecondaryIndependent, Agent: a}, nil
	}

	parent, ok := r.primaries[a.ParentCode]
	if !ok {
		return Resolution{Role: RoleSecondaryIndependent, Agent: a, DanglingParent: a.ParentCode}, nil
	}
	return Resolution{Role: RoleSecondaryLinked, Agent: a, Parent: &parent}, nil
}
