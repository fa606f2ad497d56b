package constraint

import (
	"strings"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// UsageKey (合作方, 品牌) 用量键
type UsageKey struct {
	PartnerID uuid.UUID
	Make      string
}

// Context 选择上下文
// 约束评估的全部状态：打分三元组、当前布尔选择、以及随选择增量维护的账本
// 运行级对象，不跨运行共享；并发搜索时每个工作者持有自己的 Clone
type Context struct {
	Office    string
	WeekStart string

	// 候选三元组，按可行性生成器的确定性顺序
	Triples []model.ScoredTriple

	// 当前选择
	Selected []bool

	// 每日起租位（已从容量日历解析）
	DaySlots map[string]int

	// 滚动12个月的历史用量（按合作方×品牌）
	HistoricalUsage map[UsageKey]int

	// 等级上限规则表
	Caps *CapTable

	// 按品牌的季度剩余预算与单次分配成本估算
	BudgetRemaining map[string]float64
	CostPerLoan     float64

	// 增量账本
	vinCount     map[string]int
	dayCount     map[string]int
	newUsage     map[UsageKey]int
	partnerCount map[uuid.UUID]int
	fleetSpend   map[string]float64
	numSelected  int
}

// NewContext 创建选择上下文
func NewContext(office, weekStart string, triples []model.ScoredTriple) *Context {
	return &Context{
		Office:          office,
		WeekStart:       weekStart,
		Triples:         triples,
		Selected:        make([]bool, len(triples)),
		DaySlots:        make(map[string]int),
		HistoricalUsage: make(map[UsageKey]int),
		BudgetRemaining: make(map[string]float64),
		vinCount:        make(map[string]int),
		dayCount:        make(map[string]int),
		newUsage:        make(map[UsageKey]int),
		partnerCount:    make(map[uuid.UUID]int),
		fleetSpend:      make(map[string]float64),
	}
}

// Select 选中第 i 个三元组并更新账本
func (c *Context) Select(i int) {
	if c.Selected[i] {
		return
	}
	c.Selected[i] = true
	t := &c.Triples[i]
	c.vinCount[t.VIN]++
	c.dayCount[t.StartDay]++
	c.newUsage[UsageKey{PartnerID: t.PartnerID, Make: t.Make}]++
	c.partnerCount[t.PartnerID]++
	c.fleetSpend[t.Make] += c.CostPerLoan
	c.numSelected++
}

// Unselect 取消选中第 i 个三元组并更新账本
func (c *Context) Unselect(i int) {
	if !c.Selected[i] {
		return
	}
	c.Selected[i] = false
	t := &c.Triples[i]
	c.vinCount[t.VIN]--
	c.dayCount[t.StartDay]--
	c.newUsage[UsageKey{PartnerID: t.PartnerID, Make: t.Make}]--
	c.partnerCount[t.PartnerID]--
	c.fleetSpend[t.Make] -= c.CostPerLoan
	c.numSelected--
}

// IsSelected 查询第 i 个三元组是否选中
func (c *Context) IsSelected(i int) bool {
	return c.Selected[i]
}

// NumSelected 返回当前选中数
func (c *Context) NumSelected() int {
	return c.numSelected
}

// VINCount 返回某VIN当前被选中的次数
func (c *Context) VINCount(vin string) int {
	return c.vinCount[vin]
}

// DayCount 返回某日当前的起租数
func (c *Context) DayCount(date string) int {
	return c.dayCount[date]
}

// NewUsage 返回本次运行新增的 (合作方, 品牌) 用量
func (c *Context) NewUsage(k UsageKey) int {
	return c.newUsage[k]
}

// TotalUsage 返回历史加本次的 (合作方, 品牌) 总用量
func (c *Context) TotalUsage(k UsageKey) int {
	return c.HistoricalUsage[k] + c.newUsage[k]
}

// PartnerCount 返回某合作方本周被选中的分配数
func (c *Context) PartnerCount(id uuid.UUID) int {
	return c.partnerCount[id]
}

// FleetSpend 返回某品牌本次运行的新增开销
func (c *Context) FleetSpend(make string) float64 {
	return c.fleetSpend[make]
}

// SelectedScore 返回当前选中三元组的总分
func (c *Context) SelectedScore() int {
	total := 0
	for i := range c.Triples {
		if c.Selected[i] {
			total += c.Triples[i].Score
		}
	}
	return total
}

// SelectedIndexes 返回当前选中的三元组下标（升序）
func (c *Context) SelectedIndexes() []int {
	idx := make([]int, 0, c.numSelected)
	for i := range c.Selected {
		if c.Selected[i] {
			idx = append(idx, i)
		}
	}
	return idx
}

// SelectionKey 返回当前选择的字典序键，用于并发搜索的确定性裁决
func (c *Context) SelectionKey() string {
	var b strings.Builder
	for _, i := range c.SelectedIndexes() {
		t := &c.Triples[i]
		b.WriteString(t.StartDay)
		b.WriteByte('|')
		b.WriteString(t.VIN)
		b.WriteByte('|')
		b.WriteString(t.PartnerID.String())
		b.WriteByte(';')
	}
	return b.String()
}

// Clone 深拷贝上下文供并发工作者使用
// 共享只读输入（三元组、历史用量、规则表），拷贝选择状态和账本
func (c *Context) Clone() *Context {
	n := &Context{
		Office:          c.Office,
		WeekStart:       c.WeekStart,
		Triples:         c.Triples,
		Selected:        make([]bool, len(c.Selected)),
		DaySlots:        c.DaySlots,
		HistoricalUsage: c.HistoricalUsage,
		Caps:            c.Caps,
		BudgetRemaining: c.BudgetRemaining,
		CostPerLoan:     c.CostPerLoan,
		vinCount:        make(map[string]int, len(c.vinCount)),
		dayCount:        make(map[string]int, len(c.dayCount)),
		newUsage:        make(map[UsageKey]int, len(c.newUsage)),
		partnerCount:    make(map[uuid.UUID]int, len(c.partnerCount)),
		fleetSpend:      make(map[string]float64, len(c.fleetSpend)),
		numSelected:     c.numSelected,
	}
	copy(n.Selected, c.Selected)
	for k, v := range c.vinCount {
		n.vinCount[k] = v
	}
	for k, v := range c.dayCount {
		n.dayCount[k] = v
	}
	for k, v := range c.newUsage {
		n.newUsage[k] = v
	}
	for k, v := range c.partnerCount {
		n.partnerCount[k] = v
	}
	for k, v := range c.fleetSpend {
		n.fleetSpend[k] = v
	}
	return n
}

// Reset 清空选择状态
func (c *Context) Reset() {
	for i := range c.Selected {
		c.Selected[i] = false
	}
	c.vinCount = make(map[string]int)
	c.dayCount = make(map[string]int)
	c.newUsage = make(map[UsageKey]int)
	c.partnerCount = make(map[uuid.UUID]int)
	c.fleetSpend = make(map[string]float64)
	c.numSelected = 0
}
