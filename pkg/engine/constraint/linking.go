package constraint

// PenaltyModel 软约束惩罚建模辅助
// 为"多个选择变量同时为真"这类关系引入辅助布尔变量，采用标准的与(AND)线性化：
//   aux ≤ 每个操作数
//   aux ≥ Σ操作数 − n + 1
// 等级上限和公平性惩罚项共用这一原语
type PenaltyModel struct {
	links [][]int // 辅助变量 -> 操作数三元组下标
}

// NewPenaltyModel 创建惩罚建模辅助
func NewPenaltyModel() *PenaltyModel {
	return &PenaltyModel{links: make([][]int, 0)}
}

// AndLink 建立一个与若干选择变量关联的辅助变量，返回其编号
func (m *PenaltyModel) AndLink(operands ...int) int {
	ops := make([]int, len(operands))
	copy(ops, operands)
	m.links = append(m.links, ops)
	return len(m.links) - 1
}

// AuxValue 在给定选择下求辅助变量的取值
// 布尔域上线性化的两条不等式恰好把 aux 钉在所有操作数的与上
func (m *PenaltyModel) AuxValue(aux int, selected []bool) bool {
	if aux < 0 || aux >= len(m.links) {
		return false
	}
	sum := 0
	for _, op := range m.links[aux] {
		if op < 0 || op >= len(selected) || !selected[op] {
			return false // aux ≤ 操作数
		}
		sum++
	}
	return sum >= len(m.links[aux]) // aux ≥ Σ − n + 1
}

// CountActive 统计取值为真的辅助变量数
func (m *PenaltyModel) CountActive(selected []bool) int {
	n := 0
	for aux := range m.links {
		if m.AuxValue(aux, selected) {
			n++
		}
	}
	return n
}

// Len 返回辅助变量数
func (m *PenaltyModel) Len() int {
	return len(m.links)
}

// Operands 返回某辅助变量的操作数下标
func (m *PenaltyModel) Operands(aux int) []int {
	if aux < 0 || aux >= len(m.links) {
		return nil
	}
	return m.links[aux]
}
