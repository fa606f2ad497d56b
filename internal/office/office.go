// Package office 提供办公室（市场）注册表
package office

import (
	"context"
	"errors"
	"sync"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/engine/calendar"
)

var (
	ErrOfficeNotFound = errors.New("办公室不存在")
	ErrInvalidOffice  = errors.New("无效的办公室")
	ErrOfficeDisabled = errors.New("办公室已停用")
)

// Office 办公室（一个车队市场，如 LAX、SEA）
type Office struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Region   string   `json:"region"`
	Status   string   `json:"status"` // active/suspended
	Settings Settings `json:"settings"`
}

// Settings 办公室级排程设置
type Settings struct {
	WeekdaySlots     int      `json:"weekday_slots"`       // 无显式日历行时的工作日起租位
	WeekendSlots     int      `json:"weekend_slots"`       // 周末起租位
	PerPartnerPerDay int      `json:"per_partner_per_day"` // 每合作方每日上限
	Features         []string `json:"features"`            // 启用的功能
}

// IsActive 检查办公室是否启用
func (o *Office) IsActive() bool {
	return o.Status == "active"
}

// HasFeature 检查办公室是否启用某功能
func (o *Office) HasFeature(feature string) bool {
	for _, f := range o.Settings.Features {
		if f == feature || f == "*" {
			return true
		}
	}
	return false
}

// Registry 办公室注册表
type Registry struct {
	offices map[string]*Office // code -> office
	mu      sync.RWMutex
}

// NewRegistry 创建办公室注册表
func NewRegistry() *Registry {
	return &Registry{offices: make(map[string]*Office)}
}

// Register 注册办公室
func (r *Registry) Register(o *Office) error {
	if o == nil || o.Code == "" {
		return ErrInvalidOffice
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.offices[o.Code] = o
	return nil
}

// Get 获取办公室
func (r *Registry) Get(code string) (*Office, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, exists := r.offices[code]
	if !exists {
		return nil, ErrOfficeNotFound
	}
	if !o.IsActive() {
		return nil, ErrOfficeDisabled
	}
	return o, nil
}

// List 列出所有办公室
func (r *Registry) List() []*Office {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Office, 0, len(r.offices))
	for _, o := range r.offices {
		result = append(result, o)
	}
	return result
}

// Remove 移除办公室
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.offices, code)
}

// CalendarDefaults 导出全部启用办公室的容量日历默认值
func (r *Registry) CalendarDefaults() map[string]calendar.Defaults {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defaults := make(map[string]calendar.Defaults, len(r.offices))
	for code, o := range r.offices {
		if !o.IsActive() {
			continue
		}
		defaults[code] = calendar.Defaults{
			WeekdaySlots: o.Settings.WeekdaySlots,
			WeekendSlots: o.Settings.WeekendSlots,
		}
	}
	return defaults
}

type officeContextKey struct{}

// WithOffice 将办公室添加到上下文
func WithOffice(ctx context.Context, o *Office) context.Context {
	return context.WithValue(ctx, officeContextKey{}, o)
}

// FromContext 从上下文获取办公室
func FromContext(ctx context.Context) (*Office, bool) {
	o, ok := ctx.Value(officeContextKey{}).(*Office)
	return o, ok
}

// DefaultSettings 默认办公室设置
func DefaultSettings() Settings {
	return Settings{
		WeekdaySlots:     2,
		WeekendSlots:     0,
		PerPartnerPerDay: 1,
		Features:         []string{"schedule", "diagnose", "stats"},
	}
}

// CreateDefaultOffice 创建默认办公室（开发测试用）
func CreateDefaultOffice() *Office {
	return &Office{
		Code:     "LAX",
		Name:     "洛杉矶",
		Region:   "west",
		Status:   "active",
		Settings: DefaultSettings(),
	}
}
