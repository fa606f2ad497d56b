package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// PartnerRepository 媒体合作方仓储
type PartnerRepository struct {
	db DB
}

// NewPartnerRepository 创建合作方仓储
func NewPartnerRepository(db DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// ListByOffice 查询某办公室的合作方及其品牌审批
func (r *PartnerRepository) ListByOffice(ctx context.Context, office string) ([]model.Partner, error) {
	query := `
		SELECT id, name, office,
			COALESCE(service_region, '[]'), COALESCE(allowed_start_weekdays, '[]'),
			created_at, updated_at
		FROM partners
		WHERE office = $1 AND deleted_at IS NULL
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, office)
	if err != nil {
		return nil, fmt.Errorf("查询合作方失败: %w", err)
	}
	defer rows.Close()

	var partners []model.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range partners {
		approvals, err := r.approvals(ctx, partners[i].ID)
		if err != nil {
			return nil, err
		}
		partners[i].Approvals = approvals
	}

	return partners, nil
}

// approvals 查询单个合作方的品牌审批表（make → 等级排名）
func (r *PartnerRepository) approvals(ctx context.Context, partnerID uuid.UUID) (map[string]string, error) {
	query := `
		SELECT make, COALESCE(rank, '')
		FROM partner_approvals
		WHERE partner_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, partnerID)
	if err != nil {
		return nil, fmt.Errorf("查询品牌审批失败: %w", err)
	}
	defer rows.Close()

	approvals := make(map[string]string)
	for rows.Next() {
		var make, rank string
		if err := rows.Scan(&make, &rank); err != nil {
			return nil, fmt.Errorf("扫描审批行失败: %w", err)
		}
		approvals[make] = rank
	}

	return approvals, rows.Err()
}

// scanPartner 扫描合作方行
func scanPartner(s Scanner) (*model.Partner, error) {
	var p model.Partner
	var regionJSON, weekdaysJSON []byte

	if err := s.Scan(&p.ID, &p.Name, &p.Office,
		&regionJSON, &weekdaysJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("扫描合作方行失败: %w", err)
	}

	if err := json.Unmarshal(regionJSON, &p.ServiceRegion); err != nil {
		p.ServiceRegion = nil
	}
	var weekdays []int
	if err := json.Unmarshal(weekdaysJSON, &weekdays); err == nil {
		for _, w := range weekdays {
			p.AllowedStartWeekdays = append(p.AllowedStartWeekdays, time.Weekday(w))
		}
	}

	return &p, nil
}
