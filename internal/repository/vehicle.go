package repository

import (
	"context"
	"fmt"

	"github.com/aininja-pro/media-scheduler-sub000/pkg/model"
)

// VehicleRepository 车辆仓储
type VehicleRepository struct {
	db DB
}

// NewVehicleRepository 创建车辆仓储
func NewVehicleRepository(db DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// ListByOffice 查询某办公室的全部在册车辆
func (r *VehicleRepository) ListByOffice(ctx context.Context, office string) ([]model.Vehicle, error) {
	query := `
		SELECT vin, make, model, office,
			COALESCE(class, ''), COALESCE(powertrain, ''),
			to_char(in_service, 'YYYY-MM-DD'), to_char(turn_in, 'YYYY-MM-DD')
		FROM vehicles
		WHERE office = $1 AND deleted_at IS NULL
		ORDER BY vin
	`

	rows, err := r.db.QueryContext(ctx, query, office)
	if err != nil {
		return nil, fmt.Errorf("查询车辆失败: %w", err)
	}
	defer rows.Close()

	var vehicles []model.Vehicle
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.VIN, &v.Make, &v.Model, &v.Office,
			&v.Class, &v.Powertrain, &v.InService, &v.TurnIn); err != nil {
			return nil, fmt.Errorf("扫描车辆行失败: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, rows.Err()
}

// AvailabilityGrid 加载某办公室在日期范围内的可用性网格
// 网格语义是"该日起整个贷出窗口是否不被打断"，由上游预计算写入
func (r *VehicleRepository) AvailabilityGrid(ctx context.Context, office, startDate, endDate string) (model.AvailabilityGrid, error) {
	query := `
		SELECT a.vin, to_char(a.date, 'YYYY-MM-DD'), a.available
		FROM vehicle_availability a
		JOIN vehicles v ON v.vin = a.vin
		WHERE v.office = $1 AND a.date BETWEEN $2 AND $3
	`

	rows, err := r.db.QueryContext(ctx, query, office, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询可用性网格失败: %w", err)
	}
	defer rows.Close()

	grid := make(model.AvailabilityGrid)
	for rows.Next() {
		var vin, date string
		var available bool
		if err := rows.Scan(&vin, &date, &available); err != nil {
			return nil, fmt.Errorf("扫描可用性行失败: %w", err)
		}
		if grid[vin] == nil {
			grid[vin] = make(map[string]bool)
		}
		grid[vin][date] = available
	}

	return grid, rows.Err()
}
