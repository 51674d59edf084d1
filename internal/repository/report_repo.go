package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// ReportRepository stores user reports. A report in either direction hides
// the pair from each other's pools and blocks their chat.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// Create files a pending report from -> to.
func (r *ReportRepository) Create(ctx context.Context, fromID, toID uint64, reason string) (*db.Report, error) {
	rp := db.Report{
		FromUserID: fromID,
		ToUserID:   toID,
		Reason:     reason,
		Status:     db.ReportPending,
	}
	if err := r.db.WithContext(ctx).Create(&rp).Error; err != nil {
		return nil, svcErr.Storage("create report", err)
	}
	return &rp, nil
}

// ExistsBetween reports whether a report exists between a and b either way.
func (r *ReportRepository) ExistsBetween(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Storage("report exists", err)
	}
	return count > 0, nil
}
