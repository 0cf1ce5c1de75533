package chat

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) InsertRecord(ctx context.Context, rec *Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *Repo) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Record{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListPage returns one page of a user's records, newest first. The id
// tiebreak keeps same-timestamp rows paging deterministically.
func (r *Repo) ListPage(ctx context.Context, userID uint64, offset, limit int) ([]Record, error) {
	var recs []Record
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
