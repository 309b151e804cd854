package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"gorm.io/gorm"
)

// RecordModel is the database DTO with Gorm tags. Channels, payload and
// rendered content are stored as JSONB; the domain mapper owns the
// (de)serialization.
type RecordModel struct {
	ID        int64           `gorm:"primaryKey"`
	EventType string          `gorm:"type:varchar(100);not null"`
	Channels  json.RawMessage `gorm:"type:jsonb;not null"`
	Payload   json.RawMessage `gorm:"type:jsonb;not null"`
	Rendered  json.RawMessage `gorm:"type:jsonb;not null"`
	Status    string          `gorm:"type:varchar(50);not null"`
	Retries   int             `gorm:"not null;default:0"`
	DedupeKey *string         `gorm:"type:varchar(255)"`
	LastError *string         `gorm:"type:text"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastTriedAt *time.Time
	SentAt      *time.Time
}

func (RecordModel) TableName() string {
	return "outbox_records"
}

// liveStatuses are the states that occupy a dedupe key. A sent record frees
// its key, so a later enqueue with the same key creates a fresh record.
var liveStatuses = []string{
	string(notification.StatusQueued),
	string(notification.StatusDispatching),
	string(notification.StatusFailed),
}

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

var _ notification.Repository = (*OutboxRepository)(nil)

func (r *OutboxRepository) Create(ctx context.Context, record *notification.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return notification.ErrDuplicateKey
		}
		return storeErr("create outbox record", err)
	}
	return nil
}

func (r *OutboxRepository) Get(ctx context.Context, id int64) (*notification.Record, error) {
	var model RecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notification.ErrNotFound
		}
		return nil, storeErr("load outbox record", err)
	}
	return toDomain(model)
}

func (r *OutboxRepository) FindLiveByDedupeKey(ctx context.Context, key string) (*notification.Record, error) {
	var model RecordModel
	err := r.db.WithContext(ctx).
		Where("dedupe_key = ? AND status IN ?", key, liveStatuses).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr("find live record", err)
	}
	return toDomain(model)
}

// CASStatus is the single concurrency-control primitive protecting a record:
// the conditional UPDATE succeeds for exactly one caller, everyone else sees
// RowsAffected == 0.
func (r *OutboxRepository) CASStatus(ctx context.Context, id int64, from, to notification.Status, fields notification.StatusFields) (bool, error) {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":     string(to),
		"updated_at": now,
	}
	if fields.ClearError {
		updates["last_error"] = nil
	} else if fields.LastError != nil {
		updates["last_error"] = *fields.LastError
	}
	if fields.LastTriedAt != nil {
		updates["last_tried_at"] = *fields.LastTriedAt
	}
	if fields.SentAt != nil {
		updates["sent_at"] = *fields.SentAt
	}

	result := r.db.WithContext(ctx).Model(&RecordModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return false, storeErr("cas status", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *OutboxRepository) Requeue(ctx context.Context, id int64) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&RecordModel{}).
		Where("id = ? AND status IN ?", id, []string{
			string(notification.StatusQueued),
			string(notification.StatusFailed),
		}).
		Updates(map[string]any{
			"status":        string(notification.StatusQueued),
			"retries":       gorm.Expr("retries + 1"),
			"last_error":    nil,
			"last_tried_at": now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return false, storeErr("requeue record", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *OutboxRepository) List(ctx context.Context, status notification.Status, limit, offset int) ([]*notification.Record, error) {
	query := r.db.WithContext(ctx).Model(&RecordModel{}).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []RecordModel
	if err := query.Find(&models).Error; err != nil {
		return nil, storeErr("list records", err)
	}

	items := make([]*notification.Record, 0, len(models))
	for _, model := range models {
		record, err := toDomain(model)
		if err != nil {
			return nil, err
		}
		items = append(items, record)
	}
	return items, nil
}

func (r *OutboxRepository) ReleaseStuck(ctx context.Context, olderThan time.Duration, reason string) (int64, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-olderThan)
	result := r.db.WithContext(ctx).Model(&RecordModel{}).
		Where("status = ? AND updated_at < ?", string(notification.StatusDispatching), cutoff).
		Updates(map[string]any{
			"status":     string(notification.StatusFailed),
			"last_error": reason,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, storeErr("release stuck records", result.Error)
	}
	return result.RowsAffected, nil
}

// Mappers

func toModel(d *notification.Record) (RecordModel, error) {
	channels, err := json.Marshal(d.Channels)
	if err != nil {
		return RecordModel{}, fmt.Errorf("marshal channels: %w", err)
	}
	rendered, err := json.Marshal(d.Rendered)
	if err != nil {
		return RecordModel{}, fmt.Errorf("marshal rendered: %w", err)
	}

	model := RecordModel{
		ID:          d.ID,
		EventType:   string(d.EventType),
		Channels:    channels,
		Payload:     d.Payload,
		Rendered:    rendered,
		Status:      string(d.Status),
		Retries:     d.Retries,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		LastTriedAt: d.LastTriedAt,
		SentAt:      d.SentAt,
	}
	if d.DedupeKey != "" {
		key := d.DedupeKey
		model.DedupeKey = &key
	}
	if d.LastError != "" {
		msg := d.LastError
		model.LastError = &msg
	}
	return model, nil
}

func toDomain(m RecordModel) (*notification.Record, error) {
	var channels []notification.Channel
	if err := json.Unmarshal(m.Channels, &channels); err != nil {
		return nil, fmt.Errorf("unmarshal channels: %w", err)
	}
	var rendered map[notification.Channel]notification.Content
	if len(m.Rendered) > 0 {
		if err := json.Unmarshal(m.Rendered, &rendered); err != nil {
			return nil, fmt.Errorf("unmarshal rendered: %w", err)
		}
	}

	record := &notification.Record{
		ID:          m.ID,
		EventType:   notification.EventType(m.EventType),
		Channels:    channels,
		Payload:     m.Payload,
		Rendered:    rendered,
		Status:      notification.Status(m.Status),
		Retries:     m.Retries,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		LastTriedAt: m.LastTriedAt,
		SentAt:      m.SentAt,
	}
	if m.DedupeKey != nil {
		record.DedupeKey = *m.DedupeKey
	}
	if m.LastError != nil {
		record.LastError = *m.LastError
	}
	return record, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, notification.ErrStoreUnavailable, err)
}
