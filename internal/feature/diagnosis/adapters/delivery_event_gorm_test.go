package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock_diagnosis/internal/feature/diagnosis/domain/entity"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを準備します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	require.NoError(t, db.AutoMigrate(&entity.DeliveryEvent{}), "failed to migrate table")
	return db
}

// TestDeliveryEventGorm_RecordDeliveryEvent はイベントがUUID付きで保存されることを検証します。
func TestDeliveryEventGorm_RecordDeliveryEvent(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewDeliveryEventRepository(db)
	fixed := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, repo.RecordDeliveryEvent(ctx, "1031", true))
	require.NoError(t, repo.RecordDeliveryEvent(ctx, "1031", false))

	var events []entity.DeliveryEvent
	require.NoError(t, db.Order("from_cache DESC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.True(t, events[0].FromCache)
	assert.False(t, events[1].FromCache)
	assert.NotEqual(t, events[0].ID, events[1].ID)
	for _, ev := range events {
		_, err := uuid.Parse(ev.ID)
		assert.NoError(t, err)
		assert.Equal(t, "1031", ev.Ticker)
		assert.True(t, fixed.Equal(ev.CreatedAt))
	}
}

// TestDeliveryEventGorm_CountByTicker は銘柄ごとにキャッシュ再生と新規生成を数えることを検証します。
func TestDeliveryEventGorm_CountByTicker(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewDeliveryEventRepository(db)
	ctx := context.Background()

	for _, fromCache := range []bool{true, true, true, false} {
		require.NoError(t, repo.RecordDeliveryEvent(ctx, "1031", fromCache))
	}
	require.NoError(t, repo.RecordDeliveryEvent(ctx, "7203", false))

	tests := []struct {
		ticker     string
		wantCached int64
		wantFresh  int64
	}{
		{"1031", 3, 1},
		{"7203", 0, 1},
		{"9999", 0, 0},
	}
	for _, tt := range tests {
		cached, fresh, err := repo.CountByTicker(ctx, tt.ticker)
		require.NoError(t, err)
		assert.Equal(t, tt.wantCached, cached, tt.ticker)
		assert.Equal(t, tt.wantFresh, fresh, tt.ticker)
	}
}
