package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheManager Redis 报警缓存（每个患者最近一轮评估产生的报警）
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// alertKey 缓存键：{prefix}{patient_id}{suffix}
func (c *CacheManager) alertKey(patientID int) string {
	return fmt.Sprintf("%s%d%s",
		c.config.Alert.Cache.KeyPrefix,
		patientID,
		c.config.Alert.Cache.Suffix,
	)
}

// UpdateAlertCache 覆盖写入患者的报警缓存（带 TTL）
func (c *CacheManager) UpdateAlertCache(ctx context.Context, patientID int, alerts []models.AlertEvent) error {
	key := c.alertKey(patientID)

	jsonData, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alert data: %w", err)
	}

	if err := c.redisClient.Set(ctx, key, jsonData, c.config.Alert.Cache.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set alert cache: %w", err)
	}

	c.logger.Debug("Updated alert cache",
		zap.Int("patient_id", patientID),
		zap.String("key", key),
		zap.Int("alert_count", len(alerts)),
	)

	return nil
}

// GetAlerts 读取患者的报警缓存；不存在时返回空切片
func (c *CacheManager) GetAlerts(ctx context.Context, patientID int) ([]models.AlertEvent, error) {
	val, err := c.redisClient.Get(ctx, c.alertKey(patientID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.AlertEvent{}, nil
		}
		return nil, fmt.Errorf("failed to get alert cache: %w", err)
	}

	var alerts []models.AlertEvent
	if err := json.Unmarshal([]byte(val), &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert data: %w", err)
	}
	return alerts, nil
}

// GetAllPatientIDs 扫描缓存键得到所有有报警缓存的患者
func (c *CacheManager) GetAllPatientIDs(ctx context.Context) ([]int, error) {
	prefix := c.config.Alert.Cache.KeyPrefix
	suffix := c.config.Alert.Cache.Suffix
	pattern := prefix + "*" + suffix

	var ids []int
	iter := c.redisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw := key[len(prefix) : len(key)-len(suffix)]
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.logger.Warn("Skipping alert cache key with non-numeric patient id", zap.String("key", key))
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}

	sort.Ints(ids)
	return ids, nil
}

// Notify 按患者分组写入缓存（实现 notifier.Notifier）
func (c *CacheManager) Notify(ctx context.Context, events []models.AlertEvent) error {
	byPatient := make(map[int][]models.AlertEvent)
	for _, e := range events {
		byPatient[e.PatientID] = append(byPatient[e.PatientID], e)
	}

	var errs []error
	for patientID, alerts := range byPatient {
		if err := c.UpdateAlertCache(ctx, patientID, alerts); err != nil {
			errs = append(errs, fmt.Errorf("patient %d: %w", patientID, err))
		}
	}
	return errors.Join(errs...)
}
