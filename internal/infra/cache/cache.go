// Package cache короткоживущий read-through кэш расписаний и персонала поверх Redis
//
// Кэш снижает нагрузку на чтение, но НЕ является источником истины:
// путь создания бронирования никогда сюда не ходит - проверка конфликтов
// выполняется только по живому реестру внутри транзакции.
// Инвалидация при изменении расписания best-effort; TTL - приемлемый fallback.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Client кэш расписаний и персонала
type Client struct {
	rdb *redis.Client
	ttl time.Duration
	log Logger
}

// New создает клиент кэша
func New(addr, password string, db int, ttl time.Duration, log Logger) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
		log: log,
	}
}

// Ping проверяет доступность Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close закрывает соединение
func (c *Client) Close() error {
	return c.rdb.Close()
}

func schedulesKey(providerID int64) string {
	return fmt.Sprintf("schedule:provider:%d", providerID)
}

func staffKey(providerID int64) string {
	return fmt.Sprintf("staff:provider:%d", providerID)
}

// GetSchedules возвращает недельное расписание провайдера из кэша
// Любая ошибка Redis трактуется как промах - кэш не должен ломать чтение
func (c *Client) GetSchedules(ctx context.Context, providerID int64) ([]*domain.Schedule, bool) {
	data, err := c.rdb.Get(ctx, schedulesKey(providerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache: failed to get schedules for provider=%d: %v", providerID, err)
		}
		return nil, false
	}

	var schedules []*domain.Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		c.log.Warn("cache: failed to unmarshal schedules for provider=%d: %v", providerID, err)
		return nil, false
	}

	return schedules, true
}

// SetSchedules кладет недельное расписание провайдера в кэш с TTL
func (c *Client) SetSchedules(ctx context.Context, providerID int64, schedules []*domain.Schedule) {
	data, err := json.Marshal(schedules)
	if err != nil {
		c.log.Warn("cache: failed to marshal schedules for provider=%d: %v", providerID, err)
		return
	}

	if err := c.rdb.Set(ctx, schedulesKey(providerID), data, c.ttl).Err(); err != nil {
		c.log.Warn("cache: failed to set schedules for provider=%d: %v", providerID, err)
	}
}

// GetStaff возвращает активных сотрудников провайдера из кэша
func (c *Client) GetStaff(ctx context.Context, providerID int64) ([]*domain.StaffMember, bool) {
	data, err := c.rdb.Get(ctx, staffKey(providerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache: failed to get staff for provider=%d: %v", providerID, err)
		}
		return nil, false
	}

	var members []*domain.StaffMember
	if err := json.Unmarshal(data, &members); err != nil {
		c.log.Warn("cache: failed to unmarshal staff for provider=%d: %v", providerID, err)
		return nil, false
	}

	return members, true
}

// SetStaff кладет активных сотрудников провайдера в кэш с TTL
func (c *Client) SetStaff(ctx context.Context, providerID int64, members []*domain.StaffMember) {
	data, err := json.Marshal(members)
	if err != nil {
		c.log.Warn("cache: failed to marshal staff for provider=%d: %v", providerID, err)
		return
	}

	if err := c.rdb.Set(ctx, staffKey(providerID), data, c.ttl).Err(); err != nil {
		c.log.Warn("cache: failed to set staff for provider=%d: %v", providerID, err)
	}
}

// InvalidateProvider сбрасывает кэш провайдера после изменения расписания/персонала
// Ошибка не критична: TTL доедет сам
func (c *Client) InvalidateProvider(ctx context.Context, providerID int64) {
	if err := c.rdb.Del(ctx, schedulesKey(providerID), staffKey(providerID)).Err(); err != nil {
		c.log.Warn("cache: failed to invalidate provider=%d: %v", providerID, err)
	}
}
