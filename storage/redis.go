package storage

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

// Storage - короткоживущий кеш сырых страниц расписаний в Redis.
// Кешируем только HTML, никогда не разобранные слоты: расписание
// пересчитывается на каждый запрос.
type Storage struct {
	client *redis.Client
}

func New(addr, password string, db int) *Storage {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr, // например: "localhost:6379"
		Password: password,
		DB:       db,
	})
	return &Storage{client: rdb}
}

func (s *Storage) Ping() error {
	return s.client.Ping(ctx).Err()
}

func pageKey(url string) string {
	return fmt.Sprintf("cache:page:%x", sha256.Sum256([]byte(url)))
}

// GetPage возвращает закешированный HTML страницы или "" если кеш пуст
func (s *Storage) GetPage(url string) (string, error) {
	val, err := s.client.Get(ctx, pageKey(url)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// SavePage сохраняет HTML страницы с коротким TTL
func (s *Storage) SavePage(url, html string, ttl time.Duration) error {
	return s.client.Set(ctx, pageKey(url), html, ttl).Err()
}
