package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/contacthub/internal/jobs"
	"github.com/redis/go-redis/v9"
)

const jobsKey = "contacthub:jobs"

// ErrEmpty reports that a blocking pop timed out with no job available.
var ErrEmpty = errors.New("queue empty")

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  -1, // blocking pops manage their own deadline
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Enqueue pushes a job onto the head of the list.
func (c *Client) Enqueue(ctx context.Context, j jobs.Job) error {
	data, err := json.Marshal(j)

	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	if err := c.redisdb.LPush(ctx, jobsKey, data).Err(); err != nil {
		return fmt.Errorf("lpush job: %w", err)
	}

	return nil
}

// Dequeue blocks up to timeout for the next job from the tail of the list.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error) {
	res, err := c.redisdb.BRPop(ctx, timeout, jobsKey).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, ErrEmpty
		}
		return jobs.Job{}, fmt.Errorf("brpop job: %w", err)
	}

	// BRPop returns [key, value]
	if len(res) != 2 {
		return jobs.Job{}, fmt.Errorf("brpop job: unexpected reply length %d", len(res))
	}

	var j jobs.Job

	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		return jobs.Job{}, fmt.Errorf("decode job: %w", err)
	}

	return j, nil
}
