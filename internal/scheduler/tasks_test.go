package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFollowUpDueTaskPayload(t *testing.T) {
	task, err := NewFollowUpDueTask(FollowUpDuePayload{FollowUpID: "f-1", TenantID: "t-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskFollowUpDue {
		t.Fatalf("expected task type %s, got %s", TaskFollowUpDue, task.Type())
	}
	payload, err := ParseFollowUpDuePayload(task)
	if err != nil || payload.FollowUpID != "f-1" || payload.TenantID != "t-1" {
		t.Fatalf("unexpected payload %+v (%v)", payload, err)
	}
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var c *Client
	if err := c.EnqueueFollowUp(context.Background(), uuid.New(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("expected nil client to accept enqueue, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRedisClientOptParsesURL(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@cache:6380/2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "cache:6380" || opt.Password != "secret" || opt.DB != 2 || opt.TLSConfig != nil {
		t.Fatalf("unexpected options %+v", opt)
	}

	opt, _ = redisClientOpt("rediss://cache:6380", true)
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure tls config")
	}
}
