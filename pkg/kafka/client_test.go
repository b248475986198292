package kafka

import (
	"testing"
	"time"

	"driver-review-service/pkg/logger"
)

func TestNewClientWriter(t *testing.T) {
	c := NewClient([]string{"localhost:9092"}, logger.NewNop())
	defer c.Close()

	if c.writer.BatchTimeout <= 0 || c.writer.BatchTimeout > 50*time.Millisecond {
		t.Errorf("BatchTimeout = %v, a single publish would wait for the batch to fill", c.writer.BatchTimeout)
	}
	if !c.writer.AllowAutoTopicCreation {
		t.Error("AllowAutoTopicCreation should be set")
	}
}
