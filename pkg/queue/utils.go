package queue

import (
	"fmt"
	"strings"
	"time"
)

func qualifiedStructName(v any) string {
	s := fmt.Sprintf("%T", v)
	return strings.TrimLeft(s, "*")
}

// retryBackoff returns the delay before the given retry attempt:
// 2s, 4s, 8s... for retryCount 1, 2, 3. Both repository implementations
// use it so tasks observe the same schedule regardless of backend.
func retryBackoff(retryCount int8) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	return RetryBackoffBase << (retryCount - 1)
}
