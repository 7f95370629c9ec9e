package api

import (
	"strconv"
	"sync/atomic"
	"time"

	"lifeboard/domain"
)

var lastTimestamp int64

// nextTimestamp returns a strictly increasing nanosecond timestamp so that
// commands accepted in one process never share an ordering key.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

// finalizeCommands stamps each command with its timestamp and idempotency
// key, generating a key from the timestamp when the client sent none. It
// returns the keys in command order.
func finalizeCommands(cmds []domain.Command) []string {
	keys := make([]string, len(cmds))
	for i := range cmds {
		cmds[i].Timestamp = nextTimestamp()
		if cmds[i].IdempotencyKey == "" {
			cmds[i].IdempotencyKey = strconv.FormatInt(cmds[i].Timestamp, 36)
		}
		cmds[i].ID = cmds[i].IdempotencyKey
		keys[i] = cmds[i].IdempotencyKey
	}
	return keys
}
