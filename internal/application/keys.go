package application

import (
	"fmt"
	"strings"
)

// Query key roots. A key invalidates itself and every key that extends it
// with "?" or "/".
const (
	KeyOutboundOrders       = "outbound-orders"
	KeyOutboundWaves        = "outbound-waves"
	KeyInboundOrders        = "inbound-orders"
	KeyAllocationStrategies = "allocation-strategies"
	outboundOrderPrefix     = "outbound-order"
	outboundWavePrefix      = "outbound-wave"
	outboundWaveTasksPrefix = "outbound-wave-tasks"
	inboundOrderPrefix      = "inbound-order"
)

// OrderKey is the cache key of one outbound order
func OrderKey(orderID int64) string {
	return fmt.Sprintf("%s/%d", outboundOrderPrefix, orderID)
}

// WaveKey is the cache key of one wave
func WaveKey(waveID int64) string {
	return fmt.Sprintf("%s/%d", outboundWavePrefix, waveID)
}

// WaveTasksKey is the cache key of the pick tasks of a wave
func WaveTasksKey(waveID int64) string {
	return fmt.Sprintf("%s/%d", outboundWaveTasksPrefix, waveID)
}

// InboundOrderKey is the cache key of one inbound order
func InboundOrderKey(orderID int64) string {
	return fmt.Sprintf("%s/%d", inboundOrderPrefix, orderID)
}

// KeyResource returns the root of a key, used as a metrics label
func KeyResource(key string) string {
	if i := strings.IndexAny(key, "/?"); i >= 0 {
		return key[:i]
	}
	return key
}

// KeyCovers reports whether invalidating root also drops key
func KeyCovers(root, key string) bool {
	if key == root {
		return true
	}
	return strings.HasPrefix(key, root+"?") || strings.HasPrefix(key, root+"/")
}
