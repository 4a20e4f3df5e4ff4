package metrics

// NoopCollector is a no-op implementation of the Collector interface.
// All methods are empty stubs that do nothing.
type NoopCollector struct{}

// ConnectionOpened is a no-op.
func (n *NoopCollector) ConnectionOpened() {}

// ConnectionClosed is a no-op.
func (n *NoopCollector) ConnectionClosed() {}

// ConnectionRejected is a no-op.
func (n *NoopCollector) ConnectionRejected() {}

// AuthAttempt is a no-op.
func (n *NoopCollector) AuthAttempt(success bool) {}

// UserRegistered is a no-op.
func (n *NoopCollector) UserRegistered() {}

// CommandProcessed is a no-op.
func (n *NoopCollector) CommandProcessed(command string) {}

// MessageBroadcast is a no-op.
func (n *NoopCollector) MessageBroadcast(room string) {}

// PrivateMessageDelivered is a no-op.
func (n *NoopCollector) PrivateMessageDelivered() {}

// OfflineMessageQueued is a no-op.
func (n *NoopCollector) OfflineMessageQueued() {}

// OfflineMessageDelivered is a no-op.
func (n *NoopCollector) OfflineMessageDelivered() {}

// OfflineMessageDropped is a no-op.
func (n *NoopCollector) OfflineMessageDropped() {}
