package service

// ConnectivityMonitor is a push-style notifier of online/offline transitions.
// The offline operation queue uses it to decide when to flush.
type ConnectivityMonitor interface {
	// IsOnline reports the last observed connectivity state.
	IsOnline() bool

	// Subscribe registers for state-transition notifications. Each value sent
	// on the channel is the new state (true = online). The returned function
	// cancels the subscription.
	Subscribe() (<-chan bool, func())
}
