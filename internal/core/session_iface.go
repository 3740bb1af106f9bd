package core

// ConnID identifies one transport connection for its lifetime.
type ConnID string

// SignalConnection abstracts the messaging transport of one client.
// Owned by the adapter; the adapter must Close() it.
// TrySend must not block.
type SignalConnection interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}
