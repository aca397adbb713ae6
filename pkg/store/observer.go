package store

// Observer receives store activity. It is how metrics are attached without
// the store depending on a metrics library. Methods are called outside the
// store's lock and must not block.
type Observer interface {
	// Initialized reports how many names an Initialize call seeded.
	Initialized(seeded int)

	// Set reports an accepted write.
	Set(name string)

	// Notified reports that one write was delivered to n live subscribers.
	Notified(name string, n int)

	Subscribed(name string)
	Released(name string)

	// CallbackPanicked reports a recovered subscriber panic.
	CallbackPanicked(name string)

	// StormTripped reports that the storm budget dropped queued notifications.
	StormTripped(dropped int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Initialized(int)         {}
func (NopObserver) Set(string)              {}
func (NopObserver) Notified(string, int)    {}
func (NopObserver) Subscribed(string)       {}
func (NopObserver) Released(string)         {}
func (NopObserver) CallbackPanicked(string) {}
func (NopObserver) StormTripped(int)        {}
