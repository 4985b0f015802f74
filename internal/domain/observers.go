package domain

// StatusObserver receives every connection status change.
type StatusObserver interface {
	OnStatus(status ConnectionStatus, version string)
}

// ConnectedObserver receives the one-shot edge into StatusConnected.
type ConnectedObserver interface {
	OnConnected(version string)
}

// ImageObserver is told when a new image handle becomes available for a recipe.
type ImageObserver interface {
	OnImage(recipeID string, handleURL string)
}

// StatusFunc adapts a function to StatusObserver
type StatusFunc func(status ConnectionStatus, version string)

func (f StatusFunc) OnStatus(status ConnectionStatus, version string) { f(status, version) }

// ConnectedFunc adapts a function to ConnectedObserver
type ConnectedFunc func(version string)

func (f ConnectedFunc) OnConnected(version string) { f(version) }

// ImageFunc adapts a function to ImageObserver
type ImageFunc func(recipeID, handleURL string)

func (f ImageFunc) OnImage(recipeID, handleURL string) { f(recipeID, handleURL) }

// NoOpObserver discards all notifications (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnStatus(ConnectionStatus, string) {}
func (NoOpObserver) OnConnected(string)                {}
func (NoOpObserver) OnImage(string, string)            {}
