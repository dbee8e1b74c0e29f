package sim

// Commander allows setting a callback used to execute operator commands.
type Commander interface {
	SetCommander(func(string) error)
}
