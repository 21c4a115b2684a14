package internal

// Option configures the application before Run wires up its services.
type Option func(*application)

// application carries the settings Run assembles the search services from.
type application struct {
	config *Config
}

// WithConfig supplies the loaded configuration. Run fails without one.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
