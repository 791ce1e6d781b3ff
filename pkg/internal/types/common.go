package types

// ComponentMetadata defines the identifying information carried by every component.
// It shows up in log lines and run events so a single process can host several
// schedulers (one per tank channel) without their output getting mixed up.
type ComponentMetadata struct {
	ID   string // Unique identifier for the component.
	Type string // Type of the component, e.g. "SCHEDULER" or "SYNTHESIZER".
	Name string // Human-readable name for the component.
}

// Option defines a configuration option function applicable to any component T.
type Option[T any] func(T)
