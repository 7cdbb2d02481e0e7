package output

// Limits for tool responses, sized for typical LLM context windows.
const (
	DefaultMaxItems         = 500
	DefaultMaxResponseBytes = 512 * 1024

	AbsoluteMaxItems         = 5000
	AbsoluteMaxResponseBytes = 2 * 1024 * 1024
)

// Config holds the output limits applied by the container filesystem tools.
type Config struct {
	// MaxItems limits the nodes returned for one folder listing.
	MaxItems int `json:"maxItems" yaml:"maxItems"`

	// MaxResponseBytes limits the text returned for one document.
	MaxResponseBytes int `json:"maxResponseBytes" yaml:"maxResponseBytes"`
}

// DefaultConfig returns a Config with the default limits.
func DefaultConfig() *Config {
	return &Config{
		MaxItems:         DefaultMaxItems,
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// Validate returns a copy of c with unset values defaulted and every value
// capped at its absolute maximum. A nil config validates to the defaults.
func (c *Config) Validate() *Config {
	if c == nil {
		return DefaultConfig()
	}
	return &Config{
		MaxItems:         clamp(c.MaxItems, DefaultMaxItems, AbsoluteMaxItems),
		MaxResponseBytes: clamp(c.MaxResponseBytes, DefaultMaxResponseBytes, AbsoluteMaxResponseBytes),
	}
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// clamp maps non-positive values to def and caps the result at ceiling.
func clamp(v, def, ceiling int) int {
	if v <= 0 {
		v = def
	}
	return min(v, ceiling)
}

// TruncationWarning reports a cut response.
type TruncationWarning struct {
	// Shown and Total count items for listings and bytes for documents.
	Shown   int    `json:"shown"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}
