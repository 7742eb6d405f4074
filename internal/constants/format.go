package constants

// OutputFormat selects how a run summary is written to stdout.
type OutputFormat string

const (
	// FormatText renders a human-readable summary.
	FormatText OutputFormat = "text"

	// FormatJSON renders the summary as indented JSON.
	FormatJSON OutputFormat = "json"
)

// Valid returns true if the format is a recognized value.
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatText, FormatJSON:
		return true
	}
	return false
}

// String returns the string representation of the format.
func (f OutputFormat) String() string {
	return string(f)
}
