package cli

// Default values for CLI flags and formatted output.
const (
	// DefaultCopies is the number of subscribers dispatched per URL by fetch.
	DefaultCopies = 1
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// setCommandArgs is the number of arguments expected by config set.
	setCommandArgs = 2
)
