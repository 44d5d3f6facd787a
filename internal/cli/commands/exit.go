package commands

// ExitError carries a specific process exit code through cobra.
// Validation failures (rules validate, doctor --fail-on) use code 2 so
// scripts can tell them apart from runtime errors.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }
