package domain

// ErrorType classifies a command failure from its stderr output.
type ErrorType string

const (
	ErrorTypeCommandNotFound  ErrorType = "command-not-found"
	ErrorTypePermissionDenied ErrorType = "permission-denied"
	ErrorTypeModuleNotFound   ErrorType = "module-not-found"
	ErrorTypeSyntaxError      ErrorType = "syntax-error"
	ErrorTypeConnectionError  ErrorType = "connection-error"
	ErrorTypeFileNotFound     ErrorType = "file-not-found"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeUnknown          ErrorType = "unknown-error"
)

// Severity grades a failure for issue labelling.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityMinor    Severity = "minor"
	SeverityLow      Severity = "low"
)

// ErrorReport is the structured description of a command failure,
// ready to be filed as a GitHub issue.
type ErrorReport struct {
	Type        ErrorType `json:"type"`
	Summary     string    `json:"summary"`
	Severity    Severity  `json:"severity"`
	Labels      []string  `json:"labels"`
	Body        string    `json:"body,omitempty"`
	IssueNumber int       `json:"issue_number,omitempty"`
	IssueURL    string    `json:"issue_url,omitempty"`
}

// RepoContext describes the state of the working repository at the time
// of a failure, included in issue bodies when available.
type RepoContext struct {
	Branch    string `json:"branch"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	RemoteURL string `json:"remote_url,omitempty"`
}

// IssueRef identifies an existing tracker issue found by similarity search.
type IssueRef struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}
