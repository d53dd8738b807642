package schema

// Severity grades user-facing notices.
type Severity string

const (
	// SeverityInfo is informational.
	SeverityInfo Severity = "info"
	// SeverityWarning reports an aborted operation.
	SeverityWarning Severity = "warning"
	// SeverityError reports a failure.
	SeverityError Severity = "error"
)

// Notice is a user-facing message emitted by the controller.
type Notice struct {
	Severity Severity
	Message  string
}

// StateEvent reports a session state transition.
type StateEvent struct {
	Session SessionID
	From    SessionState
	To      SessionState
	Active  DocumentURI
}
