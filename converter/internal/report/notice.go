package report

// Severity controls whether and how a notice is shown.
type Severity string

const (
	SeveritySilent   Severity = "silent"
	SeverityInfo     Severity = "info"
	SeverityCritical Severity = "critical"
)

// Notice is a message for the user with a single dismiss button.
type Notice struct {
	Severity    Severity `json:"severity"`
	Message     string   `json:"message,omitempty"`
	Informative string   `json:"informative,omitempty"`
	Button      string   `json:"button,omitempty"`
}

var silentNotice = Notice{Severity: SeveritySilent}

var successNotice = Notice{
	Severity:    SeverityInfo,
	Message:     "Your preferences have been saved in an updated format, and outdated files (if any) have been moved to the Trash.",
	Informative: "This version of MacTerm will now be able to read your existing preferences.",
	Button:      "Continue",
}

var failureNotice = Notice{
	Severity:    SeverityCritical,
	Message:     "This version of MacTerm cannot read your existing preferences.  Normally, old preferences are converted automatically but this has failed for some reason.",
	Informative: "Please check for file and disk problems, and try again.  Default preferences will be used instead.",
	Button:      "OK",
}

var restartNotice = Notice{
	Severity:    SeverityInfo,
	Message:     "Your preferences have been migrated to a new format.  Please run MacTerm again to use the migrated settings.",
	Informative: "This version of MacTerm will now be able to read your existing preferences.",
	Button:      "Quit Preferences Converter",
}

var dryRunNotice = Notice{
	Severity:    SeverityInfo,
	Message:     "Your preferences need to be converted to an updated format. Nothing has been changed yet.",
	Informative: "Run the converter again without --dry-run to save the converted preferences.",
	Button:      "OK",
}

var dryRunFailureNotice = Notice{
	Severity:    SeverityCritical,
	Message:     "Your existing preferences could not be converted. Nothing has been changed.",
	Informative: "Please check for file and disk problems, and try again.",
	Button:      "OK",
}
