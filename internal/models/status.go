package models

// StatusOnline is the status string the answering service reports when it
// is ready to take questions.
const StatusOnline = "online"

// StatusReport is the raw /status payload as reported by the service.
type StatusReport struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	ArticlesCount int    `json:"articles_count"`
}

// Online reports whether the service declared itself ready.
func (r StatusReport) Online() bool {
	return r.Status == StatusOnline
}

// SystemStatus is the readiness snapshot taken once at startup. It is never
// mutated after it is read.
type SystemStatus struct {
	Ready        bool
	ArticleCount int
}

// Offline is the reading used whenever the service could not be probed.
var Offline = SystemStatus{}
