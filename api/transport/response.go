package transport

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  any    `json:"error,omitempty"`
	Meta   any    `json:"meta,omitempty"`
}

// NewSuccess wraps data, e.g. a user or a list of users.
func NewSuccess(data any, meta any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data, Meta: meta}
}

// NewError wraps a failure. err is a message or, for field validation
// failures, a field -> messages map; meta carries extra details such as the
// age limit.
func NewError(code string, err any, meta any) Envelope {
	return Envelope{Status: StatusError, Code: code, Error: err, Meta: meta}
}
