package response

// Envelope is embedded by every JSON body returned by the HTTP API.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Failure is the uniform error body.
type Failure struct {
	Envelope
	Error string `json:"error,omitempty"`
}

// OK returns a successful envelope with an optional message.
func OK(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

// Fail builds a failure body. err may be nil when there is no detail to expose.
func Fail(message string, err error) *Failure {
	f := &Failure{Envelope: Envelope{Success: false, Message: message}}
	if err != nil {
		f.Error = err.Error()
	}
	return f
}

// DataT is a generic envelope for endpoints that return a single payload.
type DataT[T any] struct {
	Envelope
	Data T `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *DataT[T] {
	return &DataT[T]{Envelope: OK(""), Data: data}
}
