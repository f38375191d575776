package transport

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every API response, successful or not.
type Envelope struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  any    `json:"error,omitempty"`
	Meta   any    `json:"meta,omitempty"`
}

// Page describes a window of a list result.
type Page struct {
	Count  int  `json:"count"`
	Limit  int  `json:"limit"`
	Offset int  `json:"offset"`
	More   bool `json:"has_more"`
}

func NewSuccess(data any, meta any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data, Meta: meta}
}

func NewError(code string, err any, meta any) Envelope {
	return Envelope{Status: StatusError, Code: code, Error: err, Meta: meta}
}

// NewPage builds list metadata. A full page is reported as possibly having
// more rows.
func NewPage(count, limit, offset int) Page {
	return Page{Count: count, Limit: limit, Offset: offset, More: limit > 0 && count >= limit}
}
