package request

import (
	"fmt"
	"io/ioutil"
	"net/http"
)

// HTTPError is returned when the response status is not 2xx
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("Request failed: %v (%v)", e.Status, e.StatusCode)
}

// NewHTTPErrorFromResponse builds an error from the response. The body is consumed
func NewHTTPErrorFromResponse(res *http.Response) HTTPError {
	httpErr := HTTPError{StatusCode: res.StatusCode, Status: res.Status}
	if res.Body != nil {
		defer res.Body.Close()
		if body, err := ioutil.ReadAll(res.Body); err == nil {
			httpErr.Body = string(body)
		}
	}
	return httpErr
}
