// Package soap implements the minimal SOAP 1.1 request/response handling the
// two hydrographic web services need: envelope wrapping, fault detection, and
// body decoding, over a plain HTTP client with a circuit breaker.
package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Client issues SOAP calls against a single service endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a SOAP client for endpoint. The breaker name shows up in
// breaker state transitions and should identify the upstream service.
func NewClient(name, endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// Call sends request as the SOAP body and decodes the response body element
// into response. A SOAP fault comes back as an error.
func (c *Client) Call(ctx context.Context, action string, request, response any) error {
	payload, err := xml.Marshal(request)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", action, err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>`)
	buf.Write(payload)
	buf.WriteString(`</soapenv:Body></soapenv:Envelope>`)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	body, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		// Faults arrive with status 500; keep the body for the fault string.
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return data, nil
	})
	if err != nil {
		return fmt.Errorf("%s call: %w", action, err)
	}

	return decodeBody(body.([]byte), action, response)
}

// envelope captures the raw inner XML of the response body so the caller's
// response type can be decoded from it without knowing the envelope shape.
type envelope struct {
	Body struct {
		Fault *fault `xml:"Fault"`
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

type fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

func decodeBody(data []byte, action string, response any) error {
	var env envelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", action, err)
	}
	if env.Body.Fault != nil {
		return fmt.Errorf("%s fault: %s: %s", action, env.Body.Fault.Code, env.Body.Fault.String)
	}
	if err := xml.Unmarshal(env.Body.Inner, response); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	return nil
}
