package gbp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/tournevent/invoicebridge/pkg/orders"
)

const (
	// Some GBP front-ends answer 403 to default HTTP client user agents.
	userAgent    = "Mozilla/5.0 (compatible; GBPZipnovaSync/1.0)"
	acceptHeader = "text/xml,application/xml,*/*"

	probeTimeout = 15 * time.Second
	probeHeadLen = 500
	maxErrorBody = 4 << 10
)

// SOAPAPIClient is the production implementation of APIClient using SOAP.
type SOAPAPIClient struct {
	wsdlURL    string
	endpoint   string
	username   string
	password   string
	namespace  string
	ops        Operations
	httpClient *http.Client
}

// SOAPAPIClientConfig holds configuration for the SOAP client.
type SOAPAPIClientConfig struct {
	WSDLURL    string
	Username   string
	Password   string
	Namespace  string
	Operations Operations
	Timeout    time.Duration
}

// NewSOAPAPIClient creates a new SOAP-based API client for production use.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ns := cfg.Namespace
	if ns == "" {
		ns = "http://tempuri.org/"
	}

	ops := cfg.Operations
	defaults := DefaultOperations()
	if ops.Login == "" {
		ops.Login = defaults.Login
	}
	if ops.List == "" {
		ops.List = defaults.List
	}
	if ops.Detail == "" {
		ops.Detail = defaults.Detail
	}
	if ops.Update == "" {
		ops.Update = defaults.Update
	}

	return &SOAPAPIClient{
		wsdlURL:   cfg.WSDLURL,
		endpoint:  serviceEndpoint(cfg.WSDLURL),
		username:  cfg.Username,
		password:  cfg.Password,
		namespace: ns,
		ops:       ops,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login opens a GBP session.
func (c *SOAPAPIClient) Login(ctx context.Context) (string, error) {
	result, err := c.call(ctx, c.ops.Login, []soapParam{
		{Name: "User", Value: c.username},
		{Name: "Password", Value: c.password},
	})
	if err != nil {
		return "", err
	}

	token := result.firstText()
	if token == "" {
		return "", &APIError{Code: "EMPTY_TOKEN", Description: "Login response carried no token"}
	}
	return token, nil
}

// ListInvoices lists invoices pending shipment for a logistics value.
func (c *SOAPAPIClient) ListInvoices(ctx context.Context, token, logistics string) ([]map[string]any, error) {
	result, err := c.call(ctx, c.ops.List, []soapParam{
		{Name: "Token", Value: token},
		{Name: "Logistics", Value: logistics},
	})
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(result.Children))
	for _, child := range result.unwrapResult().Children {
		if child.isLeaf() {
			continue
		}
		rows = append(rows, child.toMap())
	}
	return rows, nil
}

// GetInvoice fetches the full invoice record.
func (c *SOAPAPIClient) GetInvoice(ctx context.Context, token, invoiceID string) (map[string]any, error) {
	result, err := c.call(ctx, c.ops.Detail, []soapParam{
		{Name: "Token", Value: token},
		{Name: "InvoiceId", Value: invoiceID},
	})
	if err != nil {
		return nil, err
	}

	node := result.unwrapResult()
	if len(node.Children) == 1 && !node.Children[0].isLeaf() {
		node = node.Children[0]
	}
	if node.isLeaf() {
		return nil, &APIError{Code: "EMPTY_INVOICE", Description: "invoice " + invoiceID + " not returned"}
	}
	return node.toMap(), nil
}

// UpdateInvoice writes the shipment linkage back to GBP.
func (c *SOAPAPIClient) UpdateInvoice(ctx context.Context, token string, update *InvoiceUpdate) error {
	result, err := c.call(ctx, c.ops.Update, []soapParam{
		{Name: "Token", Value: token},
		{Name: "InvoiceId", Value: update.InvoiceID},
		{Name: "ZipnovaShipmentId", Value: update.ShipmentID},
		{Name: "ZipnovaTracking", Value: update.TrackingCode},
	})
	if err != nil {
		return err
	}

	if strings.EqualFold(result.firstText(), "false") {
		return &APIError{Code: "UPDATE_REJECTED", Description: "invoice " + update.InvoiceID + " not updated"}
	}
	return nil
}

// Probe performs a raw GET of the WSDL and reports what came back.
// It never fails; transport errors are reported in Diagnostics.Error.
func (c *SOAPAPIClient) Probe(ctx context.Context) orders.Diagnostics {
	diag := orders.Diagnostics{URL: c.wsdlURL}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.wsdlURL, nil)
	if err != nil {
		diag.Error = err.Error()
		return diag
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		diag.Error = err.Error()
		return diag
	}
	defer resp.Body.Close()

	head, err := io.ReadAll(io.LimitReader(resp.Body, probeHeadLen))
	if err != nil {
		diag.Error = err.Error()
	}

	diag.Status = resp.StatusCode
	diag.ContentType = resp.Header.Get("Content-Type")
	diag.Head = string(head)
	diag.Headers = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		diag.Headers[k] = resp.Header.Get(k)
	}
	return diag
}

// ============================================================================
// SOAP Request Helpers
// ============================================================================

type soapParam struct {
	Name  string
	Value string
}

const soapEnvelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tns="{{xml .Namespace}}">
  <soap:Body>
    <tns:{{.Operation}}>{{range .Params}}
      <tns:{{.Name}}>{{xml .Value}}</tns:{{.Name}}>{{end}}
    </tns:{{.Operation}}>
  </soap:Body>
</soap:Envelope>`

var envelopeTmpl = template.Must(template.New("envelope").
	Funcs(template.FuncMap{"xml": xmlEscape}).
	Parse(soapEnvelopeTemplate))

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (c *SOAPAPIClient) buildEnvelope(operation string, params []soapParam) ([]byte, error) {
	data := struct {
		Namespace string
		Operation string
		Params    []soapParam
	}{
		Namespace: c.namespace,
		Operation: operation,
		Params:    params,
	}

	var buf bytes.Buffer
	if err := envelopeTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// call executes a SOAP operation and returns the <XxxResponse> element.
func (c *SOAPAPIClient) call(ctx context.Context, operation string, params []soapParam) (*xmlNode, error) {
	body, err := c.buildEnvelope(operation, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+c.soapAction(operation)+`"`)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseSOAPError(resp)
	}

	root, err := parseXMLTree(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return responseElement(root)
}

func (c *SOAPAPIClient) soapAction(operation string) string {
	if strings.HasSuffix(c.namespace, "/") {
		return c.namespace + operation
	}
	return c.namespace + "/" + operation
}

func (c *SOAPAPIClient) parseSOAPError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if root, err := parseXMLTree(bytes.NewReader(body)); err == nil {
		if _, ferr := responseElement(root); ferr != nil {
			if apiErr, ok := ferr.(*APIError); ok {
				apiErr.StatusCode = resp.StatusCode
				return apiErr
			}
		}
	}

	return httpError(resp.StatusCode, strings.TrimSpace(string(body)))
}

// responseElement returns the first element of the SOAP body, converting a
// Fault into an APIError.
func responseElement(root *xmlNode) (*xmlNode, error) {
	body := root.child("Body")
	if body == nil || len(body.Children) == 0 {
		return nil, &APIError{Code: "PARSE_ERROR", Description: "No SOAP body in response"}
	}

	first := body.Children[0]
	if first.Name == "Fault" {
		code, msg := "", ""
		if n := first.child("faultcode"); n != nil {
			code = strings.TrimSpace(n.Text)
		}
		if n := first.child("faultstring"); n != nil {
			msg = strings.TrimSpace(n.Text)
		}
		if code == "" {
			code = "SOAP_FAULT"
		}
		return nil, &APIError{Code: code, Description: msg}
	}
	return first, nil
}

// serviceEndpoint derives the SOAP endpoint from the WSDL URL by dropping
// the ?wsdl query.
func serviceEndpoint(wsdlURL string) string {
	u, err := url.Parse(wsdlURL)
	if err != nil {
		return wsdlURL
	}
	u.RawQuery = ""
	return u.String()
}

var _ APIClient = (*SOAPAPIClient)(nil)
