package servlettest

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/shapestone/shape-core/pkg/ast"

	"github.com/shapestone/shape-httpmock/internal/fastparser"
	"github.com/shapestone/shape-httpmock/internal/parser"
	"github.com/shapestone/shape-httpmock/pkg/servlet"
)

// RecordedResponse is what a committed response sent, read back from the
// recorders.
type RecordedResponse struct {
	Protocol   string
	StatusCode int
	Reason     string
	Header     servlet.Header
	Body       []byte
}

func (r *ResponseMock) recorded(op string) ([]byte, error) {
	if !r.committed {
		return nil, servlet.NewStateError(op, "response not committed")
	}
	data := make([]byte, 0, r.headerRecorder.Len()+r.bodyRecorder.Len())
	data = append(data, r.headerRecorder.Bytes()...)
	data = append(data, r.bodyRecorder.Bytes()...)
	return data, nil
}

// Result parses what the response sent so far. Body holds only bytes that
// were flushed or closed out, not the pending buffer.
func (r *ResponseMock) Result() (*RecordedResponse, error) {
	data, err := r.recorded("Result")
	if err != nil {
		return nil, err
	}
	resp, err := fastparser.ParseResponse(data)
	if err != nil {
		return nil, fmt.Errorf("servlettest: Result: %w", err)
	}

	h := make(servlet.Header, len(resp.Headers))
	for _, kv := range resp.Headers {
		h.Add(kv.Key, kv.Value)
	}
	return &RecordedResponse{
		Protocol:   resp.Version,
		StatusCode: resp.StatusCode,
		Reason:     resp.Reason,
		Header:     h,
		Body:       resp.Body,
	}, nil
}

// ResultNode returns what the response sent as a shape-core AST.
func (r *ResponseMock) ResultNode() (ast.SchemaNode, error) {
	data, err := r.recorded("ResultNode")
	if err != nil {
		return nil, err
	}
	node, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("servlettest: ResultNode: %w", err)
	}
	return node, nil
}

// DecodeJSON unmarshals the sent body into v.
func (r *ResponseMock) DecodeJSON(v interface{}) error {
	if r.bodyRecorder.Len() == 0 {
		return errors.New("servlettest: DecodeJSON: no body sent")
	}
	if err := jsoniter.ConfigFastest.Unmarshal(r.bodyRecorder.Bytes(), v); err != nil {
		return fmt.Errorf("servlettest: DecodeJSON: %w", err)
	}
	return nil
}
