// Package parser turns a recorded response into a shape-core AST so tests can
// walk or compare it structurally.
//
// The recorded response maps to an ObjectNode:
//
//	{ "type": "response", "version": "HTTP/1.1", "statusCode": 200,
//	  "reason": "OK",
//	  "headers": [{"key": "Content-Type", "value": "text/plain"}, ...],
//	  "bodyLength": 5,
//	  "body": "..." }
//
// "body" is present only when the response carried one.
package parser

import (
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
	"github.com/shapestone/shape-httpmock/internal/fastparser"
)

var zeroPos = ast.Position{}

// Parse parses recorded response bytes into an ObjectNode.
func Parse(data []byte) (ast.SchemaNode, error) {
	resp, err := fastparser.ParseResponse(data)
	if err != nil {
		return nil, err
	}
	return ResponseToNode(resp), nil
}

// ResponseToNode converts a parsed response to its AST form.
func ResponseToNode(resp *fastparser.Response) ast.SchemaNode {
	props := map[string]ast.SchemaNode{
		"type":       ast.NewLiteralNode("response", zeroPos),
		"version":    ast.NewLiteralNode(resp.Version, zeroPos),
		"statusCode": ast.NewLiteralNode(int64(resp.StatusCode), zeroPos),
		"reason":     ast.NewLiteralNode(resp.Reason, zeroPos),
		"headers":    headersToNode(resp.Headers),
		"bodyLength": ast.NewLiteralNode(int64(len(resp.Body)), zeroPos),
	}
	if resp.Body != nil {
		props["body"] = ast.NewLiteralNode(string(resp.Body), zeroPos)
	}
	return ast.NewObjectNode(props, zeroPos)
}

func headersToNode(headers []fastparser.Header) ast.SchemaNode {
	elements := make([]ast.SchemaNode, len(headers))
	for i, h := range headers {
		elements[i] = ast.NewObjectNode(map[string]ast.SchemaNode{
			"key":   ast.NewLiteralNode(h.Key, zeroPos),
			"value": ast.NewLiteralNode(h.Value, zeroPos),
		}, zeroPos)
	}
	return ast.NewArrayDataNode(elements, zeroPos)
}

// NodeToResponse converts an ObjectNode produced by ResponseToNode back into
// a response.
func NodeToResponse(node ast.SchemaNode) (*fastparser.Response, error) {
	obj, ok := node.(*ast.ObjectNode)
	if !ok {
		return nil, fmt.Errorf("parser: expected ObjectNode, got %T", node)
	}

	props := obj.Properties()
	resp := &fastparser.Response{
		Version: stringProp(props, "version"),
		Reason:  stringProp(props, "reason"),
	}
	if lit, ok := props["statusCode"].(*ast.LiteralNode); ok {
		switch code := lit.Value().(type) {
		case int64:
			resp.StatusCode = int(code)
		case float64:
			resp.StatusCode = int(code)
		}
	}
	if v, ok := props["headers"]; ok {
		hdrs, err := nodeToHeaders(v)
		if err != nil {
			return nil, err
		}
		resp.Headers = hdrs
	}
	if _, ok := props["body"]; ok {
		resp.Body = []byte(stringProp(props, "body"))
	}
	return resp, nil
}

func nodeToHeaders(node ast.SchemaNode) ([]fastparser.Header, error) {
	arr, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return nil, fmt.Errorf("parser: expected ArrayDataNode for headers, got %T", node)
	}

	elements := arr.Elements()
	headers := make([]fastparser.Header, 0, len(elements))
	for _, elem := range elements {
		obj, ok := elem.(*ast.ObjectNode)
		if !ok {
			return nil, fmt.Errorf("parser: expected ObjectNode for header, got %T", elem)
		}
		props := obj.Properties()
		headers = append(headers, fastparser.Header{
			Key:   stringProp(props, "key"),
			Value: stringProp(props, "value"),
		})
	}
	return headers, nil
}

func stringProp(props map[string]ast.SchemaNode, name string) string {
	lit, ok := props[name].(*ast.LiteralNode)
	if !ok {
		return ""
	}
	s, _ := lit.Value().(string)
	return s
}
