package dbgpcodec

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Node is a generic attribute/text/child tree, the shape the codec parses
// every inbound DBGp message into before any typed interpretation.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Attr returns an attribute value and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Find returns the first direct child with the given local name.
func (n *Node) Find(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FindAll returns every direct child with the given local name.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ParseXML decodes a single DBGp XML payload into a generic Node tree.
func ParseXML(data []byte) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, Attrs: map[string]string{}}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("dbgpcodec: no root element in payload")
	}
	return root, nil
}

// ResponseMeta is the set of attributes common to every <response>.
type ResponseMeta struct {
	Command       string
	TransactionID int
	Status        string
	Reason        string
}

// ParseResponseMeta extracts the common envelope attributes from a
// <response> root node. Missing transaction_id yields -1.
func ParseResponseMeta(root *Node) ResponseMeta {
	meta := ResponseMeta{TransactionID: -1}
	if cmd, ok := root.Attr("command"); ok {
		meta.Command = cmd
	}
	if tid, ok := root.Attr("transaction_id"); ok {
		if n, err := strconv.Atoi(tid); err == nil {
			meta.TransactionID = n
		}
	}
	if status, ok := root.Attr("status"); ok {
		meta.Status = status
	}
	if reason, ok := root.Attr("reason"); ok {
		meta.Reason = reason
	}
	return meta
}

// ErrorInfo is decoded from a <response><error code="..."><message>.
type ErrorInfo struct {
	Code    int
	Message string
}

// FindError returns the decoded <error> child of a response, if present.
func FindError(root *Node) (*ErrorInfo, bool) {
	e := root.Find("error")
	if e == nil {
		return nil, false
	}
	code := 0
	if c, ok := e.Attr("code"); ok {
		code, _ = strconv.Atoi(c)
	}
	msg := ""
	if m := e.Find("message"); m != nil {
		msg = strings.TrimSpace(m.Text)
	}
	return &ErrorInfo{Code: code, Message: msg}, true
}
