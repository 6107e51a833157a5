package models

import "postledger/pkg/domain"

// Attribute is one key/value pair reported back to the host.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BankSend instructs the host to move native funds out of the contract.
type BankSend struct {
	ToAddress domain.Address `json:"to_address"`
	Amount    domain.Coins   `json:"amount"`
}

// BankMsg is an outbound instruction for the asset-transfer primitive.
type BankMsg struct {
	Send *BankSend `json:"send,omitempty"`
}

// Response is the result of a successful instantiate or execute.
type Response struct {
	Attributes []Attribute `json:"attributes"`
	Messages   []BankMsg   `json:"messages"`
}

// NewResponse returns an empty response.
func NewResponse() *Response {
	return &Response{Attributes: []Attribute{}, Messages: []BankMsg{}}
}

// AddAttribute appends an attribute and returns the response for chaining.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// AddMessage appends an outbound instruction.
func (r *Response) AddMessage(msg BankMsg) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

// Attribute returns the value of the first attribute named key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
