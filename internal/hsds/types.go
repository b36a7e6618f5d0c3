// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package hsds

import (
	"fmt"
	"strings"
)

// Operator is a comparison understood by the HSDS domain query language.
type Operator string

const (
	OpEq Operator = "=="
	OpLe Operator = "<="
	OpGe Operator = ">="
	OpLt Operator = "<"
	OpGt Operator = ">"
)

// Operators returns every supported operator in display order.
func Operators() []Operator {
	return []Operator{OpEq, OpLe, OpGe, OpLt, OpGt}
}

// ParseOperator maps the textual form of an operator to its constant.
func ParseOperator(s string) (Operator, bool) {
	s = strings.TrimSpace(s)
	for _, op := range Operators() {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// Clause is one attribute/operator/value condition of a domain query. Value is
// sent verbatim; callers quote string values before building a Clause.
type Clause struct {
	Attribute string
	Op        Operator
	Value     string
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %s", c.Attribute, c.Op, c.Value)
}

// Predicate joins clauses into the single query expression HSDS expects.
// An empty slice yields an empty predicate, meaning no filter.
func Predicate(clauses []Clause) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " AND ")
}

// Domain is a catalog entry returned by GET /domains.
type Domain struct {
	Root         string  `json:"root"`
	Class        string  `json:"class"`
	Owner        string  `json:"owner"`
	Name         string  `json:"name"`
	Created      float64 `json:"created"`
	LastModified float64 `json:"lastModified"`
}

// Attribute is one entry of a group's attribute map. Type and Shape are kept
// as the server sent them.
type Attribute struct {
	Type    any     `json:"type,omitempty"`
	Shape   any     `json:"shape,omitempty"`
	Value   any     `json:"value"`
	Created float64 `json:"created,omitempty"`
}

// Attributes maps attribute names to their server records.
type Attributes map[string]Attribute

// Values strips everything but the attribute values.
func (a Attributes) Values() map[string]any {
	out := make(map[string]any, len(a))
	for name, attr := range a {
		out[name] = attr.Value
	}
	return out
}

// ServerInfo is the subset of GET /about that the CLI reports.
type ServerInfo struct {
	Name     string  `json:"name"`
	About    string  `json:"about"`
	Version  string  `json:"hsds_version"`
	State    string  `json:"state"`
	Greeting string  `json:"greeting"`
	Started  float64 `json:"start_time"`
	Username string  `json:"username"`
}
