// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package rules

import (
	"fmt"
	"sync"
)

// Registry holds the rules evaluated against every event. It is filled at
// startup and read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
	names map[string]struct{}
}

// NewRegistry creates a registry holding rules
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{names: map[string]struct{}{}}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a rule. Names must be unique and every rule needs a
// predicate and at least one action.
func (r *Registry) Register(rule Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule has no name")
	}
	if rule.Predicate == nil {
		return fmt.Errorf("rule %q has no predicate", rule.Name)
	}
	if len(rule.Actions) == 0 {
		return fmt.Errorf("rule %q has no actions", rule.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	if _, ok := r.names[rule.Name]; ok {
		return fmt.Errorf("rule %q already registered", rule.Name)
	}
	r.names[rule.Name] = struct{}{}
	r.rules = append(r.rules, rule)
	return nil
}

// Rules returns a snapshot of the registered rules in registration order
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.rules...)
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
