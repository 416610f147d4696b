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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tari-project/gh-pilot-sub000/internal/heuristics"
	"github.com/tari-project/gh-pilot-sub000/internal/predicate"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
)

// RuleSet is a loaded rules file
type RuleSet struct {
	Registry   *rules.Registry
	Heuristics *heuristics.Config
}

type ruleFile struct {
	Heuristics *heuristics.Config `yaml:"heuristics"`
	Rules      []ruleSpec         `yaml:"rules"`
}

type ruleSpec struct {
	Name    string        `yaml:"name"`
	When    predicateSpec `yaml:"when"`
	Actions []actionSpec  `yaml:"actions"`
}

type predicateSpec struct {
	Predicate string          `yaml:"predicate"`
	Arg       string          `yaml:"arg"`
	AnyOf     []predicateSpec `yaml:"any_of"`
}

type actionSpec struct {
	AddLabel       string     `yaml:"add_label"`
	RemoveLabel    string     `yaml:"remove_label"`
	CheckConflicts bool       `yaml:"check_conflicts"`
	Merge          *mergeSpec `yaml:"merge"`
}

type mergeSpec struct {
	MinAcks       int      `yaml:"min_acks"`
	MinReviews    int      `yaml:"min_reviews"`
	RequireChecks bool     `yaml:"require_checks"`
	MergeLabel    string   `yaml:"merge_label"`
	AutoMerge     bool     `yaml:"auto_merge"`
	AckPatterns   []string `yaml:"ack_patterns"`
}

// LoadRules reads and validates the rules file at path
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	set, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// ParseRules decodes a rules document. Heuristic thresholds missing from the
// document keep their defaults.
func ParseRules(data []byte) (*RuleSet, error) {
	file := ruleFile{Heuristics: heuristics.DefaultConfig()}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	if file.Heuristics == nil {
		file.Heuristics = heuristics.DefaultConfig()
	}
	if err := file.Heuristics.Validate(); err != nil {
		return nil, fmt.Errorf("heuristics: %w", err)
	}

	registry := &rules.Registry{}
	for i, spec := range file.Rules {
		rule, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, spec.Name, err)
		}
		if err := registry.Register(rule); err != nil {
			return nil, err
		}
	}

	return &RuleSet{Registry: registry, Heuristics: file.Heuristics}, nil
}

func (s ruleSpec) build() (rules.Rule, error) {
	p, err := s.When.build()
	if err != nil {
		return rules.Rule{}, err
	}

	actions := make([]rules.Action, 0, len(s.Actions))
	for i, a := range s.Actions {
		action, err := a.build()
		if err != nil {
			return rules.Rule{}, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, action)
	}

	return rules.Rule{Name: s.Name, Predicate: p, Actions: actions}, nil
}

func (s predicateSpec) build() (predicate.Predicate, error) {
	if len(s.AnyOf) > 0 {
		if s.Predicate != "" {
			return nil, errors.New("predicate and any_of are mutually exclusive")
		}
		members := make([]predicate.Predicate, 0, len(s.AnyOf))
		for _, m := range s.AnyOf {
			p, err := m.build()
			if err != nil {
				return nil, err
			}
			members = append(members, p)
		}
		return predicate.AnyOf{Predicates: members}, nil
	}
	if s.Predicate == "" {
		return nil, errors.New("missing predicate")
	}
	return predicate.Parse(s.Predicate, s.Arg)
}

func (s actionSpec) build() (rules.Action, error) {
	var out []rules.Action
	if s.AddLabel != "" {
		out = append(out, rules.AddLabel{Label: s.AddLabel})
	}
	if s.RemoveLabel != "" {
		out = append(out, rules.RemoveLabel{Label: s.RemoveLabel})
	}
	if s.CheckConflicts {
		out = append(out, rules.CheckConflicts{})
	}
	if s.Merge != nil {
		merge, err := s.Merge.build()
		if err != nil {
			return nil, err
		}
		out = append(out, merge)
	}

	switch len(out) {
	case 0:
		return nil, errors.New("empty action")
	case 1:
		return out[0], nil
	default:
		return nil, fmt.Errorf("an action entry must name exactly one action, got %d", len(out))
	}
}

func (s mergeSpec) build() (rules.Action, error) {
	if s.MinAcks < 0 || s.MinReviews < 0 {
		return nil, fmt.Errorf("merge thresholds must not be negative: min_acks=%d min_reviews=%d", s.MinAcks, s.MinReviews)
	}
	isAck, err := rules.AckMatcher(s.AckPatterns...)
	if err != nil {
		return nil, fmt.Errorf("ack_patterns: %w", err)
	}
	return rules.Merge{Params: rules.MergeParams{
		MinAcks:       s.MinAcks,
		MinReviews:    s.MinReviews,
		RequireChecks: s.RequireChecks,
		MergeLabel:    s.MergeLabel,
		AutoMerge:     s.AutoMerge,
		IsAck:         isAck,
	}}, nil
}
