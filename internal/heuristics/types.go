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

package heuristics

import (
	"fmt"
	"strings"
)

// Size buckets a pull request by changed lines and files. Values are ordered
// so predicates can compare with >.
type Size int

const (
	SizeSmall Size = iota
	SizeMedium
	SizeLarge
	SizeHuge
)

var sizeNames = []string{"small", "medium", "large", "huge"}

func (s Size) String() string {
	if s < 0 || int(s) >= len(sizeNames) {
		return fmt.Sprintf("Size(%d)", int(s))
	}
	return sizeNames[s]
}

// ParseSize converts a case-insensitive size name into a Size
func ParseSize(name string) (Size, error) {
	for i, n := range sizeNames {
		if strings.EqualFold(n, name) {
			return Size(i), nil
		}
	}
	return 0, fmt.Errorf("unknown size %q", name)
}

// Complexity buckets a pull request by how widely it spreads across the tree
type Complexity int

const (
	ComplexityLow Complexity = iota
	ComplexityModerate
	ComplexityHigh
	ComplexityExtreme
)

var complexityNames = []string{"low", "moderate", "high", "extreme"}

func (c Complexity) String() string {
	if c < 0 || int(c) >= len(complexityNames) {
		return fmt.Sprintf("Complexity(%d)", int(c))
	}
	return complexityNames[c]
}

// ParseComplexity converts a case-insensitive complexity name into a Complexity
func ParseComplexity(name string) (Complexity, error) {
	for i, n := range complexityNames {
		if strings.EqualFold(n, name) {
			return Complexity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown complexity %q", name)
}

// FileChange is one entry of a pull request's file list
type FileChange struct {
	Filename  string
	Additions int
	Deletions int
	Binary    bool
}

// Snapshot is the subset of pull request state the heuristics look at.
// Files is nil when the file list was not fetched.
type Snapshot struct {
	ChangedFiles int
	Additions    int
	Deletions    int
	Commits      int
	Body         string
	Files        []FileChange
}

// Config holds the heuristic thresholds
type Config struct {
	// Upper bounds (inclusive) of changed lines per size bucket
	SmallMaxLines  int `yaml:"small_max_lines"`
	MediumMaxLines int `yaml:"medium_max_lines"`
	LargeMaxLines  int `yaml:"large_max_lines"`

	// Upper bounds (inclusive) of changed files per size bucket
	SmallMaxFiles  int `yaml:"small_max_files"`
	MediumMaxFiles int `yaml:"medium_max_files"`
	LargeMaxFiles  int `yaml:"large_max_files"`

	// Lower bounds (inclusive) of the complexity score per bucket
	ModerateMinScore int `yaml:"moderate_min_score"`
	HighMinScore     int `yaml:"high_min_score"`
	ExtremeMinScore  int `yaml:"extreme_min_score"`

	// GeneratedPatterns are path.Match patterns, tested against both the full
	// path and the base name. A trailing "/" matches a directory prefix.
	GeneratedPatterns []string `yaml:"generated_patterns"`

	MinBodyLength    int      `yaml:"min_body_length"`
	RequiredSections []string `yaml:"required_sections"`
}

// DefaultConfig returns the default thresholds
func DefaultConfig() *Config {
	return &Config{
		SmallMaxLines:  100,
		MediumMaxLines: 500,
		LargeMaxLines:  2000,

		SmallMaxFiles:  5,
		MediumMaxFiles: 20,
		LargeMaxFiles:  50,

		ModerateMinScore: 10,
		HighMinScore:     25,
		ExtremeMinScore:  50,

		GeneratedPatterns: []string{
			"*.pb.go",
			"*_generated.*",
			"*.lock",
			"go.sum",
			"package-lock.json",
			"vendor/",
		},

		MinBodyLength: 40,
	}
}

// Validate checks that the thresholds are ascending
func (c *Config) Validate() error {
	if c.SmallMaxLines >= c.MediumMaxLines || c.MediumMaxLines >= c.LargeMaxLines {
		return fmt.Errorf("line thresholds must be ascending: %d, %d, %d",
			c.SmallMaxLines, c.MediumMaxLines, c.LargeMaxLines)
	}
	if c.SmallMaxFiles >= c.MediumMaxFiles || c.MediumMaxFiles >= c.LargeMaxFiles {
		return fmt.Errorf("file thresholds must be ascending: %d, %d, %d",
			c.SmallMaxFiles, c.MediumMaxFiles, c.LargeMaxFiles)
	}
	if c.ModerateMinScore >= c.HighMinScore || c.HighMinScore >= c.ExtremeMinScore {
		return fmt.Errorf("complexity thresholds must be ascending: %d, %d, %d",
			c.ModerateMinScore, c.HighMinScore, c.ExtremeMinScore)
	}
	if c.MinBodyLength < 0 {
		return fmt.Errorf("min body length must not be negative: %d", c.MinBodyLength)
	}
	return nil
}
