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
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Weights of the complexity score
const (
	dirWeight       = 3
	fileWeight      = 1
	generatedWeight = 2
	commitWeight    = 2
)

var htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// Analyzer computes heuristics for pull request snapshots. It holds no state
// beyond its configuration and is safe for concurrent use.
type Analyzer struct {
	config *Config
}

// NewAnalyzer creates an analyzer with the given configuration.
// If config is nil, default configuration is used.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Analyzer{config: config}
}

// Size buckets the changed line count and the changed file count separately
// and returns the larger bucket
func (a *Analyzer) Size(s Snapshot) Size {
	lines := s.Additions + s.Deletions
	files := s.ChangedFiles
	if files == 0 {
		files = len(s.Files)
	}

	byLines := bucket(lines, a.config.SmallMaxLines, a.config.MediumMaxLines, a.config.LargeMaxLines)
	byFiles := bucket(files, a.config.SmallMaxFiles, a.config.MediumMaxFiles, a.config.LargeMaxFiles)
	return max(byLines, byFiles)
}

func bucket(n, small, medium, large int) Size {
	switch {
	case n <= small:
		return SizeSmall
	case n <= medium:
		return SizeMedium
	case n <= large:
		return SizeLarge
	default:
		return SizeHuge
	}
}

// Complexity scores how widely the change spreads. With a file list the
// score counts distinct directories, files, and generated or binary files;
// without one it falls back to changed-file and commit counts.
func (a *Analyzer) Complexity(s Snapshot) Complexity {
	score := a.Score(s)

	switch {
	case score >= a.config.ExtremeMinScore:
		return ComplexityExtreme
	case score >= a.config.HighMinScore:
		return ComplexityHigh
	case score >= a.config.ModerateMinScore:
		return ComplexityModerate
	default:
		return ComplexityLow
	}
}

// Score returns the raw complexity score
func (a *Analyzer) Score(s Snapshot) int {
	if s.Files == nil {
		return s.ChangedFiles*fileWeight + s.Commits*commitWeight
	}

	dirs := sets.New[string]()
	generated := 0
	for _, f := range s.Files {
		dirs.Insert(path.Dir(f.Filename))
		if f.Binary || a.IsGenerated(f.Filename) {
			generated++
		}
	}

	return dirs.Len()*dirWeight + len(s.Files)*fileWeight + generated*generatedWeight
}

// IsGenerated reports whether filename matches one of the generated patterns
func (a *Analyzer) IsGenerated(filename string) bool {
	base := path.Base(filename)
	for _, pattern := range a.config.GeneratedPatterns {
		if dir, ok := strings.CutSuffix(pattern, "/"); ok {
			if strings.HasPrefix(filename, dir+"/") || strings.Contains(filename, "/"+dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pattern, filename); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// HasSufficientContext reports whether the body explains the change: at least
// MinBodyLength characters once HTML comments are stripped, and every
// required section heading present
func (a *Analyzer) HasSufficientContext(s Snapshot) bool {
	body := strings.TrimSpace(htmlComment.ReplaceAllString(s.Body, ""))
	if utf8.RuneCountInString(body) < a.config.MinBodyLength {
		return false
	}

	lower := strings.ToLower(body)
	for _, section := range a.config.RequiredSections {
		if !strings.Contains(lower, strings.ToLower(section)) {
			return false
		}
	}
	return true
}
