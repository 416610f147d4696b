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

// Package heuristics derives review-relevant metrics from a pull request.
//
// Three measures are provided, each a pure function of a Snapshot:
//
//   - Size buckets changed lines and changed files into Small, Medium, Large
//     or Huge. The larger of the two buckets wins.
//   - Complexity scores how many directories and files a change touches, with
//     extra weight for generated and binary files, and buckets the score into
//     Low, Moderate, High or Extreme.
//   - HasSufficientContext checks that the description is long enough and
//     carries every required section heading.
//
// Both enumerations are ordered, so callers compare buckets with < and >.
//
// Default Thresholds:
//
//	Size        lines <= 100 and files <= 5   Small
//	            lines <= 500 and files <= 20  Medium
//	            lines <= 2000 and files <= 50 Large
//	            otherwise                     Huge
//	Complexity  score >= 10 Moderate, >= 25 High, >= 50 Extreme
//
// Example usage:
//
//	analyzer := heuristics.NewAnalyzer(heuristics.DefaultConfig())
//	if analyzer.Size(snapshot) > heuristics.SizeMedium {
//	    // ask for more reviewers
//	}
package heuristics
