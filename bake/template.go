// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidTemplate is returned for a save-name template with an unknown
// token or one that expands to an empty name.
var ErrInvalidTemplate = errors.New("bake: invalid save-name template")

// DefaultFile is substituted for (file) when no project file is set.
const DefaultFile = "untitled"

var tokenPattern = regexp.MustCompile(`\((.*?)\)`)

// Vars holds the values substituted into a save-name template.
type Vars struct {
	Object   string
	Material string
	File     string
	Set      string
}

func (v Vars) lookup(token string) (string, bool) {
	switch token {
	case "obj":
		return v.Object, true
	case "mtl":
		return v.Material, true
	case "file":
		if v.File == "" {
			return DefaultFile, true
		}
		return v.File, true
	case "set":
		return v.Set, true
	}
	return "", false
}

// Expand substitutes the tokens of tmpl. The result is NFC-normalized and
// stripped of characters that are not allowed in file names.
func Expand(tmpl string, v Vars) (string, error) {
	var unknown []string
	out := tokenPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		tok := m[1 : len(m)-1]
		s, ok := v.lookup(tok)
		if !ok {
			unknown = append(unknown, tok)
			return m
		}
		return s
	})
	if len(unknown) > 0 {
		return "", fmt.Errorf("%w: unknown token %q in %q", ErrInvalidTemplate, unknown[0], tmpl)
	}
	out = sanitize(norm.NFC.String(out))
	if out == "" {
		return "", fmt.Errorf("%w: %q expands to an empty name", ErrInvalidTemplate, tmpl)
	}
	return out, nil
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
	return strings.Trim(strings.TrimSpace(s), ".")
}
