/*
 * rvtrace - Plugin argument parsing.
 *
 * Copyright 2026, the rvtrace authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package pluginconfig parses the "key=value" argument vectors the host
// passes to an analysis core at install time.
package pluginconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// Error is a fatal, install-time configuration problem: a malformed
// argument, an unparseable value, or a geometry constraint violation.
// Key names are not checked: a key that no core reads is accepted and
// ignored.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func errf(format string, a ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, a...)}
}

// Values holds the parsed "key=value" pairs, keyed by name. Later
// occurrences of the same key overwrite earlier ones, matching a plugin
// argument vector where later flags win.
type Values struct {
	raw map[string]string
}

// Parse splits args into "key=value" pairs. A token without '=' is an error.
func Parse(args []string) (*Values, error) {
	v := &Values{raw: make(map[string]string, len(args))}
	for _, arg := range args {
		idx := strings.IndexByte(arg, '=')
		if idx < 0 {
			return nil, errf("malformed plugin argument %q: expected key=value", arg)
		}
		key := strings.TrimSpace(arg[:idx])
		val := strings.TrimSpace(arg[idx+1:])
		if key == "" {
			return nil, errf("malformed plugin argument %q: empty key", arg)
		}
		v.raw[key] = val
	}
	return v, nil
}

// Has reports whether key was set explicitly.
func (v *Values) Has(key string) bool {
	_, ok := v.raw[key]
	return ok
}

// Int returns the integer value of key, or def if unset.
func (v *Values) Int(key string, def int) (int, error) {
	s, ok := v.raw[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errf("option %s: %q is not an integer", key, s)
	}
	return n, nil
}

// Bool returns the boolean value of key, or def if unset. Accepted
// spellings are true/false/1/0/yes/no/on/off, case-insensitive.
func (v *Values) Bool(key string, def bool) (bool, error) {
	s, ok := v.raw[key]
	if !ok {
		return def, nil
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, errf("option %s: %q is not a boolean", key, s)
	}
}

// String returns the string value of key, or def if unset.
func (v *Values) String(key string, def string) string {
	s, ok := v.raw[key]
	if !ok {
		return def
	}
	return s
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ValidateGeometry enforces the §6 cache geometry constraints: size,
// block size, and associativity are all powers of two, and cachesize
// equals sets*assoc*blksize (sets is derived, so this reduces to
// cachesize being divisible by blksize*assoc, whose quotient is also a
// power of two).
func ValidateGeometry(label string, cacheSize, blkSize, assoc int) (numSets int, err error) {
	if !IsPowerOfTwo(blkSize) {
		return 0, errf("%s: blksize %d is not a power of two", label, blkSize)
	}
	if !IsPowerOfTwo(assoc) {
		return 0, errf("%s: assoc %d is not a power of two", label, assoc)
	}
	if !IsPowerOfTwo(cacheSize) {
		return 0, errf("%s: cachesize %d is not a power of two", label, cacheSize)
	}
	perSet := blkSize * assoc
	if cacheSize%perSet != 0 {
		return 0, errf("%s: cachesize %d not divisible by blksize*assoc (%d)", label, cacheSize, perSet)
	}
	numSets = cacheSize / perSet
	if !IsPowerOfTwo(numSets) {
		return 0, errf("%s: derived set count %d is not a power of two", label, numSets)
	}
	return numSets, nil
}
