// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashset

import (
	"fmt"
	"io"
	"os"
)

// invariants, when true, makes every mutating Set operation verify the
// table's invariants (contiguous-chain, payload-matches-hash,
// count-matches-occupancy, power-of-two bucket count with at least one free
// bucket) before returning. It is a variable rather than a constant so this
// package's own test binary can turn it on for the whole run (see TestMain
// in main_test.go); production builds never flip it, since checkInvariants
// walks every bucket on every mutation.
var invariants = false

// debug, when true, routes verbose probe-sequence tracing to debugWriter. It
// is a variable rather than a constant because tests flip it on and off
// around individual cases instead of per build.
var debug = false

var debugWriter io.Writer = os.Stderr

// SetDebugWriter redirects this package's debug tracing output, which is
// otherwise written to os.Stderr. It has no effect unless the package's
// internal debug flag is also enabled, which only this package's own tests
// can do; SetDebugWriter exists so those tests can capture trace output
// into a buffer instead of polluting test logs.
func SetDebugWriter(w io.Writer) {
	debugWriter = w
}

func tracef(format string, args ...any) {
	if debug {
		fmt.Fprintf(debugWriter, format, args...)
	}
}
