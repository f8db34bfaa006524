// This file is part of Llama.
//
// Llama is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Llama is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Llama.  If not, see <https://www.gnu.org/licenses/>.

// Package test contains helper functions to remove common boilerplate from
// package tests. Tests fail through the testing.T value so failure reports
// point at the test and not at this package.
package test

import (
	"testing"
)

// Equate is used to test equality between one value and another.
func Equate(t *testing.T, value, expectedValue interface{}) {
	t.Helper()
	if value != expectedValue {
		t.Errorf("equation of type %T failed (%v  - wanted %v)", value, value, expectedValue)
	}
}

// ExpectedSuccess tests the value of the argument for a success condition
// appropriate to its type. Types bool and error are understood, as is nil.
func ExpectedSuccess(t *testing.T, v interface{}) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if !v {
			t.Errorf("expected success (bool)")
			return false
		}
	case error:
		if v != nil {
			t.Errorf("expected success (error: %v)", v)
			return false
		}
	case nil:
		// nil is always a success
	default:
		t.Fatalf("unsupported type (%T) for ExpectedSuccess()", v)
		return false
	}

	return true
}

// ExpectedFailure tests the value of the argument for a failure condition
// appropriate to its type. Types bool and error are understood, as is nil.
func ExpectedFailure(t *testing.T, v interface{}) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if v {
			t.Errorf("expected failure (bool)")
			return false
		}
	case error:
		if v == nil {
			t.Errorf("expected failure (error)")
			return false
		}
	case nil:
		t.Errorf("expected failure (nil)")
		return false
	default:
		t.Fatalf("unsupported type (%T) for ExpectedFailure()", v)
		return false
	}

	return true
}
