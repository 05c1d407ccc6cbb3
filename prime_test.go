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

package quadprobe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPrime(t *testing.T) {
	var primes []int
	for n := -5; n < 60; n++ {
		if isPrime(n) {
			primes = append(primes, n)
		}
	}
	require.Equal(t, []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59}, primes)

	require.True(t, isPrime(7919))
	require.False(t, isPrime(7917))
	require.False(t, isPrime(25))
	require.False(t, isPrime(49))
	require.True(t, isPrime(2147483647))
}

func TestNextPrime(t *testing.T) {
	testCases := []struct {
		n, expected int
	}{
		{-3, 2},
		{0, 2},
		{1, 2},
		{2, 2},
		{3, 3},
		{4, 5},
		{7, 7},
		{8, 11},
		{15, 17},
		{24, 29},
		{35, 37},
		{75, 79},
		{159, 163},
	}
	for _, c := range testCases {
		require.EqualValues(t, c.expected, nextPrime(c.n), "nextPrime(%d)", c.n)
	}
}
