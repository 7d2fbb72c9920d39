// Copyright 2025 Kadir Pekel
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

package transport

import (
	"fmt"
	"time"
)

// RetryableError reports that a request kept receiving a retryable status
// until the retry budget ran out. The condition is transient: the caller
// may try the whole request again later.
type RetryableError struct {
	// StatusCode is the status of the last attempt.
	StatusCode int
	// Attempts is how many tries were spent, including the first.
	Attempts int
	// RetryAfter is the wait the server suggested for the last attempt,
	// zero when none was given.
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	msg := fmt.Sprintf("HTTP %d after %d attempts", e.StatusCode, e.Attempts)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (server suggests retry after %v)", e.RetryAfter)
	}
	return msg
}

// IsRetryable marks the error as safe to retry at a higher layer.
func (e *RetryableError) IsRetryable() bool { return true }
