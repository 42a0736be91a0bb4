// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wrapper

import "syscall"

// sigint is broken out as its own function only so call sites read as
// intent ("send SIGINT") rather than a bare package constant.
func sigint() syscall.Signal { return syscall.SIGINT }
