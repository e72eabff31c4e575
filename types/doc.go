// Copyright (c) Waybridge Authors.
// Licensed under the MIT License.

/*
Package types provides the shared type contracts of the waybridge process.

types is the lowest-level package and depends on nothing internal. It defines
the request/outcome pair flowing through the bridge pipeline and the
structured error taxonomy every other package maps onto.

Core types:

  - Request          — one decoded protocol request (tool + argument map)
  - Outcome          — the Success/Failure result of processing one Request
  - Error / ErrorCode — structured error taxonomy (decode, unknown tool,
    not implemented, backend unreachable, backend malformed response)

The invariant the rest of the code is built around: exactly one Outcome is
produced per Request, and exactly one output line is emitted per input line,
in input order.
*/
package types
