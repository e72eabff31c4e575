// Copyright (c) Waybridge Authors.
// Licensed under the MIT License.

/*
Package bridge implements the line-protocol pipeline between a controller
process and the automation backend.

# Overview

One request per input line, one response per output line, in input order.
The pipeline stages are:

  - LineReader  — splits the input stream into raw lines
  - DecodeRequest — parses a line into a types.Request, or a decode failure
  - Dispatcher  — resolves the tool name against the Registry and either
    forwards to the backend, answers not-implemented, or answers unknown-tool
  - Writer      — emits exactly one envelope line per outcome and appends a
    best-effort audit record

Session ties the stages together: lines are processed concurrently up to a
configured bound, and a sequencer restores input order at the writer. No
request failure is fatal; the session ends only when a stream is lost.

# Registry

The tool table is immutable after construction. Forwarding a new tool to the
backend is a new ToolEntry with a path; the dispatcher logic never changes.
*/
package bridge
