// Copyright (c) Waybridge Authors.
// Licensed under the MIT License.

// Package main is the waybridge command. It serves the line-oriented tool
// protocol on stdio, forwarding eligible tool calls to the local desktop
// automation backend, and optionally exposes websocket and metrics
// listeners.
package main
