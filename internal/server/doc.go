// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes a chat history store over HTTP for a local web
// client.
//
// Endpoints:
//   - GET    /health          - Health check
//   - GET    /api/chats       - Load the history, most recent first
//   - GET    /api/chats/:id   - One chat
//   - PUT    /api/chats       - Replace the history (queued; ?sync=true waits)
//   - POST   /api/flush       - Wait for queued saves
//   - DELETE /api/chats/:id   - Delete one chat
//   - DELETE /api/chats       - Clear the history
//   - GET    /api/stats       - Durable tier statistics
//
// Chats travel in their persisted record shape, the same JSON chatvault
// export writes.
package server
