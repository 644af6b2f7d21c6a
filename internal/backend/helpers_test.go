// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import "github.com/jeranaias/chatvault/internal/model"

func newChat(n int) *model.Chat {
	chat := model.NewChat("")
	for i := 0; i < n; i++ {
		chat.AddMessage(model.NewUserMessage("hello", nil))
	}
	return chat
}
