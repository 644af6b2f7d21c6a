// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileState_Lifecycle(t *testing.T) {
	fs := NewFileState()
	assert.Equal(t, StatusIdle, fs.Status)
	assert.Nil(t, fs.Attachment())

	fs.Begin()
	assert.True(t, fs.IsUploading())

	require.NoError(t, fs.Accept("chart.png", "image/png", 2048, "data:image/png;base64,AA"))
	assert.True(t, fs.IsReady())

	att := fs.Attachment()
	require.NotNil(t, att)
	assert.Equal(t, "chart.png", att.Name)
	assert.Equal(t, "image/png", att.Type)

	fs.Reset()
	assert.Equal(t, StatusIdle, fs.Status)
	assert.False(t, fs.HasFile())
}

func TestFileState_AcceptRejects(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		size      int64
		wantErr   error
	}{
		{"too large", "text/csv", MaxUploadBytes + 1, ErrFileTooLarge},
		{"unsupported type", "application/zip", 10, ErrUnsupportedType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := NewFileState()
			fs.Begin()

			err := fs.Accept("f", tc.mediaType, tc.size, "")
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, fs.HasError())
			assert.ErrorIs(t, fs.Err, tc.wantErr)
			assert.Nil(t, fs.Attachment())
		})
	}
}

func TestFileState_AcceptRequiresUploading(t *testing.T) {
	fs := NewFileState()
	err := fs.Accept("f.txt", "text/plain", 1, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusIdle, fs.Status)
}

func TestFileState_BeginClearsPreviousError(t *testing.T) {
	fs := NewFileState()
	fs.Begin()
	fs.Fail(ErrUnsupportedType)

	fs.Begin()
	assert.True(t, fs.IsUploading())
	assert.NoError(t, fs.Err)
}
