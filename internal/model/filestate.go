// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// MaxUploadBytes is the largest file accepted for upload (10MB).
const MaxUploadBytes = 10 * 1024 * 1024

// AllowedMediaTypes lists the media types an upload may have.
var AllowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,
	"text/csv":        true,

	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// Upload errors.
var (
	ErrFileTooLarge      = errors.New("file size must be less than 10MB")
	ErrUnsupportedType   = errors.New("unsupported file type")
	ErrInvalidTransition = errors.New("invalid upload state transition")
)

// UploadStatus is the lifecycle stage of a FileState.
type UploadStatus string

const (
	StatusIdle      UploadStatus = "idle"
	StatusUploading UploadStatus = "uploading"
	StatusReady     UploadStatus = "ready"
	StatusError     UploadStatus = "error"
)

// FileState tracks one in-progress upload. It is never persisted; a sent
// message keeps only the Attachment derived from it.
//
// Transitions: idle -> uploading -> ready | error, and Reset from any state
// back to idle.
type FileState struct {
	Name    string
	Type    string
	Size    int64
	Preview string
	Status  UploadStatus
	Err     error
}

// NewFileState returns an idle FileState.
func NewFileState() *FileState {
	return &FileState{Status: StatusIdle}
}

// Begin starts a new upload, discarding whatever the state held before.
func (f *FileState) Begin() {
	f.Reset()
	f.Status = StatusUploading
}

// Accept validates the read file and moves to ready, or to error when the
// file is too large or of a type that is not allowed. The returned error is
// the one recorded in Err.
func (f *FileState) Accept(name, mediaType string, size int64, preview string) error {
	if f.Status != StatusUploading {
		return fmt.Errorf("%w: accept from %s", ErrInvalidTransition, f.Status)
	}
	switch {
	case size > MaxUploadBytes:
		f.Fail(ErrFileTooLarge)
		return ErrFileTooLarge
	case !AllowedMediaTypes[mediaType]:
		f.Fail(ErrUnsupportedType)
		return ErrUnsupportedType
	}

	f.Name = name
	f.Type = mediaType
	f.Size = size
	f.Preview = preview
	f.Status = StatusReady
	f.Err = nil
	return nil
}

// Fail records err and moves to the error state.
func (f *FileState) Fail(err error) {
	f.Status = StatusError
	f.Err = err
}

// Reset returns to idle and forgets the file.
func (f *FileState) Reset() {
	*f = FileState{Status: StatusIdle}
}

// HasFile reports whether a file has been read.
func (f *FileState) HasFile() bool {
	return f.Name != ""
}

// IsReady reports whether the file can be attached to a message.
func (f *FileState) IsReady() bool {
	return f.HasFile() && f.Status == StatusReady
}

// IsUploading reports whether an upload is in progress.
func (f *FileState) IsUploading() bool {
	return f.Status == StatusUploading
}

// HasError reports whether the last upload failed.
func (f *FileState) HasError() bool {
	return f.Status == StatusError
}

// Attachment returns the message attachment for a ready file, or nil.
func (f *FileState) Attachment() *Attachment {
	if !f.IsReady() {
		return nil
	}
	return &Attachment{Preview: f.Preview, Name: f.Name, Type: f.Type}
}
