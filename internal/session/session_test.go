// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/syntaxchat/internal/model"
)

func TestThreadLifecycle(t *testing.T) {
	s := New("http://backend", "syntaxprime", nil)

	_, ok := s.ThreadID()
	assert.False(t, ok)
	assert.Nil(t, s.ThreadRef())

	s.AdoptThread("t1")
	id, ok := s.ThreadID()
	require.True(t, ok)
	assert.Equal(t, "t1", id)
	ref := s.ThreadRef()
	require.NotNil(t, ref)
	assert.Equal(t, "t1", *ref)

	s.ResetThread()
	assert.Nil(t, s.ThreadRef())
}

func TestPersona(t *testing.T) {
	s := New("http://backend", "a", nil)
	assert.Equal(t, "a", s.Persona())
	s.SetPersona("b")
	assert.Equal(t, "b", s.Persona())
	assert.Equal(t, "http://backend", s.BaseURL())
}

func TestAttachments(t *testing.T) {
	s := New("", "", nil)
	assert.Nil(t, s.Attachments())

	require.NoError(t, s.AddAttachment(model.Attachment{Name: "a.txt"}))
	got := s.Attachments()
	require.Len(t, got, 1)
	got[0].Name = "mutated"
	assert.Equal(t, "a.txt", s.Attachments()[0].Name)

	s.ClearAttachments()
	assert.Empty(t, s.Attachments())
}

func TestAddAttachment_RejectedInFlight(t *testing.T) {
	s := New("", "", nil)
	require.True(t, s.Guard().TryAdmit("hi", nil).Admitted)
	assert.True(t, s.InFlight())

	err := s.AddAttachment(model.Attachment{Name: "late.txt"})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, s.Attachments())

	s.Guard().Release()
	assert.NoError(t, s.AddAttachment(model.Attachment{Name: "late.txt"}))
}
