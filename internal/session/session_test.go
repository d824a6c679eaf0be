package session

import (
	"errors"
	"testing"

	"github.com/runnerr0/histview/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageOf(fileID string, page, total int) api.HistoryPage {
	return api.HistoryPage{
		FileID:     fileID,
		Page:       page,
		PageSize:   10,
		TotalPages: total,
		Entries:    []api.HistoryEntry{{URL: "https://example.org", Domain: "example.org"}},
	}
}

func TestNew_IsIdle(t *testing.T) {
	s := New(10)
	assert.Equal(t, Idle, s.Phase)
	assert.Nil(t, s.Current())
	assert.Empty(t, s.FileID)
}

func TestUpload_LoadsFirstPage(t *testing.T) {
	s, tk := New(10).BeginUpload("/tmp/History")
	assert.Equal(t, Loading, s.Phase)
	assert.Equal(t, OpUpload, tk.Op)
	assert.Equal(t, 1, tk.Page)
	assert.Equal(t, 10, tk.PageSize)

	s, ok := s.Complete(tk, pageOf("abc", 1, 4))
	require.True(t, ok)
	assert.Equal(t, Loaded, s.Phase)
	assert.Equal(t, "abc", s.FileID)
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, 4, s.TotalPages)
	require.NotNil(t, s.Current())
}

func TestUpload_ResetsToPageOne(t *testing.T) {
	s, tk := New(10).BeginResume("old")
	s, _ = s.Complete(tk, pageOf("old", 1, 9))
	s, tk, _ = s.BeginPage(7)
	s, _ = s.Complete(tk, pageOf("old", 7, 9))
	require.Equal(t, 7, s.CurrentPage)

	s, tk = s.BeginUpload("/tmp/places.sqlite")
	assert.Equal(t, 1, tk.Page)
	s, _ = s.Complete(tk, pageOf("new", 1, 2))
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, "new", s.FileID)
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	s0 := New(10)
	s1, _ := s0.BeginUpload("x")
	assert.Equal(t, Idle, s0.Phase)
	assert.Equal(t, uint64(0), s0.Gen)
	assert.Equal(t, uint64(1), s1.Gen)
}

func TestBeginPage_RequiresFile(t *testing.T) {
	s := New(10)
	next, _, ok := s.BeginPage(2)
	assert.False(t, ok)
	assert.Equal(t, s, next)
}

func TestBeginPage_Clamps(t *testing.T) {
	s, tk := New(10).BeginResume("f")
	s, _ = s.Complete(tk, pageOf("f", 1, 5))

	_, tk, ok := s.BeginPage(99)
	require.True(t, ok)
	assert.Equal(t, 5, tk.Page)

	_, tk, _ = s.BeginPage(0)
	assert.Equal(t, 1, tk.Page)
}

func TestComplete_NormalisesEmptyResult(t *testing.T) {
	s, tk := New(10).BeginUpload("empty")
	s, ok := s.Complete(tk, api.HistoryPage{FileID: "e", Page: 1, TotalPages: 0})
	require.True(t, ok)
	assert.Equal(t, 1, s.TotalPages)
	assert.Equal(t, 1, s.CurrentPage)
	assert.GreaterOrEqual(t, s.TotalPages, s.CurrentPage)
}

func TestStaleGenerationDropped(t *testing.T) {
	s, tk := New(10).BeginResume("f")
	s, _ = s.Complete(tk, pageOf("f", 1, 10))

	s, slow, _ := s.BeginPage(2)
	s, fast, _ := s.BeginPage(3)
	require.Greater(t, fast.Gen, slow.Gen)

	s, ok := s.Complete(fast, pageOf("f", 3, 10))
	require.True(t, ok)
	assert.Equal(t, 3, s.CurrentPage)

	// The older request finishing later must not overwrite page 3
	after, ok := s.Complete(slow, pageOf("f", 2, 10))
	assert.False(t, ok)
	assert.Equal(t, s, after)

	after, ok = s.Fail(slow, errors.New("late failure"))
	assert.False(t, ok)
	assert.Equal(t, Loaded, after.Phase)
}

func TestStaleWhileStillLoading(t *testing.T) {
	s, tk := New(10).BeginResume("f")
	s, _ = s.Complete(tk, pageOf("f", 1, 10))

	s, first, _ := s.BeginPage(2)
	s, second, _ := s.BeginPage(3)

	next, ok := s.Complete(first, pageOf("f", 2, 10))
	assert.False(t, ok)
	assert.Equal(t, Loading, next.Phase)
	assert.True(t, next.Pending(second))
}

func TestFail_TransportKeepsFile(t *testing.T) {
	s, tk := New(10).BeginResume("f")
	s, _ = s.Complete(tk, pageOf("f", 1, 3))

	s, tk, _ = s.BeginPage(2)
	s, ok := s.Fail(tk, &api.TransportError{Op: "load page", Status: 502})
	require.True(t, ok)
	assert.Equal(t, LoadFailed, s.Phase)
	assert.Equal(t, "f", s.FileID)
	assert.Nil(t, s.Current())
	require.NotNil(t, s.Page, "previous page stays available")
	assert.Equal(t, 1, s.CurrentPage)
	assert.Error(t, s.Err)

	s = s.Dismiss()
	assert.Equal(t, Loaded, s.Phase)
	assert.NoError(t, s.Err)
}

func TestFail_InvalidFileIDReturnsToIdle(t *testing.T) {
	s, tk := New(10).BeginResume("stale")
	s, ok := s.Fail(tk, &api.InvalidFileIDError{FileID: "stale", Server: api.ServerError{Status: 400, Message: "Invalid file ID"}})
	require.True(t, ok)

	assert.Equal(t, Idle, s.Phase)
	assert.Empty(t, s.FileID)
	assert.Nil(t, s.Page)
	assert.Equal(t, "Invalid file ID", api.UserMessage(s.Err))

	s = s.Dismiss()
	assert.Equal(t, Idle, s.Phase)
	assert.NoError(t, s.Err)
}

func TestDismiss_WithoutPageGoesIdle(t *testing.T) {
	s, tk := New(10).BeginUpload("x")
	s, _ = s.Fail(tk, errors.New("boom"))
	assert.Equal(t, LoadFailed, s.Phase)
	assert.Equal(t, Idle, s.Dismiss().Phase)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "load_failed", LoadFailed.String())
}
