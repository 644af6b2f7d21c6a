// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatvault/internal/model"
	"github.com/jeranaias/chatvault/internal/storage"
)

// =============================================================================
// HARNESS
// =============================================================================

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t           *testing.T
	root        string
	configPath  string
	dataDir     string
	interactive bool
}

// newHarness writes a config that disables the summarizer, plus any extra
// TOML sections, and points the data dir at a temp directory.
func newHarness(t *testing.T, extra string) *harness {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	for _, key := range []string{
		"CHATVAULT_DATA_DIR", "CHATVAULT_BACKEND_URL", "CHATVAULT_PROVIDER",
		"CHATVAULT_MODEL", "CHATVAULT_API_KEY", "CHATVAULT_LOG_LEVEL", "CHATVAULT_RESUMMARIZE",
		"CHATVAULT_SERVER_TOKEN", "CHATVAULT_PORT",
	} {
		t.Setenv(key, "")
	}

	h := &harness{
		t:          t,
		root:       root,
		configPath: filepath.Join(root, "config.toml"),
		dataDir:    filepath.Join(root, "data"),
	}
	cfg := "[summarizer]\nprovider = \"none\"\n\n[log]\nlevel = \"error\"\n\n" + extra
	require.NoError(t, os.WriteFile(h.configPath, []byte(cfg), 0600))
	return h
}

func (h *harness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(strings.NewReader(stdin), &stdout, &stderr)
	a.interactive = func() bool { return h.interactive }

	root := newRootCmd(a)
	root.SetArgs(append([]string{"--config", h.configPath, "--data-dir", h.dataDir}, args...))
	err := root.ExecuteContext(context.Background())
	require.NoError(h.t, a.teardown())
	return stdout.String(), stderr.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, stderr, err := h.run("", args...)
	require.NoError(h.t, err, "stderr: %s", stderr)
	return out
}

func fixtureChat(id, title string, msgs, offsetMin int, summary bool) *model.Chat {
	chat := &model.Chat{
		ID:          id,
		Title:       title,
		CreatedAt:   baseTime,
		LastUpdated: baseTime.Add(time.Duration(offsetMin) * time.Minute),
		HasSummary:  summary,
	}
	for i := 0; i < msgs; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleBot
		}
		msg := model.NewMessage(role, fmt.Sprintf("%s message %d", id, i))
		chat.Messages = append(chat.Messages, msg)
	}
	return chat
}

func (h *harness) writeExport(name string, chats ...*model.Chat) string {
	h.t.Helper()
	data, err := model.EncodeChats(chats)
	require.NoError(h.t, err)
	path := filepath.Join(h.root, name)
	require.NoError(h.t, os.WriteFile(path, data, 0600))
	return path
}

func (h *harness) seed() {
	h.t.Helper()
	path := h.writeExport("seed.json",
		fixtureChat("chat-a", "Alpha", 2, 0, false),
		fixtureChat("chat-b", "Beta", 3, 5, true),
	)
	h.mustRun("import", path)
}

func decodeExport(t *testing.T, data []byte) []*model.Chat {
	t.Helper()
	recs, err := model.DecodeRecords(data)
	require.NoError(t, err)
	chats, err := model.FromRecords(recs)
	require.NoError(t, err)
	return chats
}

// =============================================================================
// STATS
// =============================================================================

func TestStats_Empty(t *testing.T) {
	h := newHarness(t, "")

	out := h.mustRun("stats")

	assert.Contains(t, out, "Chat History Statistics")
	assert.Contains(t, out, "Total chats")
	assert.Contains(t, out, "0.00 MB")
}

func TestStats_JSON(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	out := h.mustRun("stats", "--json")

	var resp struct {
		Success bool                   `json:"success"`
		Data    storage.FormattedStats `json:"data"`
		Command string                 `json:"command"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "stats", resp.Command)
	assert.Equal(t, 2, resp.Data.TotalChats)
	assert.Equal(t, 1, resp.Data.ChatsWithSummary)
	assert.Equal(t, "0.00", resp.Data.TotalSizeMB)
}

// =============================================================================
// IMPORT / LIST / SHOW
// =============================================================================

func TestImport_ListShow(t *testing.T) {
	h := newHarness(t, "")
	path := h.writeExport("in.json",
		fixtureChat("chat-a", "Alpha", 2, 0, false),
		fixtureChat("chat-b", "Beta", 3, 5, true),
	)

	out := h.mustRun("import", path)
	assert.Contains(t, out, "Imported 2 chats (2 stored)")
	assert.Contains(t, out, "fast put: ok")
	assert.Contains(t, out, "durable replace: ok")

	list := h.mustRun("list")
	assert.Contains(t, list, "Chats (2)")
	assert.Less(t, strings.Index(list, "chat-b"), strings.Index(list, "chat-a"), "most recent first")
	assert.Contains(t, list, "Alpha")
	assert.Contains(t, list, "yes")

	show := h.mustRun("show", "chat-b")
	lines := strings.Split(strings.TrimSpace(show), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "user: chat-b message 0", lines[0])
	assert.Equal(t, "bot: chat-b message 1", lines[1])
}

func TestShow_Markdown(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	out := h.mustRun("show", "--markdown", "chat-b")
	assert.Contains(t, out, "Beta")
	assert.Contains(t, out, "chat-b message 2")
	assert.Contains(t, out, "Summarized")
}

func TestList_Empty(t *testing.T) {
	h := newHarness(t, "")
	assert.Contains(t, h.mustRun("list"), "No chats stored.")
}

func TestList_Limit(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	out := h.mustRun("list", "-n", "1")
	assert.Contains(t, out, "chat-b")
	assert.NotContains(t, out, "chat-a")
}

func TestShow_NotFound(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	_, _, err := h.run("", "show", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found: nope")
}

func TestImport_MergesByID(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	updated := fixtureChat("chat-a", "Alpha v2", 4, 10, false)
	path := h.writeExport("update.json", updated)
	out := h.mustRun("import", path)
	assert.Contains(t, out, "Imported 1 chats (2 stored)")

	chats := decodeExport(t, []byte(h.mustRun("export")))
	require.Len(t, chats, 2)
	assert.Equal(t, "chat-a", chats[0].ID)
	assert.Equal(t, "Alpha v2", chats[0].Title)
	assert.Len(t, chats[0].Messages, 4)
}

func TestImport_Replace(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	path := h.writeExport("only.json", fixtureChat("chat-c", "Gamma", 1, 0, false))
	h.mustRun("import", "--replace", path)

	chats := decodeExport(t, []byte(h.mustRun("export")))
	require.Len(t, chats, 1)
	assert.Equal(t, "chat-c", chats[0].ID)
}

func TestImport_FromStdin(t *testing.T) {
	h := newHarness(t, "")
	data, err := model.EncodeChats([]*model.Chat{fixtureChat("chat-s", "Stdin", 1, 0, false)})
	require.NoError(t, err)

	out, _, err := h.run(string(data), "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 chats")
}

func TestImport_CompactsOversizedChat(t *testing.T) {
	h := newHarness(t, "[compaction]\nthreshold_mb = 0.001\nfallback_keep = 5\n")
	path := h.writeExport("big.json", fixtureChat("chat-big", "Big", 40, 0, false))

	out := h.mustRun("import", path)
	assert.Contains(t, out, "truncated chat-big: 40 -> 5 messages")

	show := h.mustRun("show", "chat-big")
	lines := strings.Split(strings.TrimSpace(show), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "bot: chat-big message 35", lines[0], "newest messages kept")
}

func TestImport_Corrupt(t *testing.T) {
	h := newHarness(t, "")
	path := filepath.Join(h.root, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0600))

	_, _, err := h.run("", "import", path)
	assert.ErrorIs(t, err, model.ErrCorruptRecord)

	_, _, err = h.run("", "import", filepath.Join(h.root, "missing.json"))
	assert.Error(t, err)
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExport_Stdout(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	chats := decodeExport(t, []byte(h.mustRun("export")))
	require.Len(t, chats, 2)
	assert.Equal(t, "chat-b", chats[0].ID)
	assert.True(t, chats[0].HasSummary)
}

func TestExport_File(t *testing.T) {
	h := newHarness(t, "")
	h.seed()
	path := filepath.Join(h.root, "out", "backup.json")

	_, stderr, err := h.run("", "export", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 2 chats")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, decodeExport(t, data), 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExport_Markdown(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	out := h.mustRun("export", "--format", "markdown")
	assert.Contains(t, out, "# Chat History")
	assert.Less(t, strings.Index(out, "## Beta"), strings.Index(out, "## Alpha"))
	assert.Contains(t, out, "chat-a message 1")

	_, _, err := h.run("", "export", "--format", "pdf")
	assert.Error(t, err)
}

func TestExport_Empty(t *testing.T) {
	h := newHarness(t, "")
	assert.Equal(t, "[]", strings.TrimSpace(h.mustRun("export")))
}

// =============================================================================
// DELETE / CLEAR
// =============================================================================

func TestDelete(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	assert.Contains(t, h.mustRun("delete", "chat-a"), "Deleted: chat-a")

	list := h.mustRun("list")
	assert.NotContains(t, list, "chat-a")
	assert.Contains(t, list, "chat-b")

	_, _, err := h.run("", "delete", "chat-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestClear_RequiresConfirmation(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	_, _, err := h.run("", "clear")
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Contains(t, h.mustRun("list"), "Chats (2)")
}

func TestClear_Yes(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	assert.Contains(t, h.mustRun("clear", "--yes"), "Chat history cleared.")
	assert.Contains(t, h.mustRun("list"), "No chats stored.")
	assert.Equal(t, "[]", strings.TrimSpace(h.mustRun("export")))
}

func TestClear_Interactive(t *testing.T) {
	h := newHarness(t, "")
	h.seed()
	h.interactive = true

	out, _, err := h.run("n\n", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Continue? [y/N]")
	assert.Contains(t, out, "Cancelled.")
	assert.Contains(t, h.mustRun("list"), "Chats (2)")

	out, _, err = h.run("yes\n", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Chat history cleared.")
	assert.Contains(t, h.mustRun("list"), "No chats stored.")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t, "[compaction]\nsplit_ratio = 2.0\n")

	_, _, err := h.run("", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compaction.split_ratio")
}

func TestVerboseLogsStoreEvents(t *testing.T) {
	h := newHarness(t, "")

	_, stderr, err := h.run("", "--verbose", "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "LOAD_COMPLETE")

	_, stderr, err = h.run("", "list")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "LOAD_COMPLETE")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigShow_MasksSecrets(t *testing.T) {
	h := newHarness(t, "[server]\ntoken = \"hunter2\"\n")

	out, stderr, err := h.run("", "config", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "token:")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "provider: none")
	assert.Contains(t, stderr, filepath.Join(h.dataDir, storage.DatabaseFile))
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t, "")
	path := filepath.Join(h.root, "new", "chatvault.yaml")

	out := h.mustRun("config", "init", path)
	assert.Contains(t, out, "Wrote "+path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, _, err = h.run("", "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	h.mustRun("config", "init", "--force", path)

	// The written file loads back as a valid config.
	_, _, err = h.run("", "--config", path, "stats")
	require.NoError(t, err)
}

func TestConfigInit_DefaultLocation(t *testing.T) {
	h := newHarness(t, "")

	out := h.mustRun("config", "init", "--format", "json")
	assert.Contains(t, out, filepath.Join(h.root, ".chatvault", "config.json"))
	assert.FileExists(t, filepath.Join(h.root, ".chatvault", "config.json"))

	_, _, err := h.run("", "config", "init", "--format", "ini")
	assert.Error(t, err)
}

// =============================================================================
// SERVE
// =============================================================================

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServe(t *testing.T) {
	h := newHarness(t, "")
	h.seed()
	port := freePort(t)

	var stdout, stderr bytes.Buffer
	a := newApp(strings.NewReader(""), &stdout, &stderr)
	root := newRootCmd(a)
	root.SetArgs([]string{"--config", h.configPath, "--data-dir", h.dataDir, "serve", "--port", fmt.Sprint(port)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d", port)
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get(url + "/api/chats")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 20*time.Millisecond)

	var body struct {
		Chats []model.Record `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Len(t, body.Chats, 2)
	assert.Equal(t, "chat-b", body.Chats[0].ID)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	require.NoError(t, a.teardown())
	assert.Contains(t, stderr.String(), "Serving chat history on http://127.0.0.1:")
	assert.Contains(t, stderr.String(), "Server stopped.")
}

func TestServe_PortInUse(t *testing.T) {
	h := newHarness(t, "")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	_, _, err = h.run("", "serve", "--port", fmt.Sprint(port))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}

// =============================================================================
// HELPERS
// =============================================================================

func TestFitColumn(t *testing.T) {
	assert.Equal(t, "abc   ", fitColumn("abc", 6))
	assert.Equal(t, "abc...", fitColumn("abcdefghij", 6))
	assert.Equal(t, "", fitColumn("abc", 0))

	assert.Equal(t, "\u00e9  ", fitColumn("e\u0301", 3), "combining mark composed")

	wide := fitColumn("日本語テキスト", 6)
	assert.Equal(t, 6, runewidth.StringWidth(wide))
	assert.True(t, strings.HasPrefix(wide, "日"))
}

func TestMergeChats(t *testing.T) {
	existing := []*model.Chat{
		fixtureChat("a", "old a", 1, 0, false),
		fixtureChat("b", "b", 1, 1, false),
	}
	incoming := []*model.Chat{fixtureChat("a", "new a", 1, 2, false)}

	merged := mergeChats(existing, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, "new a", merged[0].Title)
	assert.Equal(t, "b", merged[1].ID)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "1.50 KB", formatBytes(1536))
	assert.Equal(t, "2.00 MB", formatBytes(2*1024*1024))

	assert.Equal(t, "never", formatTimeAgo(time.Time{}))
	assert.Equal(t, "just now", formatTimeAgo(time.Now()))
	assert.Equal(t, "3h ago", formatTimeAgo(time.Now().Add(-3*time.Hour-time.Minute)))
}
