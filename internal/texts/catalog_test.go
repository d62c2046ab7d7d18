package texts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsComplete(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, c.Welcome)
	assert.NotEmpty(t, c.Menu.Add)
	assert.NotEmpty(t, c.Menu.Delete)
	assert.NotEmpty(t, c.Menu.List)
	assert.NotEmpty(t, c.Methods.Calendar)
	assert.NotEmpty(t, c.Methods.Manual)
	assert.Len(t, c.Calendar.Weekdays, 7)
	assert.Len(t, c.Calendar.Months, 12)

	for _, kind := range []string{"task_text", "method", "calendar", "hour", "minute", "manual_datetime", "delete_id"} {
		assert.NotEqual(t, kind, c.Prompt(kind), "missing prompt %q", kind)
	}
	for _, kind := range []string{"empty_text", "choose_option", "bad_datetime", "past_due", "bad_delete_id", "stale_button", "cancelled", "nothing_to_cancel", "use_menu"} {
		assert.NotEqual(t, kind, c.Notice(kind), "missing notice %q", kind)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texts.yaml")
	override := "menu:\n  add: \"Добавить задачу ➕\"\nnotices:\n  past_due: \"Слишком поздно\"\n"
	require.NoError(t, os.WriteFile(path, []byte(override), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Добавить задачу ➕", c.Menu.Add)
	assert.Equal(t, "Слишком поздно", c.Notice("past_due"))

	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def.Menu.List, c.Menu.List)
	assert.Equal(t, def.Notice("bad_datetime"), c.Notice("bad_datetime"))
}

func TestLoadRejectsBadCalendarNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calendar:\n  weekdays: [\"a\", \"b\"]\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFill(t *testing.T) {
	got := Fill("Task #{id}: {text}", "id", "3", "text", "Buy milk")
	assert.Equal(t, "Task #3: Buy milk", got)
	assert.Equal(t, "{x}", Fill("{x}"))
}
