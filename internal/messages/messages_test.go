package messages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	assert.Equal(t, English, Detect("hello, send me a link"))
	assert.Equal(t, English, Detect(""))
	assert.Equal(t, English, Detect("https://vm.tiktok.com/ZMabc123/"))
	assert.Equal(t, Burmese, Detect("ဗီဒီယို ပေးပါ"))
	assert.Equal(t, Burmese, Detect("please ဒေါင်းလုပ် this"), "mixed text counts as Burmese")
}

func TestPick(t *testing.T) {
	t.Run("unpinned catalog detects per message", func(t *testing.T) {
		c := New("")
		assert.Equal(t, English, c.Pick("hello"))
		assert.Equal(t, Burmese, c.Pick("မင်္ဂလာပါ"))
	})

	t.Run("pinned catalog ignores the text", func(t *testing.T) {
		c := New(Burmese)
		assert.Equal(t, Burmese, c.Pick("hello"))

		c = New(English)
		assert.Equal(t, English, c.Pick("မင်္ဂလာပါ"))
	})
}

func TestGet(t *testing.T) {
	c := New("")

	assert.Contains(t, c.Get(English, Welcome), "Welcome")
	assert.Contains(t, c.Get(Burmese, Welcome), "ကြိုဆိုပါတယ်")

	t.Run("unknown locale falls back to English", func(t *testing.T) {
		assert.Equal(t, c.Get(English, Welcome), c.Get(Locale("fr"), Welcome))
	})

	t.Run("every id has both locales", func(t *testing.T) {
		for id, byLocale := range table {
			assert.NotEmpty(t, byLocale[English], "id %q is missing English", id)
			assert.NotEmpty(t, byLocale[Burmese], "id %q is missing Burmese", id)
		}
	})
}

func TestGetf(t *testing.T) {
	c := New("")

	stats := c.Getf(English, Stats, int64(99), int64(12), int64(48))
	assert.Contains(t, stats, "99")
	assert.Contains(t, stats, "12")
	assert.Contains(t, stats, "48")
	assert.False(t, strings.Contains(stats, "%!"), "argument count must match the template")

	failed := c.Getf(Burmese, DownloadFailed, "upstream timeout")
	assert.Contains(t, failed, "upstream timeout")
}
