package server

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/wordspell/pkg/config"
	"github.com/bastiangx/wordspell/pkg/lexicon"
	"github.com/bastiangx/wordspell/pkg/speller"
	"github.com/bastiangx/wordspell/pkg/userdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	b := lexicon.NewBuilder()
	for w, wt := range map[string]float64{"hello": 1, "help": 2, "world": 1, "word": 2} {
		require.NoError(t, b.Add(w, wt))
	}
	path := filepath.Join(t.TempDir(), "en.wsl")
	require.NoError(t, b.WriteFile(path, lexicon.Metadata{
		Locale:     "en",
		Marker:     "@",
		ErrorModel: lexicon.DefaultErrorModel(),
	}))

	sp, err := speller.Open(path, speller.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { sp.Close() })

	return NewServer(sp, userdict.NewMemory(), config.DefaultConfig())
}

// run feeds requests to a JSON server and returns the response lines after "ready".
func run(t *testing.T, s *Server, requests ...string) []string {
	t.Helper()
	var out bytes.Buffer
	s.SetIO(strings.NewReader(strings.Join(requests, "\n")), &out)
	require.NoError(t, s.Start())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "ready", gjson.Get(lines[0], "status").String())
	return lines[1:]
}

func TestServerCheck(t *testing.T) {
	s := newTestServer(t)
	got := run(t, s,
		`{"id":"1","command":"check","word":"hello"}`,
		`{"id":"2","command":"check","word":"helo"}`,
		`{"id":"3","command":"check","word":"42"}`,
		`{"id":"4","command":"check"}`,
	)
	require.Len(t, got, 4)

	assert.True(t, gjson.Get(got[0], "ok").Bool())
	assert.Equal(t, "1", gjson.Get(got[0], "id").String())
	assert.True(t, gjson.Get(got[0], "t").Exists())
	assert.False(t, gjson.Get(got[1], "ok").Bool())
	assert.True(t, gjson.Get(got[2], "ok").Bool())
	assert.Equal(t, int64(400), gjson.Get(got[3], "c").Int())
	assert.Equal(t, "4", gjson.Get(got[3], "id").String())
}

func TestServerSuggest(t *testing.T) {
	s := newTestServer(t)
	got := run(t, s,
		`{"id":"1","command":"suggest","word":"wrold","limit":1}`,
		`{"id":"2","command":"suggest","word":"wor","before":"hello wor","after":""}`,
		`{"id":"3","command":"suggest","word":""}`,
	)
	require.Len(t, got, 3)

	assert.Equal(t, int64(1), gjson.Get(got[0], "n").Int())
	assert.Equal(t, "world", gjson.Get(got[0], "s.0.w").String())
	assert.Equal(t, 6.0, gjson.Get(got[0], "s.0.wt").Float())
	assert.Equal(t, "unknown", gjson.Get(got[0], "s.0.c").String())
	assert.Equal(t, int64(1), gjson.Get(got[0], "s.0.r").Int())

	assert.Equal(t, "world", gjson.Get(got[1], "s.0.w").String())
	assert.Equal(t, "true", gjson.Get(got[1], "s.0.c").String())

	assert.Equal(t, int64(0), gjson.Get(got[2], "n").Int())
	assert.True(t, gjson.Get(got[2], "s").IsArray())
}

func TestServerSegment(t *testing.T) {
	s := newTestServer(t)
	got := run(t, s,
		`{"command":"segment","before":"one two thr","after":"ee four five"}`,
		`{"command":"segment"}`,
	)
	require.Len(t, got, 2)

	assert.Equal(t, "three", gjson.Get(got[0], "cur").String())
	assert.Equal(t, int64(8), gjson.Get(got[0], "off").Int())
	assert.Equal(t, "two", gjson.Get(got[0], "b1").String())
	assert.Equal(t, "one", gjson.Get(got[0], "b2").String())
	assert.Equal(t, "four", gjson.Get(got[0], "a1").String())
	assert.Equal(t, "five", gjson.Get(got[0], "a2").String())
	assert.Equal(t, int64(400), gjson.Get(got[1], "c").Int())
}

func TestServerUserDict(t *testing.T) {
	s := newTestServer(t)
	got := run(t, s,
		`{"command":"check","word":"gofmt"}`,
		`{"command":"learn","word":"Gofmt"}`,
		`{"command":"check","word":"gofmt"}`,
		`{"command":"suggest","word":"gofmt"}`,
		`{"command":"forget","word":"gofmt"}`,
		`{"command":"check","word":"gofmt"}`,
		`{"command":"learn","word":" "}`,
	)
	require.Len(t, got, 7)

	assert.False(t, gjson.Get(got[0], "ok").Bool())
	assert.Equal(t, "ok", gjson.Get(got[1], "status").String())
	assert.True(t, gjson.Get(got[2], "ok").Bool())
	assert.Equal(t, "gofmt", gjson.Get(got[3], "s.0.w").String())
	assert.Equal(t, 0.0, gjson.Get(got[3], "s.0.wt").Float())
	assert.False(t, gjson.Get(got[5], "ok").Bool())
	assert.Equal(t, int64(400), gjson.Get(got[6], "c").Int())
}

func TestServerUserDictDisabled(t *testing.T) {
	s := newTestServer(t)
	s.dict = nil
	got := run(t, s, `{"command":"learn","word":"gofmt"}`)
	require.Len(t, got, 1)
	assert.Equal(t, int64(503), gjson.Get(got[0], "c").Int())
}

func TestServerBadRequests(t *testing.T) {
	s := newTestServer(t)
	got := run(t, s,
		`{"command":`,
		`{"command":"fly"}`,
		`{"word":"x"}`,
		``,
		`{"command":"health","id":"h"}`,
	)
	require.Len(t, got, 4)

	for _, line := range got[:3] {
		assert.Equal(t, int64(400), gjson.Get(line, "c").Int(), line)
	}
	assert.Contains(t, gjson.Get(got[1], "e").String(), "fly")
	assert.Equal(t, "ok", gjson.Get(got[3], "status").String())
	assert.Equal(t, "en", gjson.Get(got[3], "locale").String())
}

func TestServerClosedEngine(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.speller.Close())

	got := run(t, s,
		`{"command":"check","word":"hello"}`,
		`{"command":"suggest","word":"hello"}`,
		`{"command":"health"}`,
	)
	require.Len(t, got, 3)
	for _, line := range got {
		assert.Equal(t, int64(503), gjson.Get(line, "c").Int(), line)
	}
}

func TestServerMsgpack(t *testing.T) {
	s := newTestServer(t)
	s.UseMsgpack(true)

	var in bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	word := "wrold"
	require.NoError(t, enc.Encode(Request{ID: "m1", Command: "suggest", Word: &word, Limit: 2}))
	require.NoError(t, enc.Encode(Request{ID: "m2", Command: "check", Word: &word}))

	var out bytes.Buffer
	s.SetIO(&in, &out)
	require.NoError(t, s.Start())

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)

	var sug SuggestResponse
	require.NoError(t, dec.Decode(&sug))
	assert.Equal(t, "m1", sug.ID)
	require.NotEmpty(t, sug.Suggestions)
	assert.LessOrEqual(t, sug.Count, 2)
	assert.Equal(t, "world", sug.Suggestions[0].Word)

	var check CheckResponse
	require.NoError(t, dec.Decode(&check))
	assert.Equal(t, "m2", check.ID)
	assert.False(t, check.Correct)

	assert.ErrorIs(t, dec.Decode(&check), io.EOF)
}

func TestServerSuggestCache(t *testing.T) {
	s := newTestServer(t)
	got := run(t, s,
		`{"command":"suggest","word":"wrold"}`,
		`{"command":"suggest","word":"wrold"}`,
		`{"command":"suggest","word":"wor","before":"wor"}`,
		`{"command":"health"}`,
	)
	require.Len(t, got, 4)

	assert.Equal(t, gjson.Get(got[0], "s").Raw, gjson.Get(got[1], "s").Raw)
	assert.Equal(t, "true", gjson.Get(got[2], "s.0.c").String())
	assert.Equal(t, int64(2), gjson.Get(got[3], "cached").Int())
	assert.Equal(t, int64(1), gjson.Get(got[3], "cache_hits").Int())
}
