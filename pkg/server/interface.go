/*
Package server implements the stdin/stdout IPC for spell checking.

Clients write one request per line as JSON, or a stream of msgpack maps when
the server runs in msgpack mode. Every request names a command and may carry
an id that is echoed back:

	{"id": "1", "command": "check", "word": "wrold"}
	{"id": "1", "word": "wrold", "ok": false, "t": 12}

	{"id": "2", "command": "suggest", "word": "wrold", "limit": 3}
	{"id": "2", "word": "wrold", "s": [{"w": "world", "wt": 6, "c": "unknown", "r": 1}], "n": 1, "t": 140}

Passing the text around the cursor turns on completion of the current word:

	{"id": "3", "command": "suggest", "word": "wor", "before": "hello wor", "after": ""}

Other commands:

	{"command": "segment", "before": "hello wor", "after": "ld again"}
	{"command": "learn", "word": "gofmt"}
	{"command": "forget", "word": "gofmt"}
	{"command": "health"}

Failures come back as {"id": "1", "e": "message", "c": code}. Code 400 means
the request was malformed, 503 that the engine is closed or unusable, 500
anything else.

Times (t) are in microseconds. Suggest results are cached per word and
completion mode; health reports the cache size and hits.
*/
package server

// Request is one decoded client message. Pointer fields distinguish a
// missing value from an empty one.
type Request struct {
	ID      string  `msgpack:"id"`
	Command string  `msgpack:"command"`
	Word    *string `msgpack:"word,omitempty"`
	Before  *string `msgpack:"before,omitempty"`
	After   *string `msgpack:"after,omitempty"`
	Limit   int     `msgpack:"limit,omitempty"`
}

// Suggestion is one ranked candidate on the wire.
type Suggestion struct {
	Word      string  `json:"w" msgpack:"w"`
	Weight    float64 `json:"wt" msgpack:"wt"`
	Completed string  `json:"c" msgpack:"c"`
	Rank      int     `json:"r" msgpack:"r"`
}

// CheckResponse answers check.
type CheckResponse struct {
	ID        string `json:"id,omitempty" msgpack:"id,omitempty"`
	Word      string `json:"word" msgpack:"word"`
	Correct   bool   `json:"ok" msgpack:"ok"`
	TimeTaken int64  `json:"t" msgpack:"t"`
}

// SuggestResponse answers suggest.
type SuggestResponse struct {
	ID          string       `json:"id,omitempty" msgpack:"id,omitempty"`
	Word        string       `json:"word" msgpack:"word"`
	Suggestions []Suggestion `json:"s" msgpack:"s"`
	Count       int          `json:"n" msgpack:"n"`
	TimeTaken   int64        `json:"t" msgpack:"t"`
}

// SegmentResponse answers segment. Offset is the byte offset of the current
// word in before+after.
type SegmentResponse struct {
	ID           string `json:"id,omitempty" msgpack:"id,omitempty"`
	Current      string `json:"cur" msgpack:"cur"`
	Offset       int    `json:"off" msgpack:"off"`
	FirstBefore  string `json:"b1" msgpack:"b1"`
	SecondBefore string `json:"b2" msgpack:"b2"`
	FirstAfter   string `json:"a1" msgpack:"a1"`
	SecondAfter  string `json:"a2" msgpack:"a2"`
}

// StatusResponse answers health, learn and forget.
type StatusResponse struct {
	ID      string `json:"id,omitempty" msgpack:"id,omitempty"`
	Status  string `json:"status" msgpack:"status"`
	Lexicon string `json:"lexicon,omitempty" msgpack:"lexicon,omitempty"`
	Locale  string `json:"locale,omitempty" msgpack:"locale,omitempty"`

	Cached    int   `json:"cached,omitempty" msgpack:"cached,omitempty"`
	CacheHits int64 `json:"cache_hits,omitempty" msgpack:"cache_hits,omitempty"`
}

// ErrorResponse holds basic error information.
type ErrorResponse struct {
	ID    string `json:"id,omitempty" msgpack:"id,omitempty"`
	Error string `json:"e" msgpack:"e"`
	Code  int    `json:"c" msgpack:"c"`
}
