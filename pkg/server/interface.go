/*
Package server implements msgpack IPC for document annotation.

The server keeps one document session. A client sends the full text of the
document with every analyze request and receives only what changed: range
lists for the tags whose ranges moved, and the sidebar operations that bring
the client's list in line with the current entries.

# IPC

Messages are msgpack maps streamed over stdin and stdout, one response per
request, in order. Every request carries an ID that is echoed back.

	{"id": "a1", "action": "analyze", "text": "the cat sat on teh mat"}

The server responds with the unknown occurrence count, the changed ranges by
tag name, the sidebar ops and the time taken in microseconds:

	{"id": "a1", "n": 1, "r": {"unknown": [[15, 18]], "lowstat": []},
	 "ops": [{"k": "insert", "p": 0, "i": {"key": "teh", "d": "teh", "tag": "unknown"}}],
	 "d": "full", "t": 145}

Other actions:

	{"id": "r1", "action": "reset"}
	{"id": "c1", "action": "set_case", "strict": false}
	{"id": "s1", "action": "suggest", "key": "teh", "limit": 5}
	{"id": "e1", "action": "explain", "text": "good night, teh cat"}
	{"id": "i1", "action": "info"}
	{"id": "x1", "action": "stats"}

Failed requests get an error frame and the server keeps serving:

	{"id": "a1", "e": "lexicon unavailable", "c": 503}

Codes are 400 for malformed or invalid requests, 503 when the lexicon cannot
be reached, and 500 for anything else.
*/
package server

// Request is the union of every request shape. Fields not used by an action
// are ignored.
type Request struct {
	ID     string  `msgpack:"id"`
	Action string  `msgpack:"action"`
	Text   *string `msgpack:"text,omitempty"`
	Key    string  `msgpack:"key,omitempty"`
	Limit  int     `msgpack:"limit,omitempty"`
	Strict *bool   `msgpack:"strict,omitempty"`
}

// WireItem is a sidebar row.
type WireItem struct {
	Key     string   `msgpack:"key"`
	Display string   `msgpack:"d"`
	Tag     string   `msgpack:"tag"`
	Reasons []string `msgpack:"reasons,omitempty"`
}

// WireOp is one sidebar operation. Pos is set for insert and move, Item for
// insert and update.
type WireOp struct {
	Kind string    `msgpack:"k"`
	Key  string    `msgpack:"key,omitempty"`
	Pos  int       `msgpack:"p"`
	Item *WireItem `msgpack:"i,omitempty"`
}

// AnalyzeResponse - analysis result
type AnalyzeResponse struct {
	ID           string              `msgpack:"id"`
	UnknownCount int                 `msgpack:"n"`
	Ranges       map[string][][2]int `msgpack:"r,omitempty"`
	Ops          []WireOp            `msgpack:"ops,omitempty"`
	Decision     string              `msgpack:"d"`
	TimeTaken    int64               `msgpack:"t"`
}

// StatusResponse acknowledges reset and set_case.
type StatusResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Mode   string `msgpack:"mode,omitempty"`
}

// WireSuggestion - one suggestion
type WireSuggestion struct {
	Word     string `msgpack:"w"`
	Count    int    `msgpack:"f"`
	Distance int    `msgpack:"dist"`
}

// SuggestResponse - suggestions for a word
type SuggestResponse struct {
	ID          string           `msgpack:"id"`
	Suggestions []WireSuggestion `msgpack:"s"`
	Count       int              `msgpack:"c"`
	TimeTaken   int64            `msgpack:"t"`
}

// WireExplanation is one explained word or phrase. sim is the closest known
// word with an explanation when text has none.
type WireExplanation struct {
	Text               string `msgpack:"text"`
	Explanation        string `msgpack:"x,omitempty"`
	Found              bool   `msgpack:"found"`
	Similar            string `msgpack:"sim,omitempty"`
	SimilarExplanation string `msgpack:"simx,omitempty"`
}

// ExplainResponse - explanations for the words and phrases of a text
type ExplainResponse struct {
	ID           string            `msgpack:"id"`
	Explanations []WireExplanation `msgpack:"x"`
	Count        int               `msgpack:"c"`
	TimeTaken    int64             `msgpack:"t"`
}

// InfoResponse describes the lexicon and the current session.
type InfoResponse struct {
	ID      string         `msgpack:"id"`
	Mode    string         `msgpack:"mode"`
	Lexicon map[string]int `msgpack:"lexicon,omitempty"`
	Entries int            `msgpack:"entries"`
	Chars   int            `msgpack:"chars"`
}

// StatsResponse reports engine pass counters.
type StatsResponse struct {
	ID          string `msgpack:"id"`
	Full        int    `msgpack:"full"`
	Incremental int    `msgpack:"incremental"`
	Fallback    int    `msgpack:"fallback"`
	NoOp        int    `msgpack:"noop"`
	Cleared     int    `msgpack:"cleared"`
	Requests    int    `msgpack:"requests"`
}

// ErrorResponse holds basic error information for any failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
