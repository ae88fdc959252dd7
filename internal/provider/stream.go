package provider

import "context"

// Message is one entry of the chat-style prompt sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used when building prompts.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChunkKind tags what a Chunk carries.
type ChunkKind int

const (
	// ChunkFragment carries a piece of generated text in Text.
	ChunkFragment ChunkKind = iota + 1
	// ChunkMalformed reports an undecodable payload. The stream continues.
	ChunkMalformed
	// ChunkDone reports a clean end of stream.
	ChunkDone
	// ChunkFailed reports a transport failure. The stream is over.
	ChunkFailed
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkFragment:
		return "fragment"
	case ChunkMalformed:
		return "malformed"
	case ChunkDone:
		return "done"
	case ChunkFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Chunk is the tagged result of a single Stream.Recv call.
// Err is set for ChunkMalformed and ChunkFailed.
type Chunk struct {
	Kind ChunkKind
	Text string
	Err  error
}

// Fragment builds a ChunkFragment.
func Fragment(text string) Chunk { return Chunk{Kind: ChunkFragment, Text: text} }

// Malformed builds a ChunkMalformed.
func Malformed(err error) Chunk { return Chunk{Kind: ChunkMalformed, Err: err} }

// Done builds a ChunkDone.
func Done() Chunk { return Chunk{Kind: ChunkDone} }

// Failed builds a ChunkFailed.
func Failed(err error) Chunk { return Chunk{Kind: ChunkFailed, Err: err} }

// Terminal reports whether no further chunks follow this one.
func (c Chunk) Terminal() bool {
	return c.Kind == ChunkDone || c.Kind == ChunkFailed
}

// Stream is an open upstream generation. Recv blocks until the next chunk
// is available or ctx is done. After a terminal chunk every further Recv
// returns the same terminal chunk. Close releases the connection and is
// safe to call more than once.
type Stream interface {
	Recv(ctx context.Context) Chunk
	Close() error
}

// Source opens streams against one upstream API.
type Source interface {
	Name() string
	Configured() bool
	Open(ctx context.Context, messages []Message) (Stream, error)
}
