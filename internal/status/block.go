// internal/status/block.go
package status

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// BlockKind identifies the section a block was opened with.
type BlockKind int

const (
	KindUnknown BlockKind = iota
	KindInfo
	KindProgram
	KindHost
	KindService
	KindContact
)

func (k BlockKind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindProgram:
		return "programstatus"
	case KindHost:
		return "hoststatus"
	case KindService:
		return "servicestatus"
	case KindContact:
		return "contactstatus"
	default:
		return "unknown"
	}
}

var openers = map[string]BlockKind{
	"info {":          KindInfo,
	"programstatus {": KindProgram,
	"hoststatus {":    KindHost,
	"servicestatus {": KindService,
	"contactstatus {": KindContact,
}

// Block is one "kind { key=value ... }" section of a status file.
type Block struct {
	Kind   BlockKind
	Fields map[string]string
	// Line is the line number of the opener.
	Line int
}

var (
	ErrUnexpectedLine        = errors.New("unexpected line")
	ErrInvalidKeyValue       = errors.New("invalid key value")
	ErrUnexpectedEndOfStream = errors.New("unexpected end of stream")
)

// ParseError reports a lexical error. Reason is one of ErrUnexpectedLine,
// ErrInvalidKeyValue or ErrUnexpectedEndOfStream.
type ParseError struct {
	Reason error
	Line   string
	LineNo int
}

func (e *ParseError) Error() string {
	if e.Reason == ErrUnexpectedEndOfStream {
		return fmt.Sprintf("%v after line %d", e.Reason, e.LineNo)
	}
	return fmt.Sprintf("%v at line %d: %q", e.Reason, e.LineNo, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

type readerState int

const (
	outside readerState = iota
	withinBlock
)

// ReaderOption adjusts a BlockReader.
type ReaderOption func(*BlockReader)

// WithSkipUnknownBlocks accepts any "<name> {" opener. Blocks opened that way
// are returned with KindUnknown instead of failing with ErrUnexpectedLine.
func WithSkipUnknownBlocks() ReaderOption {
	return func(r *BlockReader) {
		r.skipUnknown = true
	}
}

// BlockReader pulls blocks out of a status stream one at a time.
// It is not restartable and not safe for concurrent use.
type BlockReader struct {
	r           *bufio.Reader
	lineNo      int
	err         error
	skipUnknown bool
}

func NewBlockReader(r io.Reader, opts ...ReaderOption) *BlockReader {
	br := &BlockReader{r: bufio.NewReader(r)}
	for _, opt := range opts {
		opt(br)
	}
	return br
}

// nextLine returns the next significant line, already trimmed.
func (br *BlockReader) nextLine() (string, error) {
	for {
		raw, err := br.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read status line %d: %w", br.lineNo+1, err)
		}
		if raw == "" && err == io.EOF {
			return "", io.EOF
		}
		br.lineNo++

		line := strings.TrimSpace(raw)
		if line != "" && !strings.HasPrefix(line, "#") {
			return line, nil
		}
		if err == io.EOF {
			return "", io.EOF
		}
	}
}

func (br *BlockReader) openerKind(line string) (BlockKind, bool) {
	if kind, ok := openers[line]; ok {
		return kind, true
	}
	if br.skipUnknown && strings.HasSuffix(line, " {") && !strings.Contains(line, "=") {
		return KindUnknown, true
	}
	return KindUnknown, false
}

// Next returns the next block, or io.EOF once the stream ends cleanly.
// Any other error is final: subsequent calls return it again.
func (br *BlockReader) Next() (Block, error) {
	if br.err != nil {
		return Block{}, br.err
	}

	state := outside
	var block Block

	for {
		line, err := br.nextLine()
		if err == io.EOF {
			if state == withinBlock {
				br.err = &ParseError{Reason: ErrUnexpectedEndOfStream, LineNo: br.lineNo}
			} else {
				br.err = io.EOF
			}
			return Block{}, br.err
		}
		if err != nil {
			br.err = err
			return Block{}, err
		}

		switch state {
		case outside:
			kind, ok := br.openerKind(line)
			if !ok {
				br.err = &ParseError{Reason: ErrUnexpectedLine, Line: line, LineNo: br.lineNo}
				return Block{}, br.err
			}
			block = Block{Kind: kind, Fields: make(map[string]string), Line: br.lineNo}
			state = withinBlock

		case withinBlock:
			if line == "}" {
				return block, nil
			}
			key, value, found := strings.Cut(line, "=")
			if !found {
				br.err = &ParseError{Reason: ErrInvalidKeyValue, Line: line, LineNo: br.lineNo}
				return Block{}, br.err
			}
			block.Fields[key] = value
		}
	}
}

// ReadBlocks reads every block from r. It fails on the first error.
func ReadBlocks(r io.Reader, opts ...ReaderOption) ([]Block, error) {
	br := NewBlockReader(r, opts...)
	var blocks []Block
	for {
		block, err := br.Next()
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
}
