package feed

// codec.go encodes and decodes the positional wire format. There is no
// delimiter scanning anywhere: encoding is concatenation in layout order,
// decoding is slicing at declared offsets.

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// MarkerPrefix starts the header and trailer records. Lines carrying it are
// not data records and are skipped during decode.
const MarkerPrefix = "**"

const (
	headerToken  = "**HEADER"
	trailerToken = "**TRAILER"
)

// Codec encodes and decodes records against a fixed layout.
type Codec struct {
	layout Layout
}

// NewCodec validates the layout and returns a codec for it.
func NewCodec(layout Layout) (*Codec, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Codec{layout: layout}, nil
}

// MustCodec returns a codec for the default layout. The default layout is
// covered by tests, so a failure here is a programming error.
func MustCodec() *Codec {
	c, err := NewCodec(DefaultLayout)
	if err != nil {
		panic(err)
	}
	return c
}

// Layout returns the codec's field table.
func (c *Codec) Layout() Layout { return c.layout }

// Encode concatenates the record's fields in layout order. Every field value
// must already be exactly its declared width; the result is always exactly
// RecordWidth characters.
func (c *Codec) Encode(rec Record) (string, error) {
	var b strings.Builder
	b.Grow(RecordWidth)
	for _, f := range c.layout {
		v, ok := rec[f.Name]
		if !ok {
			v = Blank(f.Width)
		}
		if len(v) != f.Width {
			return "", fmt.Errorf("%w: %s is %d chars, want %d", ErrFieldWidth, f.Name, len(v), f.Width)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Decode slices a raw line at each field's declared offset and width.
// Lines shorter than the layout are rejected with ErrTruncatedRecord.
// Trailing content beyond the layout (a newline survivor, for instance) is
// ignored.
func (c *Codec) Decode(line string) (Record, error) {
	if len(line) < RecordWidth {
		return nil, fmt.Errorf("%w: got %d chars, want %d", ErrTruncatedRecord, len(line), RecordWidth)
	}
	rec := make(Record, len(c.layout))
	for _, f := range c.layout {
		rec[f.Name] = line[f.Offset : f.Offset+f.Width]
	}
	return rec, nil
}

// IsMarker reports whether a line is a header or trailer record rather than
// a data record.
func IsMarker(line string) bool {
	return strings.HasPrefix(line, MarkerPrefix)
}

// DecodeAll reads a whole feed from r, skipping marker and empty lines and
// decoding every data record. A short data line fails the whole read.
func (c *Codec) DecodeAll(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, RecordWidth+2), RecordWidth*4)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" || IsMarker(line) {
			continue
		}
		rec, err := c.Decode(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("feed: read: %w", err)
	}
	return out, nil
}

// HeaderLine builds the header record that opens a feed file. The batch ID
// is the run timestamp shared by every data record in the file.
func HeaderLine(feedID, feedName, batchID string) string {
	return headerToken + feedID + Text(feedName, 15) + batchID
}

// TrailerLine builds the trailer record that closes a feed file, carrying
// the data record count.
func TrailerLine(feedName string, count int) string {
	return trailerToken + Text(feedName, 15) + RecordCount(count)
}

// BatchIDFor formats a run time into the fourteen-character batch ID token.
func BatchIDFor(t time.Time) string {
	return t.Format("20060102150405")
}
