package mediashelf

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is an inclusive byte interval within an object.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a partial
// response over an object of the given size.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// FullRange returns the implicit whole-object range for an object of the
// given size. For an empty object the returned range has length zero.
func FullRange(size int64) ByteRange {
	return ByteRange{Start: 0, End: size - 1}
}

// ParseRange resolves an HTTP Range header against a known object size.
//
// An empty header yields the full-object range (callers answer 200). The
// only accepted form is "bytes=<start>-<end>" with the end bound optional:
// a missing end means through the last byte, and an end at or beyond the
// object size is clamped to it. A start at or beyond the object size, or a
// start past the clamped end, returns ErrRangeNotSatisfiable (callers
// answer 416 with "Content-Range: bytes */<size>").
//
// Suffix ranges ("bytes=-N"), multi-range requests, other units, and
// unparseable bounds return ErrMalformedRange; callers degrade those to a
// full-object 200 rather than failing, matching media-player retry
// behavior. Suffix ranges are deliberately not resolved, see the parser
// tests pinning this.
func ParseRange(header string, size int64) (ByteRange, error) {
	if header == "" {
		return FullRange(size), nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return ByteRange{}, ErrMalformedRange
	}

	if strings.Contains(spec, ",") {
		return ByteRange{}, ErrMalformedRange
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return ByteRange{}, ErrMalformedRange
	}

	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		// Suffix form "bytes=-N".
		return ByteRange{}, ErrMalformedRange
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return ByteRange{}, ErrMalformedRange
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < 0 {
			return ByteRange{}, ErrMalformedRange
		}
	}

	if start >= size {
		return ByteRange{}, ErrRangeNotSatisfiable
	}

	if end >= size {
		end = size - 1
	}

	if start > end {
		return ByteRange{}, ErrRangeNotSatisfiable
	}

	return ByteRange{Start: start, End: end}, nil
}
