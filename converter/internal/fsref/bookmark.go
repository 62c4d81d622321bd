package fsref

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"
	"time"
)

// ErrMalformedBookmark indicates that a blob could not be decoded as a
// bookmark.
var ErrMalformedBookmark = errors.New("malformed bookmark")

// Bookmark layout. The header is followed by a data section whose first word
// is the offset of the table of contents. All offsets inside the data section
// are relative to its start and all integers are little-endian unless noted.
const (
	bookmarkMagic      = "book"
	bookmarkVersion    = 0x10040000
	bookmarkHeaderSize = 48
	tocMagic           = 0xfffffffe
	tocHeaderSize      = 16
	tocEntrySize       = 12

	itemString = 0x0101
	itemInt32  = 0x0303
	// dates are big-endian float64 seconds since 2001-01-01 UTC
	itemDate  = 0x0400
	itemFalse = 0x0500
	itemTrue  = 0x0501
	itemArray = 0x0601

	keyPath             = 0x1004
	keyCreationDate     = 0x1040
	keyVolumePath       = 0x2002
	keyVolumeName       = 0x2010
	keyVolumeCreateDate = 0x2013
	keyVolumeIsRoot     = 0x2030
	keyCreationOptions  = 0xd010
	keyDisplayName      = 0xf017
	keyIsDirectory      = 0xf020

	creationOptionsMinimal = 0x200
)

var referenceEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Bookmark is a decoded bookmark record.
type Bookmark struct {
	// Path is absolute.
	Path          string
	IsDirectory   bool
	DisplayName   string
	Created       time.Time
	VolumePath    string
	VolumeName    string
	VolumeIsRoot  bool
	VolumeCreated time.Time
}

// FromAlias builds a bookmark that refers to the same object as the alias.
func FromAlias(a *Alias) (*Bookmark, error) {
	p, err := a.Path()
	if err != nil {
		return nil, err
	}
	volumePath := a.MountPoint
	if volumePath == "" {
		volumePath = "/"
	}
	displayName := a.FileName
	if displayName == "" {
		displayName = path.Base(p)
	}
	return &Bookmark{
		Path:          p,
		IsDirectory:   a.Kind == KindFolder,
		DisplayName:   displayName,
		Created:       a.FileCreated,
		VolumePath:    volumePath,
		VolumeName:    a.VolumeName,
		VolumeIsRoot:  volumePath == "/",
		VolumeCreated: a.VolumeCreated,
	}, nil
}

type bookmarkWriter struct {
	data bytes.Buffer
	toc  [][2]uint32
}

func (w *bookmarkWriter) item(typ uint32, payload []byte) uint32 {
	offset := uint32(w.data.Len())
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:], typ)
	w.data.Write(hdr[:])
	w.data.Write(payload)
	for w.data.Len()%4 != 0 {
		w.data.WriteByte(0)
	}
	return offset
}

func (w *bookmarkWriter) str(s string) uint32 {
	return w.item(itemString, []byte(s))
}

func (w *bookmarkWriter) boolean(b bool) uint32 {
	if b {
		return w.item(itemTrue, nil)
	}
	return w.item(itemFalse, nil)
}

func (w *bookmarkWriter) date(t time.Time) uint32 {
	var payload [8]byte
	secs := t.Sub(referenceEpoch).Seconds()
	binary.BigEndian.PutUint64(payload[:], math.Float64bits(secs))
	return w.item(itemDate, payload[:])
}

func (w *bookmarkWriter) number(v int32) uint32 {
	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], uint32(v))
	return w.item(itemInt32, payload[:])
}

func (w *bookmarkWriter) array(offsets []uint32) uint32 {
	payload := make([]byte, 4*len(offsets))
	for i, o := range offsets {
		binary.LittleEndian.PutUint32(payload[4*i:], o)
	}
	return w.item(itemArray, payload)
}

func (w *bookmarkWriter) set(key uint32, offset uint32) {
	w.toc = append(w.toc, [2]uint32{key, offset})
}

// EncodeBookmark serializes the bookmark.
func EncodeBookmark(b *Bookmark) ([]byte, error) {
	if !path.IsAbs(b.Path) {
		return nil, fmt.Errorf("bookmark path %q is not absolute", b.Path)
	}
	w := &bookmarkWriter{}
	// placeholder for the TOC offset
	w.data.Write(make([]byte, 4))

	var components []uint32
	for _, c := range strings.Split(path.Clean(b.Path), "/") {
		if c != "" {
			components = append(components, w.str(c))
		}
	}
	w.set(keyPath, w.array(components))
	w.set(keyIsDirectory, w.boolean(b.IsDirectory))
	if b.DisplayName != "" {
		w.set(keyDisplayName, w.str(b.DisplayName))
	}
	if !b.Created.IsZero() {
		w.set(keyCreationDate, w.date(b.Created))
	}
	w.set(keyVolumePath, w.str(b.VolumePath))
	if b.VolumeName != "" {
		w.set(keyVolumeName, w.str(b.VolumeName))
	}
	w.set(keyVolumeIsRoot, w.boolean(b.VolumeIsRoot))
	if !b.VolumeCreated.IsZero() {
		w.set(keyVolumeCreateDate, w.date(b.VolumeCreated))
	}
	w.set(keyCreationOptions, w.number(creationOptionsMinimal))

	tocOffset := uint32(w.data.Len())
	le := binary.LittleEndian
	var toc bytes.Buffer
	for _, v := range []uint32{tocHeaderSize + tocEntrySize*uint32(len(w.toc)), tocMagic, 1, 0, uint32(len(w.toc))} {
		_ = binary.Write(&toc, le, v)
	}
	for _, e := range w.toc {
		_ = binary.Write(&toc, le, [3]uint32{e[0], e[1], 0})
	}
	w.data.Write(toc.Bytes())

	data := w.data.Bytes()
	le.PutUint32(data[0:], tocOffset)

	out := make([]byte, bookmarkHeaderSize, bookmarkHeaderSize+len(data))
	copy(out, bookmarkMagic)
	le.PutUint32(out[4:], uint32(bookmarkHeaderSize+len(data)))
	le.PutUint32(out[8:], bookmarkVersion)
	le.PutUint32(out[12:], bookmarkHeaderSize)
	return append(out, data...), nil
}

type bookmarkReader struct {
	data []byte
}

func (r *bookmarkReader) item(offset uint32) (uint32, []byte, error) {
	o := int(offset)
	if o+8 > len(r.data) {
		return 0, nil, fmt.Errorf("%w: item offset %d out of range", ErrMalformedBookmark, offset)
	}
	length := int(binary.LittleEndian.Uint32(r.data[o:]))
	typ := binary.LittleEndian.Uint32(r.data[o+4:])
	if o+8+length > len(r.data) {
		return 0, nil, fmt.Errorf("%w: item at %d overruns the data", ErrMalformedBookmark, offset)
	}
	return typ, r.data[o+8 : o+8+length], nil
}

func (r *bookmarkReader) str(offset uint32) (string, error) {
	typ, payload, err := r.item(offset)
	if err != nil {
		return "", err
	}
	if typ != itemString {
		return "", fmt.Errorf("%w: expected string item, got type %#x", ErrMalformedBookmark, typ)
	}
	return string(payload), nil
}

func (r *bookmarkReader) boolean(offset uint32) (bool, error) {
	typ, _, err := r.item(offset)
	if err != nil {
		return false, err
	}
	switch typ {
	case itemTrue:
		return true, nil
	case itemFalse:
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected boolean item, got type %#x", ErrMalformedBookmark, typ)
	}
}

func (r *bookmarkReader) date(offset uint32) (time.Time, error) {
	typ, payload, err := r.item(offset)
	if err != nil {
		return time.Time{}, err
	}
	if typ != itemDate || len(payload) != 8 {
		return time.Time{}, fmt.Errorf("%w: expected date item, got type %#x", ErrMalformedBookmark, typ)
	}
	secs := math.Float64frombits(binary.BigEndian.Uint64(payload))
	return referenceEpoch.Add(time.Duration(math.Round(secs)) * time.Second), nil
}

func (r *bookmarkReader) stringArray(offset uint32) ([]string, error) {
	typ, payload, err := r.item(offset)
	if err != nil {
		return nil, err
	}
	if typ != itemArray || len(payload)%4 != 0 {
		return nil, fmt.Errorf("%w: expected array item, got type %#x", ErrMalformedBookmark, typ)
	}
	out := make([]string, 0, len(payload)/4)
	for i := 0; i < len(payload); i += 4 {
		s, err := r.str(binary.LittleEndian.Uint32(payload[i:]))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DecodeBookmark parses a bookmark produced by EncodeBookmark.
func DecodeBookmark(raw []byte) (*Bookmark, error) {
	le := binary.LittleEndian
	if len(raw) < bookmarkHeaderSize+4 || string(raw[:4]) != bookmarkMagic {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedBookmark)
	}
	if int(le.Uint32(raw[4:])) != len(raw) {
		return nil, fmt.Errorf("%w: length field %d does not match %d bytes", ErrMalformedBookmark, le.Uint32(raw[4:]), len(raw))
	}
	dataStart := int(le.Uint32(raw[12:]))
	if dataStart < bookmarkHeaderSize || dataStart+4 > len(raw) {
		return nil, fmt.Errorf("%w: data offset %d out of range", ErrMalformedBookmark, dataStart)
	}
	r := &bookmarkReader{data: raw[dataStart:]}

	tocOffset := int(le.Uint32(r.data))
	if tocOffset+4+tocHeaderSize > len(r.data) {
		return nil, fmt.Errorf("%w: toc offset %d out of range", ErrMalformedBookmark, tocOffset)
	}
	toc := r.data[tocOffset:]
	if le.Uint32(toc[4:]) != tocMagic {
		return nil, fmt.Errorf("%w: bad toc magic", ErrMalformedBookmark)
	}
	count := int(le.Uint32(toc[16:]))
	entries := toc[4+tocHeaderSize:]
	if len(entries) < count*tocEntrySize {
		return nil, fmt.Errorf("%w: toc has %d entries but only %d bytes", ErrMalformedBookmark, count, len(entries))
	}

	b := &Bookmark{}
	var havePath bool
	for i := 0; i < count; i++ {
		e := entries[i*tocEntrySize:]
		key := le.Uint32(e)
		offset := le.Uint32(e[4:])
		var err error
		switch key {
		case keyPath:
			var components []string
			components, err = r.stringArray(offset)
			b.Path = "/" + strings.Join(components, "/")
			havePath = true
		case keyIsDirectory:
			b.IsDirectory, err = r.boolean(offset)
		case keyDisplayName:
			b.DisplayName, err = r.str(offset)
		case keyCreationDate:
			b.Created, err = r.date(offset)
		case keyVolumePath:
			b.VolumePath, err = r.str(offset)
		case keyVolumeName:
			b.VolumeName, err = r.str(offset)
		case keyVolumeIsRoot:
			b.VolumeIsRoot, err = r.boolean(offset)
		case keyVolumeCreateDate:
			b.VolumeCreated, err = r.date(offset)
		}
		if err != nil {
			return nil, fmt.Errorf("toc key %#x: %w", key, err)
		}
	}
	if !havePath {
		return nil, fmt.Errorf("%w: no path", ErrMalformedBookmark)
	}
	return b, nil
}
