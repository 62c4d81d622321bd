package fsref

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf16"
)

// ErrMalformedAlias indicates that a blob could not be decoded as an alias
// record.
var ErrMalformedAlias = errors.New("malformed alias record")

// Kind is the type of file system object a reference points to.
type Kind uint16

const (
	KindFile   Kind = 0
	KindFolder Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

// Alias record layout (version 2). All integers are big-endian.
const (
	aliasVersion     = 2
	aliasFixedSize   = 150
	aliasVolNameLen  = 27
	aliasFileNameLen = 63

	offSize           = 4
	offVersion        = 6
	offKind           = 8
	offVolumeName     = 10
	offVolumeDate     = 38
	offFSType         = 42
	offParentDirID    = 46
	offFileName       = 50
	offFileNumber     = 114
	offFileDate       = 118
	offNlvlFrom       = 130
	offNlvlTo         = 132
	aliasTagEnd       = -1
	tagParentDirName  = 0
	tagCarbonPath     = 2
	tagUnicodeName    = 14
	tagUnicodeVolName = 15
	tagPOSIXPath      = 18
	tagMountPoint     = 19
)

// hfsEpoch is the origin of HFS timestamps.
var hfsEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// Alias is a decoded legacy alias record.
type Alias struct {
	Kind       Kind
	VolumeName string
	// VolumeCreated and FileCreated are zero when the record doesn't carry
	// them.
	VolumeCreated time.Time
	FileCreated   time.Time
	FileName      string
	ParentName    string
	ParentDirID   uint32
	FileNumber    uint32
	// POSIXPath is relative to the volume's mount point and starts with a
	// slash.
	POSIXPath  string
	MountPoint string
	// CarbonPath is the colon-separated path including the volume name.
	CarbonPath string
}

// Path returns the absolute POSIX path of the referenced object, falling back
// to the carbon path when the record predates POSIX path tags.
func (a *Alias) Path() (string, error) {
	if a.POSIXPath != "" {
		mount := a.MountPoint
		if mount == "" {
			mount = "/"
		}
		return path.Join(mount, a.POSIXPath), nil
	}
	if a.CarbonPath != "" {
		parts := strings.Split(a.CarbonPath, ":")
		if len(parts) < 2 {
			return "", fmt.Errorf("%w: carbon path %q has no volume", ErrMalformedAlias, a.CarbonPath)
		}
		// The first component is the volume name. Without a mount point the
		// volume is assumed to be the boot volume.
		elems := parts[1:]
		for i, e := range elems {
			// colons in names were stored as slashes
			elems[i] = strings.ReplaceAll(e, "/", ":")
		}
		root := "/"
		if a.MountPoint != "" {
			root = a.MountPoint
		}
		return path.Join(append([]string{root}, elems...)...), nil
	}
	return "", fmt.Errorf("%w: record for %q has no path information", ErrMalformedAlias, a.FileName)
}

// DecodeAlias parses a version 2 alias record.
func DecodeAlias(raw []byte) (*Alias, error) {
	if len(raw) < aliasFixedSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header", ErrMalformedAlias, len(raw), aliasFixedSize)
	}
	be := binary.BigEndian
	size := int(be.Uint16(raw[offSize:]))
	if size < aliasFixedSize || size > len(raw) {
		return nil, fmt.Errorf("%w: record size %d does not fit in %d bytes", ErrMalformedAlias, size, len(raw))
	}
	if v := be.Uint16(raw[offVersion:]); v != aliasVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedAlias, v)
	}
	raw = raw[:size]

	a := &Alias{
		Kind:          Kind(be.Uint16(raw[offKind:])),
		VolumeCreated: hfsTime(be.Uint32(raw[offVolumeDate:])),
		ParentDirID:   be.Uint32(raw[offParentDirID:]),
		FileNumber:    be.Uint32(raw[offFileNumber:]),
		FileCreated:   hfsTime(be.Uint32(raw[offFileDate:])),
	}
	if a.Kind != KindFile && a.Kind != KindFolder {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedAlias, uint16(a.Kind))
	}
	var err error
	if a.VolumeName, err = pascalString(raw[offVolumeName:offVolumeName+1+aliasVolNameLen], aliasVolNameLen); err != nil {
		return nil, fmt.Errorf("%w: volume name: %w", ErrMalformedAlias, err)
	}
	if a.FileName, err = pascalString(raw[offFileName:offFileName+1+aliasFileNameLen], aliasFileNameLen); err != nil {
		return nil, fmt.Errorf("%w: file name: %w", ErrMalformedAlias, err)
	}

	pos := aliasFixedSize
	for {
		if pos+4 > len(raw) {
			return nil, fmt.Errorf("%w: tagged data is not terminated", ErrMalformedAlias)
		}
		tag := int16(be.Uint16(raw[pos:]))
		length := int(be.Uint16(raw[pos+2:]))
		pos += 4
		if tag == aliasTagEnd {
			break
		}
		if pos+length > len(raw) {
			return nil, fmt.Errorf("%w: tag %d overruns the record", ErrMalformedAlias, tag)
		}
		data := raw[pos : pos+length]
		switch tag {
		case tagParentDirName:
			a.ParentName = string(data)
		case tagCarbonPath:
			a.CarbonPath = string(data)
		case tagUnicodeName:
			if name, err := hfsUniStr(data); err == nil {
				a.FileName = name
			}
		case tagUnicodeVolName:
			if name, err := hfsUniStr(data); err == nil {
				a.VolumeName = name
			}
		case tagPOSIXPath:
			a.POSIXPath = string(data)
		case tagMountPoint:
			a.MountPoint = string(data)
		}
		// entries are padded to an even length
		pos += length + length%2
	}
	return a, nil
}

// EncodeAlias produces a version 2 alias record. It exists so that tests and
// tools can fabricate legacy data.
func EncodeAlias(a *Alias) ([]byte, error) {
	if len(a.VolumeName) > aliasVolNameLen {
		return nil, fmt.Errorf("volume name %q is longer than %d bytes", a.VolumeName, aliasVolNameLen)
	}
	if len(a.FileName) > aliasFileNameLen {
		return nil, fmt.Errorf("file name %q is longer than %d bytes", a.FileName, aliasFileNameLen)
	}
	be := binary.BigEndian
	buf := make([]byte, aliasFixedSize)
	be.PutUint16(buf[offVersion:], aliasVersion)
	be.PutUint16(buf[offKind:], uint16(a.Kind))
	buf[offVolumeName] = byte(len(a.VolumeName))
	copy(buf[offVolumeName+1:], a.VolumeName)
	be.PutUint32(buf[offVolumeDate:], hfsSeconds(a.VolumeCreated))
	copy(buf[offFSType:], "H+")
	be.PutUint32(buf[offParentDirID:], a.ParentDirID)
	buf[offFileName] = byte(len(a.FileName))
	copy(buf[offFileName+1:], a.FileName)
	be.PutUint32(buf[offFileNumber:], a.FileNumber)
	be.PutUint32(buf[offFileDate:], hfsSeconds(a.FileCreated))
	be.PutUint16(buf[offNlvlFrom:], 0xffff)
	be.PutUint16(buf[offNlvlTo:], 0xffff)

	var tags bytes.Buffer
	writeTag := func(tag int16, data []byte) {
		var hdr [4]byte
		be.PutUint16(hdr[0:], uint16(tag))
		be.PutUint16(hdr[2:], uint16(len(data)))
		tags.Write(hdr[:])
		tags.Write(data)
		if len(data)%2 == 1 {
			tags.WriteByte(0)
		}
	}
	if a.ParentName != "" {
		writeTag(tagParentDirName, []byte(a.ParentName))
	}
	if a.CarbonPath != "" {
		writeTag(tagCarbonPath, []byte(a.CarbonPath))
	}
	if a.FileName != "" {
		writeTag(tagUnicodeName, encodeHFSUniStr(a.FileName))
	}
	if a.VolumeName != "" {
		writeTag(tagUnicodeVolName, encodeHFSUniStr(a.VolumeName))
	}
	if a.POSIXPath != "" {
		writeTag(tagPOSIXPath, []byte(a.POSIXPath))
	}
	if a.MountPoint != "" {
		writeTag(tagMountPoint, []byte(a.MountPoint))
	}
	writeTag(aliasTagEnd, nil)

	out := append(buf, tags.Bytes()...)
	if len(out) > 0xffff {
		return nil, fmt.Errorf("alias record of %d bytes is too large", len(out))
	}
	be.PutUint16(out[offSize:], uint16(len(out)))
	return out, nil
}

func pascalString(field []byte, limit int) (string, error) {
	n := int(field[0])
	if n > limit {
		return "", fmt.Errorf("length %d exceeds %d", n, limit)
	}
	return string(field[1 : 1+n]), nil
}

// hfsUniStr decodes an HFSUniStr255: a big-endian uint16 character count
// followed by UTF-16BE code units.
func hfsUniStr(data []byte) (string, error) {
	if len(data) < 2 {
		return "", errors.New("unicode string is truncated")
	}
	n := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+2*n {
		return "", errors.New("unicode string is truncated")
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(data[2+2*i:])
	}
	return string(utf16.Decode(units)), nil
}

func encodeHFSUniStr(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2+2*len(units))
	binary.BigEndian.PutUint16(out, uint16(len(units)))
	for i, u := range units {
		binary.BigEndian.PutUint16(out[2+2*i:], u)
	}
	return out
}

func hfsTime(secs uint32) time.Time {
	if secs == 0 {
		return time.Time{}
	}
	return hfsEpoch.Add(time.Duration(secs) * time.Second)
}

func hfsSeconds(t time.Time) uint32 {
	if t.IsZero() || t.Before(hfsEpoch) {
		return 0
	}
	return uint32(t.Sub(hfsEpoch) / time.Second)
}
