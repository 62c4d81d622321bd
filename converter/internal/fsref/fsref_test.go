package fsref_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macterm/prefs-converter/converter/internal/fsref"
)

func TestAliasRoundTrip(t *testing.T) {
	in := &fsref.Alias{
		Kind:          fsref.KindFolder,
		VolumeName:    "Macintosh HD",
		VolumeCreated: time.Date(2010, time.March, 4, 5, 6, 7, 0, time.UTC),
		FileCreated:   time.Date(2015, time.June, 1, 12, 0, 0, 0, time.UTC),
		FileName:      "captures",
		ParentName:    "kevin",
		ParentDirID:   1234,
		FileNumber:    5678,
		POSIXPath:     "/Users/kevin/captures",
		CarbonPath:    "Macintosh HD:Users:kevin:captures:",
	}

	raw, err := fsref.EncodeAlias(in)
	require.NoError(t, err)
	assert.Equal(t, len(raw), int(binary.BigEndian.Uint16(raw[4:])))

	out, err := fsref.DecodeAlias(raw)
	require.NoError(t, err)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.VolumeName, out.VolumeName)
	assert.Equal(t, in.FileName, out.FileName)
	assert.Equal(t, in.ParentName, out.ParentName)
	assert.Equal(t, in.ParentDirID, out.ParentDirID)
	assert.Equal(t, in.FileNumber, out.FileNumber)
	assert.Equal(t, in.POSIXPath, out.POSIXPath)
	assert.Equal(t, in.CarbonPath, out.CarbonPath)
	assert.True(t, in.VolumeCreated.Equal(out.VolumeCreated))
	assert.True(t, in.FileCreated.Equal(out.FileCreated))
}

func TestAliasPath(t *testing.T) {
	for _, tc := range []struct {
		name     string
		alias    fsref.Alias
		expected string
		err      bool
	}{
		{
			name:     "posix path on boot volume",
			alias:    fsref.Alias{POSIXPath: "/Users/kevin/captures"},
			expected: "/Users/kevin/captures",
		},
		{
			name:     "posix path on mounted volume",
			alias:    fsref.Alias{POSIXPath: "/logs", MountPoint: "/Volumes/External"},
			expected: "/Volumes/External/logs",
		},
		{
			name:     "carbon path fallback",
			alias:    fsref.Alias{CarbonPath: "Macintosh HD:Users:kevin:a/b:"},
			expected: "/Users/kevin/a:b",
		},
		{
			name:  "no path information",
			alias: fsref.Alias{FileName: "captures"},
			err:   true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := tc.alias.Path()
			if tc.err {
				assert.ErrorIs(t, err, fsref.ErrMalformedAlias)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}
}

func TestDecodeAliasErrors(t *testing.T) {
	valid, err := fsref.EncodeAlias(&fsref.Alias{
		Kind:      fsref.KindFile,
		FileName:  "log.txt",
		POSIXPath: "/tmp/log.txt",
	})
	require.NoError(t, err)

	for _, tc := range []struct {
		name   string
		mutate func(raw []byte) []byte
	}{
		{
			name:   "too short",
			mutate: func(raw []byte) []byte { return raw[:20] },
		},
		{
			name: "size larger than data",
			mutate: func(raw []byte) []byte {
				binary.BigEndian.PutUint16(raw[4:], uint16(len(raw)+10))
				return raw
			},
		},
		{
			name: "wrong version",
			mutate: func(raw []byte) []byte {
				binary.BigEndian.PutUint16(raw[6:], 3)
				return raw
			},
		},
		{
			name: "unknown kind",
			mutate: func(raw []byte) []byte {
				binary.BigEndian.PutUint16(raw[8:], 9)
				return raw
			},
		},
		{
			name: "unterminated tags",
			mutate: func(raw []byte) []byte {
				raw = raw[:len(raw)-4]
				binary.BigEndian.PutUint16(raw[4:], uint16(len(raw)))
				return raw
			},
		},
		{
			name:   "not an alias at all",
			mutate: func(_ []byte) []byte { return []byte("definitely not an alias record") },
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw := tc.mutate(append([]byte(nil), valid...))
			_, err := fsref.DecodeAlias(raw)
			assert.ErrorIs(t, err, fsref.ErrMalformedAlias)
		})
	}
}

func TestBookmarkRoundTrip(t *testing.T) {
	in := &fsref.Bookmark{
		Path:          "/Users/kevin/captures",
		IsDirectory:   true,
		DisplayName:   "captures",
		Created:       time.Date(2015, time.June, 1, 12, 0, 0, 0, time.UTC),
		VolumePath:    "/",
		VolumeName:    "Macintosh HD",
		VolumeIsRoot:  true,
		VolumeCreated: time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC),
	}

	raw, err := fsref.EncodeBookmark(in)
	require.NoError(t, err)
	assert.Equal(t, "book", string(raw[:4]))

	out, err := fsref.DecodeBookmark(raw)
	require.NoError(t, err)
	assert.Equal(t, in.Path, out.Path)
	assert.Equal(t, in.IsDirectory, out.IsDirectory)
	assert.Equal(t, in.DisplayName, out.DisplayName)
	assert.Equal(t, in.VolumePath, out.VolumePath)
	assert.Equal(t, in.VolumeName, out.VolumeName)
	assert.Equal(t, in.VolumeIsRoot, out.VolumeIsRoot)
	assert.True(t, in.Created.Equal(out.Created))
	assert.True(t, in.VolumeCreated.Equal(out.VolumeCreated))
}

func TestDecodeBookmarkErrors(t *testing.T) {
	valid, err := fsref.EncodeBookmark(&fsref.Bookmark{Path: "/tmp", VolumePath: "/"})
	require.NoError(t, err)

	_, err = fsref.DecodeBookmark([]byte("book"))
	assert.ErrorIs(t, err, fsref.ErrMalformedBookmark)

	truncated := valid[:len(valid)-8]
	_, err = fsref.DecodeBookmark(truncated)
	assert.ErrorIs(t, err, fsref.ErrMalformedBookmark)

	_, err = fsref.EncodeBookmark(&fsref.Bookmark{Path: "relative/path"})
	assert.ErrorContains(t, err, "not absolute")
}

func TestConvertAliasToBookmark(t *testing.T) {
	alias, err := fsref.EncodeAlias(&fsref.Alias{
		Kind:       fsref.KindFolder,
		VolumeName: "External",
		FileName:   "logs",
		POSIXPath:  "/logs",
		MountPoint: "/Volumes/External",
	})
	require.NoError(t, err)

	bookmark, err := fsref.ConvertAliasToBookmark(alias)
	require.NoError(t, err)

	p, err := fsref.ResolveBookmark(bookmark)
	require.NoError(t, err)
	assert.Equal(t, "/Volumes/External/logs", p)

	decoded, err := fsref.DecodeBookmark(bookmark)
	require.NoError(t, err)
	assert.True(t, decoded.IsDirectory)
	assert.False(t, decoded.VolumeIsRoot)
	assert.Equal(t, "External", decoded.VolumeName)

	_, err = fsref.ConvertAliasToBookmark([]byte{1, 2, 3})
	assert.ErrorIs(t, err, fsref.ErrMalformedAlias)
}
